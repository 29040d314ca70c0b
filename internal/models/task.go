package models

import "time"

// RelevanceTask is the client-facing view of an asynchronous relevance job.
type RelevanceTask struct {
	ID             string           `json:"id"`
	SearchResultID string           `json:"searchResultId"`
	Status         ProcessingStatus `json:"status"`
	Progress       float64          `json:"progress"`
	Error          string           `json:"error,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt,omitempty"`
}

type ProcessingStatus string

const (
	StatusPending   ProcessingStatus = "pending"
	StatusRunning   ProcessingStatus = "running"
	StatusCompleted ProcessingStatus = "completed"
	StatusFailed    ProcessingStatus = "failed"
)
