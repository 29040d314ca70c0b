package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/relevance-finder/internal/agent/search"
	"github.com/feichai0017/relevance-finder/internal/service/relevance"
	"github.com/feichai0017/relevance-finder/internal/utils/validator"
	"github.com/feichai0017/relevance-finder/pkg/logger"
	"github.com/feichai0017/relevance-finder/pkg/queue"
)

type RelevanceHandler struct {
	service   relevance.RelevanceService
	validator *validator.RequestValidator
	logger    logger.Logger
}

type ErrorResponse struct {
	Error   string                      `json:"error"`
	Message string                      `json:"message"`
	Details []validator.ValidationError `json:"details,omitempty"`
}

type TaskResponse struct {
	TaskID         string  `json:"taskId"`
	SearchResultID string  `json:"searchResultId,omitempty"`
	Status         string  `json:"status"`
	Progress       float64 `json:"progress"`
	Error          string  `json:"error,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt,omitempty"`
}

func NewRelevanceHandler(service relevance.RelevanceService, v *validator.RequestValidator, logger logger.Logger) *RelevanceHandler {
	return &RelevanceHandler{
		service:   service,
		validator: v,
		logger:    logger.Named("http"),
	}
}

// Search runs or reuses the search for ?query=&grade=.
func (h *RelevanceHandler) Search(c *gin.Context) {
	query, grade := c.Query("query"), c.Query("grade")
	if result := h.validator.ValidateSearch(query, grade); !result.IsValid {
		h.invalid(c, result)
		return
	}

	start := 1
	if s := c.Query("start"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			h.handleError(c, http.StatusBadRequest, "start must be a positive integer", err)
			return
		}
		start = n
	}

	sr, err := h.service.Search(c.Request.Context(), query, grade, start)
	if err != nil {
		h.serviceError(c, "Search failed", err)
		return
	}
	c.JSON(http.StatusOK, sr)
}

// BasicResults lists the documents of a search without relevance.
func (h *RelevanceHandler) BasicResults(c *gin.Context) {
	id, ok := h.pathID(c, "searchResultId")
	if !ok {
		return
	}
	items, err := h.service.BasicResults(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "Failed to get documents", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"searchResultId": id, "results": items})
}

// ComputeRelevance enqueues relevance discovery for a search.
func (h *RelevanceHandler) ComputeRelevance(c *gin.Context) {
	id, ok := h.pathID(c, "searchResultId")
	if !ok {
		return
	}
	task, err := h.service.EnqueueRelevance(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "Failed to start relevance task", err)
		return
	}
	c.JSON(http.StatusAccepted, TaskResponse{
		TaskID:         task.ID,
		SearchResultID: task.SearchResultID,
		Status:         string(task.Status),
		CreatedAt:      task.CreatedAt.Format(time.RFC3339),
	})
}

func (h *RelevanceHandler) GetStatus(c *gin.Context) {
	id, ok := h.pathID(c, "taskId")
	if !ok {
		return
	}
	task, err := h.service.GetTaskStatus(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "Failed to get status", err)
		return
	}

	resp := TaskResponse{
		TaskID:    task.ID,
		Status:    string(task.Status),
		Progress:  task.Progress,
		Error:     task.Error,
		CreatedAt: task.CreatedAt.Format(time.RFC3339),
	}
	if !task.UpdatedAt.IsZero() {
		resp.UpdatedAt = task.UpdatedAt.Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, resp)
}

func (h *RelevanceHandler) CancelTask(c *gin.Context) {
	id, ok := h.pathID(c, "taskId")
	if !ok {
		return
	}
	if err := h.service.CancelTask(c.Request.Context(), id); err != nil {
		h.serviceError(c, "Failed to cancel task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Task cancelled successfully",
		"taskId":  id,
	})
}

// Results lists the persisted relevance results of a search.
func (h *RelevanceHandler) Results(c *gin.Context) {
	id, ok := h.pathID(c, "searchResultId")
	if !ok {
		return
	}
	items, err := h.service.Results(c.Request.Context(), id)
	if err != nil {
		h.serviceError(c, "Failed to get results", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"searchResultId": id, "results": items})
}

// History suggests earlier searches similar to ?query= for ?grade=.
func (h *RelevanceHandler) History(c *gin.Context) {
	query, grade := c.Query("query"), c.Query("grade")
	if result := h.validator.ValidateSearch(query, grade); !result.IsValid {
		h.invalid(c, result)
		return
	}
	history, err := h.service.History(c.Request.Context(), query, grade)
	if err != nil {
		h.serviceError(c, "Failed to get history", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

func (h *RelevanceHandler) pathID(c *gin.Context, name string) (string, bool) {
	id := c.Param(name)
	if result := h.validator.ValidateID(name, id); !result.IsValid {
		h.invalid(c, result)
		return "", false
	}
	return id, true
}

func (h *RelevanceHandler) invalid(c *gin.Context, result *validator.ValidationResult) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   result.Error(),
		Message: "Invalid request",
		Details: result.Errors,
	})
}

func (h *RelevanceHandler) serviceError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, relevance.ErrInvalidQuery):
		status = http.StatusBadRequest
	case errors.Is(err, relevance.ErrSearchNotFound),
		errors.Is(err, relevance.ErrNoResults),
		errors.Is(err, queue.ErrStatusNotFound):
		status = http.StatusNotFound
	case errors.Is(err, search.ErrSearchFailed):
		status = http.StatusBadGateway
	}
	h.handleError(c, status, message, err)
}

func (h *RelevanceHandler) handleError(c *gin.Context, status int, message string, err error) {
	fields := []logger.Field{
		logger.String("path", c.Request.URL.Path),
		logger.Int("status", status),
	}
	if err != nil {
		fields = append(fields, logger.Error(err))
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error(message, fields...)
	} else {
		h.logger.Warn(message, fields...)
	}

	response := ErrorResponse{Message: message}
	if err != nil {
		response.Error = err.Error()
	}
	c.JSON(status, response)
}
