package validator

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
)

// ValidatorConfig bounds what a search request may contain.
type ValidatorConfig struct {
	MaxQueryLength int
	MaxGradeLength int
	// AllowedGrades restricts grades when non-empty.
	AllowedGrades []string
}

// ValidationError describes one rejected field.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type ValidationResult struct {
	IsValid bool              `json:"isValid"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

func (r *ValidationResult) add(code, field, format string, args ...interface{}) {
	r.IsValid = false
	r.Errors = append(r.Errors, ValidationError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Field:   field,
	})
}

// Error joins the messages of a failed result.
func (r *ValidationResult) Error() string {
	msgs := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		msgs[i] = e.Message
	}
	return strings.Join(msgs, "; ")
}

type RequestValidator struct {
	config *ValidatorConfig
	grades map[string]bool
}

func NewRequestValidator(config *ValidatorConfig) *RequestValidator {
	if config == nil {
		config = &ValidatorConfig{}
	}
	if config.MaxQueryLength <= 0 {
		config.MaxQueryLength = 256
	}
	if config.MaxGradeLength <= 0 {
		config.MaxGradeLength = 32
	}
	grades := make(map[string]bool, len(config.AllowedGrades))
	for _, g := range config.AllowedGrades {
		grades[strings.ToLower(g)] = true
	}
	return &RequestValidator{config: config, grades: grades}
}

// ValidateSearch checks a query text and grade.
func (v *RequestValidator) ValidateSearch(query, grade string) *ValidationResult {
	result := &ValidationResult{IsValid: true}
	query, grade = strings.TrimSpace(query), strings.TrimSpace(grade)

	switch {
	case query == "":
		result.add("MISSING_QUERY", "query", "query is required")
	case utf8.RuneCountInString(query) > v.config.MaxQueryLength:
		result.add("QUERY_TOO_LONG", "query", "query exceeds %d characters", v.config.MaxQueryLength)
	}

	switch {
	case grade == "":
		result.add("MISSING_GRADE", "grade", "grade is required")
	case utf8.RuneCountInString(grade) > v.config.MaxGradeLength:
		result.add("GRADE_TOO_LONG", "grade", "grade exceeds %d characters", v.config.MaxGradeLength)
	case len(v.grades) > 0 && !v.grades[strings.ToLower(grade)]:
		result.add("INVALID_GRADE", "grade", "grade %q is not supported", grade)
	}

	return result
}

// ValidateID checks that id is a UUID as issued by the store and the queue.
func (v *RequestValidator) ValidateID(field, id string) *ValidationResult {
	result := &ValidationResult{IsValid: true}
	if strings.TrimSpace(id) == "" {
		result.add("MISSING_ID", field, "%s is required", field)
		return result
	}
	if _, err := uuid.Parse(id); err != nil {
		result.add("INVALID_ID", field, "%s is not a valid id", field)
	}
	return result
}
