package validator

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestValidateSearch(t *testing.T) {
	v := NewRequestValidator(nil)

	tests := []struct {
		name  string
		query string
		grade string
		codes []string
	}{
		{name: "valid", query: "photosynthesis", grade: "7"},
		{name: "missing query", query: "  ", grade: "7", codes: []string{"MISSING_QUERY"}},
		{name: "missing both", codes: []string{"MISSING_QUERY", "MISSING_GRADE"}},
		{name: "long query", query: strings.Repeat("a", 257), grade: "7", codes: []string{"QUERY_TOO_LONG"}},
		{name: "long grade", query: "cells", grade: strings.Repeat("9", 33), codes: []string{"GRADE_TOO_LONG"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := v.ValidateSearch(tt.query, tt.grade)
			assert.Equal(t, len(tt.codes) == 0, result.IsValid)
			codes := make([]string, 0)
			for _, e := range result.Errors {
				codes = append(codes, e.Code)
			}
			if len(tt.codes) == 0 {
				assert.Empty(t, codes)
			} else {
				assert.Equal(t, tt.codes, codes)
			}
		})
	}
}

func TestValidateSearchAllowedGrades(t *testing.T) {
	v := NewRequestValidator(&ValidatorConfig{AllowedGrades: []string{"K", "1", "2"}})

	assert.True(t, v.ValidateSearch("shapes", "k").IsValid)
	result := v.ValidateSearch("shapes", "12")
	assert.False(t, result.IsValid)
	assert.Equal(t, `grade "12" is not supported`, result.Error())
}

func TestValidateID(t *testing.T) {
	v := NewRequestValidator(nil)

	assert.True(t, v.ValidateID("taskId", uuid.NewString()).IsValid)

	result := v.ValidateID("searchResultId", "")
	assert.False(t, result.IsValid)
	assert.Equal(t, "MISSING_ID", result.Errors[0].Code)

	result = v.ValidateID("searchResultId", "not-an-id")
	assert.False(t, result.IsValid)
	assert.Equal(t, "searchResultId is not a valid id", result.Error())
}
