package persistence

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateSortOrder(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"asc", "ASC"},
		{" ASC ", "ASC"},
		{"desc", "DESC"},
		{"", "DESC"},
		{"random", "DESC"},
		{"ASC; DROP TABLE leads", "DESC"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, ValidateSortOrder(tt.input))
		})
	}
}

func TestValidateSortField(t *testing.T) {
	assert.Equal(t, "score", ValidateSortField("score", LeadSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("", LeadSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("password_hash", LeadSortFields, "created_at"))
	assert.Equal(t, "created_at", ValidateSortField("name; DROP TABLE customers", CustomerSortFields, "created_at"))
}

func TestSortFieldsWhitelists(t *testing.T) {
	whitelists := map[string]map[string]bool{
		"common":      CommonSortFields,
		"customer":    CustomerSortFields,
		"lead":        LeadSortFields,
		"opportunity": OpportunitySortFields,
	}

	for name, fields := range whitelists {
		t.Run(name, func(t *testing.T) {
			assert.True(t, fields["id"])
			assert.True(t, fields["created_at"])
			for field := range fields {
				assert.NotContains(t, field, " ")
				assert.NotContains(t, field, ";")
			}
		})
	}
}

func TestSearchPattern(t *testing.T) {
	assert.Equal(t, "%acme%", searchPattern("  ACME "))
}
