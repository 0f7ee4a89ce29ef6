package persistence

import (
	"strings"

	"github.com/crm/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"email":      true,
	"city":       true,
	"country":    true,
	"status":     true,
}

// LeadSortFields contains allowed sort fields for leads
var LeadSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"first_name":      true,
	"last_name":       true,
	"company_name":    true,
	"status":          true,
	"rating":          true,
	"score":           true,
	"estimated_value": true,
}

// OpportunitySortFields contains allowed sort fields for opportunities
var OpportunitySortFields = map[string]bool{
	"id":                  true,
	"created_at":          true,
	"updated_at":          true,
	"name":                true,
	"amount":              true,
	"probability":         true,
	"status":              true,
	"expected_close_date": true,
}

// paginate applies validated ordering plus offset/limit from filter
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	orderBy := ValidateSortField(filter.OrderBy, allowed, "created_at")
	orderDir := ValidateSortOrder(filter.OrderDir)
	return query.
		Order(orderBy + " " + orderDir).
		Order("id " + orderDir).
		Offset(filter.Offset()).
		Limit(filter.Limit())
}

// searchPattern builds a case-insensitive LIKE pattern. LOWER(...) LIKE is
// used instead of ILIKE so the same query runs on PostgreSQL and SQLite.
func searchPattern(search string) string {
	return "%" + strings.ToLower(strings.TrimSpace(search)) + "%"
}
