package persistence

import (
	"fmt"
	"strings"

	"github.com/schoolmgmt/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed
// fields. Returns the defaultField if the input is not whitelisted.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" || !allowedFields[trimmed] {
		return defaultField
	}
	return trimmed
}

// PaymentSortFields contains allowed sort fields for payments
var PaymentSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"student_id":   true,
	"group_id":     true,
	"amount_paid":  true,
	"status":       true,
	"payment_date": true,
}

// AuditSortFields contains allowed sort fields for audit entries
var AuditSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"action":     true,
}

// applyFilter applies whitelisted ordering and pagination to a query
func applyFilter(query *gorm.DB, filter shared.Filter, allowedFields map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowedFields, defaultField)
	dir := ValidateSortOrder(filter.OrderDir)
	query = query.Order(fmt.Sprintf("%s %s", field, dir))

	if filter.PageSize > 0 {
		offset := 0
		if filter.Page > 1 {
			offset = (filter.Page - 1) * filter.PageSize
		}
		query = query.Offset(offset).Limit(filter.PageSize)
	}
	return query
}
