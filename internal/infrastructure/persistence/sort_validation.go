package persistence

import (
	"strings"
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

// EmployeeSortFields contains allowed sort fields for employees
var EmployeeSortFields = map[string]bool{
	"id":         true,
	"name":       true,
	"email":      true,
	"department": true,
	"status":     true,
	"joined_at":  true,
	"created_at": true,
}

// orderClause builds a whitelisted ORDER BY expression
func orderClause(field, dir string, allowed map[string]bool, defaultField, defaultDir string) string {
	if strings.TrimSpace(dir) == "" {
		dir = defaultDir
	}
	return ValidateSortField(field, allowed, defaultField) + " " + ValidateSortOrder(dir)
}
