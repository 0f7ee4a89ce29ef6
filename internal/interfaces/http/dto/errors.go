package dto

import "net/http"

// Error codes produced by the HTTP layer itself. Domain errors keep their
// own codes (LEAD_NOT_FOUND, NO_ACTIVE_TENANT, ...).
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeUnauthenticated = "UNAUTHENTICATED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRateLimited     = "RATE_LIMITED"

	ErrCodeInvalidIdempotencyKey = "INVALID_IDEMPOTENCY_KEY"
	ErrCodeIdempotencyKeyReused  = "IDEMPOTENCY_KEY_REUSED"
	ErrCodeRequestInProgress     = "REQUEST_IN_PROGRESS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes.
// Codes missing from the map are answered with 500 and a generic message.
var ErrorCodeHTTPStatus = map[string]int{
	// Authentication and tenancy
	ErrCodeUnauthenticated: http.StatusUnauthorized,
	"INVALID_CREDENTIALS":  http.StatusUnauthorized,
	"ACCOUNT_LOCKED":       http.StatusUnauthorized,
	"ACCOUNT_DISABLED":     http.StatusUnauthorized,
	"NO_ACTIVE_TENANT":     http.StatusPreconditionRequired,
	ErrCodeForbidden:       http.StatusForbidden,

	// Missing resources
	ErrCodeNotFound:            http.StatusNotFound,
	"LEAD_NOT_FOUND":           http.StatusNotFound,
	"LEAD_SOURCE_NOT_FOUND":    http.StatusNotFound,
	"OPPORTUNITY_NOT_FOUND":    http.StatusNotFound,
	"PIPELINE_STAGE_NOT_FOUND": http.StatusNotFound,

	// Conflicts
	"LEAD_ALREADY_CONVERTED": http.StatusConflict,
	"CONCURRENCY_CONFLICT":   http.StatusConflict,
	"ALREADY_EXISTS":         http.StatusConflict,
	"USERNAME_TAKEN":         http.StatusConflict,
	"EMAIL_TAKEN":            http.StatusConflict,

	// Malformed or invalid input
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	"INVALID_INPUT":        http.StatusBadRequest,
	"INVALID_ENTITY_TYPE":  http.StatusBadRequest,
	"INVALID_LEAD_STATUS":  http.StatusBadRequest,
	"INVALID_RATING":       http.StatusBadRequest,
	"INVALID_CURRENCY":     http.StatusBadRequest,
	"INVALID_AMOUNT":       http.StatusBadRequest,
	"INVALID_PROBABILITY":  http.StatusBadRequest,
	"INVALID_LOCATION":     http.StatusBadRequest,
	"INVALID_EMAIL":        http.StatusBadRequest,
	"INVALID_PHONE":        http.StatusBadRequest,
	"INVALID_NAME":         http.StatusBadRequest,
	"INVALID_COMPANY_NAME": http.StatusBadRequest,
	"INVALID_USERNAME":     http.StatusBadRequest,
	"INVALID_PASSWORD":     http.StatusBadRequest,
	"INVALID_DISPLAY_NAME": http.StatusBadRequest,
	"INVALID_AGENT_NAME":   http.StatusBadRequest,
	"INVALID_EXPIRY":       http.StatusBadRequest,
	"INVALID_STAGE_KIND":   http.StatusBadRequest,
	"INVALID_IMPORT_FILE":  http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	"INVALID_STATE":        http.StatusUnprocessableEntity,
	"NO_PIPELINE_STAGES":   http.StatusUnprocessableEntity,
	"OPPORTUNITY_CLOSED":   http.StatusUnprocessableEntity,
	"INACTIVE_STAGE":       http.StatusUnprocessableEntity,
	"ALREADY_ACTIVE":       http.StatusUnprocessableEntity,
	"ALREADY_INACTIVE":     http.StatusUnprocessableEntity,
	"ALREADY_DEACTIVATED":  http.StatusUnprocessableEntity,
	"ALREADY_REVOKED":      http.StatusUnprocessableEntity,

	// Idempotent retries
	ErrCodeInvalidIdempotencyKey: http.StatusBadRequest,
	ErrCodeIdempotencyKeyReused:  http.StatusUnprocessableEntity,
	ErrCodeRequestInProgress:     http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not mapped.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsClientError reports whether code is mapped to a 4xx status
func IsClientError(code string) bool {
	status := GetHTTPStatus(code)
	return status >= 400 && status < 500
}
