// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

// Machine-readable error codes. Clients branch on Code, never on Detail.
const (
	CodeNotFound   = "not_found"
	CodeValidation = "validation"
	CodeCollision  = "collision"
	CodeNoSpace    = "no_space"
	CodeStackFull  = "stack_full"
	CodeRateLimit  = "rate_limited"
	CodeInternal   = "internal"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

func New(code, msg string) *APIError {
	return &APIError{Detail: msg, Code: code}
}

// Internal is the only body a 500 ever carries.
func Internal() *APIError {
	return New(CodeInternal, "Internal server error")
}

// ValidationError wraps multiple field errors.
type ValidationError struct {
	Detail string            `json:"detail"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Detail: "Validation failed", Code: CodeValidation, Fields: fields}
}
