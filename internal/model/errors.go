package model

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ErrorCode represents API error codes
type ErrorCode int

const (
	// Authentication errors (1xxx)
	ErrCodeUnauthorized       ErrorCode = 1001
	ErrCodeMissingCredential  ErrorCode = 1002
	ErrCodeOperatorKeyInvalid ErrorCode = 1003

	// Authorization errors (2xxx)
	ErrCodeForbidden ErrorCode = 2001

	// Resource errors (3xxx)
	ErrCodeNotFound ErrorCode = 3001
	ErrCodeConflict ErrorCode = 3003

	// Validation errors (4xxx)
	ErrCodeValidation   ErrorCode = 4001
	ErrCodeInvalidInput ErrorCode = 4002
	ErrCodeRateLimited  ErrorCode = 4029

	// Internal errors (5xxx)
	ErrCodeInternal     ErrorCode = 5001
	ErrCodeDatabase     ErrorCode = 5002
	ErrCodeExternalAPI  ErrorCode = 5003
	ErrCodeNotAvailable ErrorCode = 5004
)

const problemTypeBase = "https://herald.forgo.software/errors/"

// ProblemDetails represents RFC 9457 Problem Details for HTTP APIs
type ProblemDetails struct {
	Type     string       `json:"type"`
	Title    string       `json:"title"`
	Status   int          `json:"status"`
	Detail   string       `json:"detail,omitempty"`
	Instance string       `json:"instance,omitempty"`
	Errors   []FieldError `json:"errors,omitempty"`
	// Extension fields
	Code       ErrorCode `json:"code,omitempty"`
	RetryAfter *int      `json:"retry_after,omitempty"`
}

// FieldError represents a validation error on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (p *ProblemDetails) Error() string {
	return fmt.Sprintf("[%d] %s: %s", p.Status, p.Title, p.Detail)
}

// WriteJSON writes the problem details as JSON response
func (p *ProblemDetails) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

func newProblem(slug, title string, status int, detail string, code ErrorCode) *ProblemDetails {
	return &ProblemDetails{
		Type:   problemTypeBase + slug,
		Title:  title,
		Status: status,
		Detail: detail,
		Code:   code,
	}
}

// Common error constructors

func NewUnauthorizedError(detail string) *ProblemDetails {
	return newProblem("unauthorized", "Unauthorized", http.StatusUnauthorized, detail, ErrCodeUnauthorized)
}

// NewMissingCredentialError is returned when a platform that needs a member
// token is requested without one.
func NewMissingCredentialError(platform string) *ProblemDetails {
	return newProblem("missing-credential", "Unauthorized", http.StatusUnauthorized,
		fmt.Sprintf("an access token is required to post to %s", platform), ErrCodeMissingCredential)
}

// NewOperatorKeyError is returned when the operator key header is missing
// or does not match.
func NewOperatorKeyError() *ProblemDetails {
	return newProblem("operator-key", "Unauthorized", http.StatusUnauthorized,
		"a valid X-Operator-Key header is required", ErrCodeOperatorKeyInvalid)
}

func NewForbiddenError(detail string) *ProblemDetails {
	return newProblem("forbidden", "Forbidden", http.StatusForbidden, detail, ErrCodeForbidden)
}

func NewNotFoundError(resource string) *ProblemDetails {
	return newProblem("not-found", "Not Found", http.StatusNotFound,
		fmt.Sprintf("%s not found", resource), ErrCodeNotFound)
}

func NewValidationError(errors []FieldError) *ProblemDetails {
	// Build detailed message from field errors
	detail := "One or more fields failed validation"
	if len(errors) > 0 {
		detail = fmt.Sprintf("%s: %s", errors[0].Field, errors[0].Message)
		if len(errors) > 1 {
			detail = fmt.Sprintf("%s (and %d more errors)", detail, len(errors)-1)
		}
	}
	p := newProblem("validation", "Validation Error", http.StatusUnprocessableEntity, detail, ErrCodeValidation)
	p.Errors = errors
	return p
}

func NewConflictError(detail string) *ProblemDetails {
	return newProblem("conflict", "Conflict", http.StatusConflict, detail, ErrCodeConflict)
}

func NewInternalError(detail string) *ProblemDetails {
	if detail == "" {
		detail = "An unexpected error occurred"
	}
	return newProblem("internal", "Internal Server Error", http.StatusInternalServerError, detail, ErrCodeInternal)
}

// NewBadGatewayError reports a failed call to an upstream API such as the
// content generator.
func NewBadGatewayError(detail string) *ProblemDetails {
	return newProblem("upstream", "Bad Gateway", http.StatusBadGateway, detail, ErrCodeExternalAPI)
}

func NewServiceUnavailableError(detail string) *ProblemDetails {
	return newProblem("unavailable", "Service Unavailable", http.StatusServiceUnavailable, detail, ErrCodeNotAvailable)
}

func NewBadRequestError(detail string) *ProblemDetails {
	return newProblem("bad-request", "Bad Request", http.StatusBadRequest, detail, ErrCodeInvalidInput)
}

func NewMethodNotAllowedError(allowed string) *ProblemDetails {
	return newProblem("method-not-allowed", "Method Not Allowed", http.StatusMethodNotAllowed,
		fmt.Sprintf("Only %s method is allowed", allowed), 0)
}

func NewRateLimitError(retryAfter int) *ProblemDetails {
	p := newProblem("rate-limited", "Too Many Requests", http.StatusTooManyRequests,
		fmt.Sprintf("Rate limit exceeded. Retry after %d seconds", retryAfter), ErrCodeRateLimited)
	p.RetryAfter = &retryAfter
	return p
}
