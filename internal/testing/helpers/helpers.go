// Package helpers provides common test utilities for handler and
// repository tests.
package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/forgo/herald/internal/database"
	"github.com/forgo/herald/internal/model"
)

// ============================================================================
// Request Helpers
// ============================================================================

// RequestBuilder helps construct HTTP requests for testing
type RequestBuilder struct {
	t       *testing.T
	method  string
	path    string
	body    interface{}
	rawBody *string
	headers map[string]string
}

// NewRequest creates a new request builder
func NewRequest(t *testing.T, method, path string) *RequestBuilder {
	t.Helper()
	return &RequestBuilder{
		t:       t,
		method:  method,
		path:    path,
		headers: make(map[string]string),
	}
}

// WithBody sets the request body (will be JSON encoded)
func (rb *RequestBuilder) WithBody(body interface{}) *RequestBuilder {
	rb.body = body
	return rb
}

// WithRawBody sets the request body verbatim, e.g. for malformed JSON
func (rb *RequestBuilder) WithRawBody(body string) *RequestBuilder {
	rb.rawBody = &body
	return rb
}

// WithHeader adds a header to the request
func (rb *RequestBuilder) WithHeader(key, value string) *RequestBuilder {
	rb.headers[key] = value
	return rb
}

// WithBearer sends a platform access token
func (rb *RequestBuilder) WithBearer(token string) *RequestBuilder {
	return rb.WithHeader("Authorization", "Bearer "+token)
}

// WithOperatorKey sends the schedule management key
func (rb *RequestBuilder) WithOperatorKey(key string) *RequestBuilder {
	return rb.WithHeader("X-Operator-Key", key)
}

// Build creates the HTTP request
func (rb *RequestBuilder) Build() *http.Request {
	rb.t.Helper()

	var bodyReader io.Reader
	switch {
	case rb.rawBody != nil:
		bodyReader = strings.NewReader(*rb.rawBody)
	case rb.body != nil:
		bodyBytes, err := json.Marshal(rb.body)
		if err != nil {
			rb.t.Fatalf("helpers: failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	req := httptest.NewRequest(rb.method, rb.path, bodyReader)
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range rb.headers {
		req.Header.Set(k, v)
	}
	return req
}

// Do builds the request and serves it with h
func (rb *RequestBuilder) Do(h http.Handler) *httptest.ResponseRecorder {
	rb.t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, rb.Build())
	return rec
}

// ============================================================================
// Response Assertion Helpers
// ============================================================================

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, resp *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if resp.Code != expected {
		t.Errorf("expected status %d, got %d. Body: %s", expected, resp.Code, resp.Body.String())
	}
}

// AssertProblemDetails validates an RFC 9457 Problem Details error response
func AssertProblemDetails(t *testing.T, resp *httptest.ResponseRecorder, expectedStatus int, expectedCode model.ErrorCode) *model.ProblemDetails {
	t.Helper()

	AssertStatus(t, resp, expectedStatus)

	if ct := resp.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Errorf("expected Content-Type application/problem+json, got %q", ct)
	}

	var problem model.ProblemDetails
	if err := json.Unmarshal(resp.Body.Bytes(), &problem); err != nil {
		t.Fatalf("failed to decode problem details: %v. Body: %s", err, resp.Body.String())
	}
	if problem.Status != expectedStatus {
		t.Errorf("expected problem.status %d, got %d", expectedStatus, problem.Status)
	}
	if expectedCode != 0 && problem.Code != expectedCode {
		t.Errorf("expected problem.code %d, got %d", expectedCode, problem.Code)
	}
	return &problem
}

// AssertValidationError checks for a 422 naming the given field
func AssertValidationError(t *testing.T, resp *httptest.ResponseRecorder, field string) {
	t.Helper()

	problem := AssertProblemDetails(t, resp, http.StatusUnprocessableEntity, model.ErrCodeValidation)
	for _, fe := range problem.Errors {
		if fe.Field == field {
			return
		}
	}
	t.Errorf("expected validation error on field %q, but not found. Errors: %+v", field, problem.Errors)
}

// DecodeResponse decodes the response body into the given struct
func DecodeResponse(t *testing.T, resp *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(resp.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to decode response: %v. Body: %s", err, resp.Body.String())
	}
}

// ============================================================================
// Database Assertion Helpers
// ============================================================================

// CountRecords returns the number of rows in table
func CountRecords(t *testing.T, db database.Database, table string) int {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	results, err := db.Query(ctx, "SELECT count() AS count FROM type::table($table) GROUP ALL", map[string]interface{}{
		"table": table,
	})
	if err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	if len(results) == 0 {
		return 0
	}
	resp, _ := results[0].(map[string]interface{})
	rows, _ := resp["result"].([]interface{})
	if len(rows) == 0 {
		return 0
	}
	row, _ := rows[0].(map[string]interface{})
	switch c := row["count"].(type) {
	case float64:
		return int(c)
	case int64:
		return int(c)
	case uint64:
		return int(c)
	case int:
		return c
	}
	return 0
}

// ============================================================================
// Utility Helpers
// ============================================================================

// StringPtr returns a pointer to the string
func StringPtr(s string) *string {
	return &s
}

// TimePtr returns a pointer to the time
func TimePtr(t time.Time) *time.Time {
	return &t
}
