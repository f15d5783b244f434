// Package helpers provides test utility functions for the Herald API.
//
// # Request Helpers
//
// Build and serve requests against a handler:
//
//	rec := helpers.NewRequest(t, http.MethodPost, "/api/generate").
//	    WithBearer("member-token").
//	    WithBody(req).
//	    Do(mux)
//
// # Assertion Helpers
//
//	helpers.AssertStatus(t, rec, http.StatusOK)
//	helpers.AssertProblemDetails(t, rec, http.StatusUnauthorized, model.ErrCodeMissingCredential)
//	helpers.AssertValidationError(t, rec, "schedule.dateTime")
package helpers
