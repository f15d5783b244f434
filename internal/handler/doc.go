// Package handler provides HTTP request handlers for the Herald API.
//
// Handlers depend on small interfaces satisfied by the service layer so
// they can be tested with function-field mocks.
//
// # Response Format
//
//   - WriteJSON: raw JSON body, used for the generation envelope
//   - WriteCollection: list body with a count
//   - WriteError: RFC 9457 Problem Details (application/problem+json)
//
// Service errors are translated by MapServiceError.
//
// # Routes
//
//	POST   /api/marketing/generate
//	GET    /api/marketing/linkedin/auth
//	GET    /api/marketing/linkedin/callback
//	GET    /api/marketing/schedule             (operator key)
//	DELETE /api/marketing/schedule/{postId}    (operator key)
//	GET    /api/marketing/history              (operator key)
//	GET    /api/marketing/history/{postId}     (operator key)
package handler
