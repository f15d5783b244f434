// Package model defines the data types shared by every layer of Herald.
//
//   - GenerateRequest / GenerateResponse: the body and reply of
//     POST /api/marketing/generate
//   - ScheduledPost and Schedule: a post waiting in the scheduler
//   - PublishRecord: one delivery attempt, persisted to publish_log
//   - User: a member who connected a LinkedIn account
//
// Errors returned to HTTP clients are RFC 9457 Problem Details (errors.go).
package model
