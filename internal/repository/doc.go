// Package repository implements the data access layer for the Herald API.
//
// Each repository wraps a database.Database and maps SurrealDB records to
// model structs:
//
//   - UserRepository: members who connected a LinkedIn account
//   - PublishLogRepository: one row per publish attempt
//
// # Query Patterns
//
//   - Parameterized queries with $variable syntax
//   - type::record() for record IDs passed in from callers
//   - <datetime> casts for times sent as RFC 3339 strings
//   - time::now() for server-side timestamps
//
// # Missing Records
//
// Single-record lookups return (nil, nil) when nothing matches so services
// can decide whether absence is an error.
package repository
