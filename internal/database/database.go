package database

import (
	"context"
	"errors"
)

// Standard errors for database operations.
// Use errors.Is() to check these error types in calling code.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate indicates a unique index violation (e.g. a second user
	// with the same email).
	ErrDuplicate = errors.New("duplicate record")

	// ErrConnection indicates a failure to connect to or talk to SurrealDB.
	ErrConnection = errors.New("database connection error")

	// ErrQuery indicates a statement failed to execute.
	ErrQuery = errors.New("query error")
)

// Database is the data access surface repositories depend on
type Database interface {
	Connect(ctx context.Context) error
	Close() error
	Ping(ctx context.Context) error

	// Query executes one or more statements and returns one
	// {"status", "result"} map per statement.
	Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error)

	// QueryOne returns the first record of the first statement, or
	// ErrNotFound when it selected nothing.
	QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error)

	// Execute runs statements whose results are not needed
	Execute(ctx context.Context, query string, vars map[string]interface{}) error
}

// Config holds database configuration
type Config struct {
	Host      string
	Port      string
	User      string
	Password  string
	Namespace string
	Database  string
}
