// Package testdb provides test database utilities for the Herald API.
//
// # Configuration
//
// Connection settings come from TEST_DB_HOST, TEST_DB_PORT, TEST_DB_USER
// and TEST_DB_PASSWORD (defaults localhost:8000 root/root). Migrations are
// read from the nearest migrations/ directory or $HERALD_ROOT/migrations.
//
// # Isolation
//
// Every New call uses a unique namespace that Close removes.
package testdb
