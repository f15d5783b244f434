// Package testdb provides SurrealDB test databases for repository tests.
//
// Each TestDB gets its own namespace with the migrations applied. When no
// SurrealDB instance is reachable the test is skipped, so `go test ./...`
// stays green on machines without a database.
//
//	func TestSomething(t *testing.T) {
//	    tdb := testdb.New(t)
//	    defer tdb.Close()
//
//	    result, err := tdb.DB.Query(tdb.Ctx(), "SELECT * FROM user", nil)
//	}
package testdb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/forgo/herald/internal/database"
)

// TestDB provides an isolated database environment for testing
type TestDB struct {
	DB        database.Database
	Namespace string
	Database  string
	t         *testing.T
}

var (
	migrationOnce sync.Once
	migrations    []string
	migrationErr  error

	counterMu sync.Mutex
	counter   int64
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getTestConfig returns database config from TEST_DB_* variables
func getTestConfig() database.Config {
	return database.Config{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "8000"),
		User:     envOr("TEST_DB_USER", "root"),
		Password: envOr("TEST_DB_PASSWORD", "root"),
	}
}

func uniqueNamespace() string {
	counterMu.Lock()
	defer counterMu.Unlock()
	counter++
	return fmt.Sprintf("test_%d_%d", time.Now().UnixNano(), counter)
}

// findMigrationDir walks up from the package directory looking for
// migrations/, falling back to $HERALD_ROOT/migrations
func findMigrationDir() string {
	for _, p := range []string{
		"migrations",
		"../migrations",
		"../../migrations",
		"../../../migrations",
		"../../../../migrations",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	if root := os.Getenv("HERALD_ROOT"); root != "" {
		return filepath.Join(root, "migrations")
	}
	return ""
}

// loadMigrations reads every .surql file in lexical order
func loadMigrations() ([]string, error) {
	migrationOnce.Do(func() {
		dir := findMigrationDir()
		if dir == "" {
			migrationErr = fmt.Errorf("could not find migrations directory")
			return
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			migrationErr = fmt.Errorf("reading migrations dir: %w", err)
			return
		}

		var files []string
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".surql") {
				files = append(files, e.Name())
			}
		}
		sort.Strings(files)

		for _, name := range files {
			content, err := os.ReadFile(filepath.Join(dir, name))
			if err != nil {
				migrationErr = fmt.Errorf("reading %s: %w", name, err)
				return
			}
			migrations = append(migrations, string(content))
		}
	})
	return migrations, migrationErr
}

// New connects to SurrealDB in a fresh namespace and applies migrations.
// The test is skipped when the database cannot be reached.
func New(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("testdb: skipping database test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := getTestConfig()
	cfg.Namespace = uniqueNamespace()
	cfg.Database = "test"

	db := database.NewSurrealDB(cfg)
	if err := db.Connect(ctx); err != nil {
		t.Skipf("testdb: SurrealDB not available at %s: %v", db.Endpoint(), err)
	}

	tdb := &TestDB{
		DB:        db,
		Namespace: cfg.Namespace,
		Database:  cfg.Database,
		t:         t,
	}

	migs, err := loadMigrations()
	if err != nil {
		_ = db.Close()
		t.Fatalf("testdb: failed to load migrations: %v", err)
	}
	for i, mig := range migs {
		if err := db.Execute(ctx, mig, nil); err != nil {
			_ = db.Close()
			t.Fatalf("testdb: migration %d failed: %v", i+1, err)
		}
	}

	return tdb
}

// Close removes the test namespace and closes the connection
func (tdb *TestDB) Close() {
	if tdb.DB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = tdb.DB.Execute(ctx, fmt.Sprintf("REMOVE NAMESPACE %s", tdb.Namespace), nil)
	_ = tdb.DB.Close()
}

// Ctx returns a context bounded for a single test operation
func (tdb *TestDB) Ctx() context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	tdb.t.Cleanup(cancel)
	return ctx
}

// MustExec executes a query and fails the test on error
func (tdb *TestDB) MustExec(query string, vars map[string]interface{}) {
	tdb.t.Helper()
	if err := tdb.DB.Execute(tdb.Ctx(), query, vars); err != nil {
		tdb.t.Fatalf("testdb: exec failed: %v\nQuery: %s", err, query)
	}
}

// MustQuery executes a query and returns results, failing the test on error
func (tdb *TestDB) MustQuery(query string, vars map[string]interface{}) []interface{} {
	tdb.t.Helper()
	results, err := tdb.DB.Query(tdb.Ctx(), query, vars)
	if err != nil {
		tdb.t.Fatalf("testdb: query failed: %v\nQuery: %s", err, query)
	}
	return results
}
