package database

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/surrealdb/surrealdb.go"
)

// SurrealDB implements Database over a single websocket connection
type SurrealDB struct {
	mu     sync.RWMutex
	db     *surrealdb.DB
	config Config
}

// NewSurrealDB creates a new, unconnected SurrealDB instance
func NewSurrealDB(cfg Config) *SurrealDB {
	return &SurrealDB{config: cfg}
}

// Endpoint returns the websocket URL the client dials
func (s *SurrealDB) Endpoint() string {
	return "ws://" + net.JoinHostPort(s.config.Host, s.config.Port)
}

// Connect dials SurrealDB, signs in and selects the namespace and database
func (s *SurrealDB) Connect(ctx context.Context) error {
	db, err := surrealdb.FromEndpointURLString(ctx, s.Endpoint())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}

	if _, err := db.SignIn(ctx, &surrealdb.Auth{
		Username: s.config.User,
		Password: s.config.Password,
	}); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: signin failed: %v", ErrConnection, err)
	}

	if err := db.Use(ctx, s.config.Namespace, s.config.Database); err != nil {
		_ = db.Close(ctx)
		return fmt.Errorf("%w: use %s/%s failed: %v", ErrConnection, s.config.Namespace, s.config.Database, err)
	}

	s.mu.Lock()
	s.db = db
	s.mu.Unlock()
	return nil
}

// Close closes the connection. It is safe to call on an unconnected instance.
func (s *SurrealDB) Close() error {
	s.mu.Lock()
	db := s.db
	s.db = nil
	s.mu.Unlock()

	if db == nil {
		return nil
	}
	return db.Close(context.Background())
}

func (s *SurrealDB) conn() (*surrealdb.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrConnection
	}
	return s.db, nil
}

// Ping checks the connection by asking for the server version
func (s *SurrealDB) Ping(ctx context.Context) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	if _, err := db.Version(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrConnection, err)
	}
	return nil
}

// Query implements Database
func (s *SurrealDB) Query(ctx context.Context, query string, vars map[string]interface{}) ([]interface{}, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	results, err := surrealdb.Query[interface{}](ctx, db, query, vars)
	if err != nil {
		return nil, classifyQueryError(err.Error())
	}
	if results == nil {
		return nil, nil
	}

	output := make([]interface{}, 0, len(*results))
	for _, r := range *results {
		if r.Status != "OK" {
			if r.Error != nil {
				return nil, classifyQueryError(r.Error.Message)
			}
			return nil, ErrQuery
		}
		output = append(output, map[string]interface{}{
			"status": r.Status,
			"result": r.Result,
		})
	}
	return output, nil
}

// classifyQueryError maps SurrealDB error text to the package errors
func classifyQueryError(msg string) error {
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "already contains") || strings.Contains(lower, "already exists") {
		return fmt.Errorf("%w: %s", ErrDuplicate, msg)
	}
	return fmt.Errorf("%w: %s", ErrQuery, msg)
}

// QueryOne implements Database
func (s *SurrealDB) QueryOne(ctx context.Context, query string, vars map[string]interface{}) (interface{}, error) {
	results, err := s.Query(ctx, query, vars)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotFound
	}

	resp, ok := results[0].(map[string]interface{})
	if !ok {
		return results[0], nil
	}
	switch data := resp["result"].(type) {
	case []interface{}:
		if len(data) == 0 {
			return nil, ErrNotFound
		}
		return data[0], nil
	case nil:
		return nil, ErrNotFound
	default:
		return data, nil
	}
}

// Execute implements Database
func (s *SurrealDB) Execute(ctx context.Context, query string, vars map[string]interface{}) error {
	_, err := s.Query(ctx, query, vars)
	return err
}
