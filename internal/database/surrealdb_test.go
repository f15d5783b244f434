package database

import (
	"context"
	"errors"
	"testing"
)

func TestSurrealDB_Endpoint(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host, port, want string
	}{
		{"localhost", "8000", "ws://localhost:8000"},
		{"db.internal", "443", "ws://db.internal:443"},
		{"::1", "8000", "ws://[::1]:8000"},
	}
	for _, tt := range tests {
		db := NewSurrealDB(Config{Host: tt.host, Port: tt.port})
		if got := db.Endpoint(); got != tt.want {
			t.Errorf("Endpoint() = %q, want %q", got, tt.want)
		}
	}
}

func TestSurrealDB_Unconnected(t *testing.T) {
	t.Parallel()

	db := NewSurrealDB(Config{})
	ctx := context.Background()

	if err := db.Ping(ctx); !errors.Is(err, ErrConnection) {
		t.Errorf("Ping() error = %v, want ErrConnection", err)
	}
	if _, err := db.Query(ctx, "SELECT * FROM user", nil); !errors.Is(err, ErrConnection) {
		t.Errorf("Query() error = %v, want ErrConnection", err)
	}
	if _, err := db.QueryOne(ctx, "SELECT * FROM user", nil); !errors.Is(err, ErrConnection) {
		t.Errorf("QueryOne() error = %v, want ErrConnection", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("Close() on unconnected db = %v, want nil", err)
	}
}

func TestClassifyQueryError(t *testing.T) {
	t.Parallel()

	dup := classifyQueryError("Database index `user_email` already contains 'a@b.test', with record `user:x`")
	if !errors.Is(dup, ErrDuplicate) {
		t.Errorf("unique index violation = %v, want ErrDuplicate", dup)
	}

	other := classifyQueryError("Parse error: unexpected token")
	if !errors.Is(other, ErrQuery) || errors.Is(other, ErrDuplicate) {
		t.Errorf("parse error = %v, want ErrQuery only", other)
	}
}
