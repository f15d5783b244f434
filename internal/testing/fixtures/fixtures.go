// Package fixtures provides test data factories for repository tests.
//
//	f := fixtures.New(tdb.DB)
//	user := f.CreateUser(t)
//	rec := f.CreatePublishRecord(t, fixtures.WithPostID("post-1"))
package fixtures

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/forgo/herald/internal/database"
	"github.com/forgo/herald/internal/model"
)

// Factory creates test entities in the database
type Factory struct {
	db database.Database
}

// New creates a new fixture factory
func New(db database.Database) *Factory {
	return &Factory{db: db}
}

// randomID generates a random hex ID
func randomID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func ctx(t *testing.T) context.Context {
	c, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return c
}

func firstRecord(t *testing.T, results []interface{}) map[string]interface{} {
	t.Helper()
	if len(results) > 0 {
		if resp, ok := results[0].(map[string]interface{}); ok {
			if rows, ok := resp["result"].([]interface{}); ok && len(rows) > 0 {
				if data, ok := rows[0].(map[string]interface{}); ok {
					return data
				}
			}
		}
	}
	t.Fatalf("fixtures: unexpected create result: %#v", results)
	return nil
}

func recordID(v interface{}) string {
	switch id := v.(type) {
	case string:
		return id
	case models.RecordID:
		return fmt.Sprintf("%s:%v", id.Table, id.ID)
	case *models.RecordID:
		return fmt.Sprintf("%s:%v", id.Table, id.ID)
	}
	return fmt.Sprintf("%v", v)
}

// ============================================================================
// User Fixtures
// ============================================================================

// UserOpts customizes user creation
type UserOpts struct {
	Email      string
	Name       string
	ProviderID string
}

// CreateUser creates a LinkedIn user with optional customizations
func (f *Factory) CreateUser(t *testing.T, opts ...func(*UserOpts)) *model.User {
	t.Helper()

	o := &UserOpts{
		Email:      fmt.Sprintf("user_%s@test.local", randomID()),
		Name:       "Test Owner",
		ProviderID: randomID(),
	}
	for _, fn := range opts {
		fn(o)
	}

	query := `
		CREATE user CONTENT {
			email: $email,
			name: $name,
			provider: "linkedin",
			provider_id: $provider_id,
			created_on: time::now(),
			updated_on: time::now()
		}
	`
	results, err := f.db.Query(ctx(t), query, map[string]interface{}{
		"email":       o.Email,
		"name":        o.Name,
		"provider_id": o.ProviderID,
	})
	if err != nil {
		t.Fatalf("fixtures: failed to create user: %v", err)
	}

	data := firstRecord(t, results)
	return &model.User{
		ID:         recordID(data["id"]),
		Email:      o.Email,
		Name:       o.Name,
		Provider:   model.AuthProviderLinkedIn,
		ProviderID: o.ProviderID,
	}
}

// WithEmail sets the fixture user's email
func WithEmail(email string) func(*UserOpts) {
	return func(o *UserOpts) { o.Email = email }
}

// ============================================================================
// Publish Log Fixtures
// ============================================================================

// PublishOpts customizes publish record creation
type PublishOpts struct {
	PostID      string
	Platform    model.Platform
	Outcome     model.PublishOutcome
	AttemptedAt time.Time
}

// WithPostID sets the record's post ID
func WithPostID(id string) func(*PublishOpts) {
	return func(o *PublishOpts) { o.PostID = id }
}

// AttemptedAt sets when the attempt happened
func AttemptedAt(at time.Time) func(*PublishOpts) {
	return func(o *PublishOpts) { o.AttemptedAt = at }
}

// CreatePublishRecord inserts a successful individual-target attempt
func (f *Factory) CreatePublishRecord(t *testing.T, opts ...func(*PublishOpts)) *model.PublishRecord {
	t.Helper()

	o := &PublishOpts{
		PostID:      "post-" + randomID(),
		Platform:    model.PlatformLinkedIn,
		Outcome:     model.PublishOutcomeSuccess,
		AttemptedAt: time.Now().UTC(),
	}
	for _, fn := range opts {
		fn(o)
	}

	query := `
		CREATE publish_log CONTENT {
			post_id: $post_id,
			platform: $platform,
			target: "individual",
			outcome: $outcome,
			scheduled: false,
			attempted_at: <datetime>$attempted_at
		}
	`
	results, err := f.db.Query(ctx(t), query, map[string]interface{}{
		"post_id":      o.PostID,
		"platform":     string(o.Platform),
		"outcome":      string(o.Outcome),
		"attempted_at": o.AttemptedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		t.Fatalf("fixtures: failed to create publish record: %v", err)
	}

	data := firstRecord(t, results)
	return &model.PublishRecord{
		ID:          recordID(data["id"]),
		PostID:      o.PostID,
		Platform:    o.Platform,
		Target:      "individual",
		Outcome:     o.Outcome,
		AttemptedAt: o.AttemptedAt.UTC(),
	}
}
