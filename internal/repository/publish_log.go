package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/forgo/herald/internal/database"
	"github.com/forgo/herald/internal/model"
)

// PublishLogRepository stores one row per publish attempt
type PublishLogRepository struct {
	db database.Database
}

// NewPublishLogRepository creates a new publish log repository
func NewPublishLogRepository(db database.Database) *PublishLogRepository {
	return &PublishLogRepository{db: db}
}

// Append records a publish attempt and sets its ID
func (r *PublishLogRepository) Append(ctx context.Context, rec *model.PublishRecord) error {
	query := `
		CREATE publish_log CONTENT {
			post_id: $post_id,
			platform: $platform,
			target: $target,
			outcome: $outcome,
			error: IF $error IS NOT NULL THEN $error ELSE NONE END,
			scheduled: $scheduled,
			fire_at: IF $fire_at IS NOT NULL THEN <datetime>$fire_at ELSE NONE END,
			attempted_at: <datetime>$attempted_at
		}
	`
	vars := map[string]interface{}{
		"post_id":      rec.PostID,
		"platform":     string(rec.Platform),
		"target":       rec.Target,
		"outcome":      string(rec.Outcome),
		"error":        nil,
		"scheduled":    rec.Scheduled,
		"fire_at":      nil,
		"attempted_at": formatTime(rec.AttemptedAt),
	}
	if rec.Error != nil {
		vars["error"] = *rec.Error
	}
	if rec.FireAt != nil {
		vars["fire_at"] = formatTime(*rec.FireAt)
	}

	result, err := r.db.Query(ctx, query, vars)
	if err != nil {
		return fmt.Errorf("failed to append publish log: %w", err)
	}
	data, ok := firstRecord(result)
	if !ok {
		return errors.New("append publish log: no record returned")
	}
	rec.ID = extractRecordID(data["id"])
	return nil
}

// ListRecent returns up to limit attempts, newest first
func (r *PublishLogRepository) ListRecent(ctx context.Context, limit int) ([]*model.PublishRecord, error) {
	query := `
		SELECT * FROM publish_log
		ORDER BY attempted_at DESC
		LIMIT $limit
	`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("failed to list publish log: %w", err)
	}

	records := extractQueryResults(result)
	out := make([]*model.PublishRecord, 0, len(records))
	for _, item := range records {
		data, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		out = append(out, parsePublishRecord(data))
	}
	return out, nil
}

// ListByPost returns every attempt for one post, oldest first
func (r *PublishLogRepository) ListByPost(ctx context.Context, postID string) ([]*model.PublishRecord, error) {
	query := `SELECT * FROM publish_log WHERE post_id = $post_id ORDER BY attempted_at ASC`
	result, err := r.db.Query(ctx, query, map[string]interface{}{"post_id": postID})
	if err != nil {
		return nil, fmt.Errorf("failed to list publish log for post: %w", err)
	}

	records := extractQueryResults(result)
	out := make([]*model.PublishRecord, 0, len(records))
	for _, item := range records {
		if data, ok := item.(map[string]interface{}); ok {
			out = append(out, parsePublishRecord(data))
		}
	}
	return out, nil
}

func parsePublishRecord(data map[string]interface{}) *model.PublishRecord {
	return &model.PublishRecord{
		ID:          extractRecordID(data["id"]),
		PostID:      getString(data, "post_id"),
		Platform:    model.Platform(getString(data, "platform")),
		Target:      getString(data, "target"),
		Outcome:     model.PublishOutcome(getString(data, "outcome")),
		Error:       getStringPtr(data, "error"),
		Scheduled:   getBool(data, "scheduled"),
		FireAt:      getTime(data, "fire_at"),
		AttemptedAt: getTimeValue(data, "attempted_at"),
	}
}
