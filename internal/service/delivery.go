package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/forgo/herald/internal/metrics"
	"github.com/forgo/herald/internal/model"
)

// PublishLogRepository stores publish history
type PublishLogRepository interface {
	Append(ctx context.Context, record *model.PublishRecord) error
	ListRecent(ctx context.Context, limit int) ([]*model.PublishRecord, error)
	ListByPost(ctx context.Context, postID string) ([]*model.PublishRecord, error)
}

// historyWriteTimeout bounds a history append after the publish finished
const historyWriteTimeout = 5 * time.Second

// DeliveryService performs one publish attempt for a post and records it.
// It is shared by immediate posting and the scheduled dispatcher.
type DeliveryService struct {
	gateway PostingGateway
	history PublishLogRepository
	timeout time.Duration
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// DeliveryServiceConfig holds configuration for the delivery service
type DeliveryServiceConfig struct {
	Gateway PostingGateway
	History PublishLogRepository
	// Timeout bounds each publish call; zero means no deadline.
	Timeout time.Duration
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// NewDeliveryService creates a new delivery service
func NewDeliveryService(cfg DeliveryServiceConfig) *DeliveryService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &DeliveryService{
		gateway: cfg.Gateway,
		history: cfg.History,
		timeout: cfg.Timeout,
		logger:  logger,
		metrics: cfg.Metrics,
		now:     time.Now,
	}
}

// Supports reports whether posts for platform can be delivered
func (s *DeliveryService) Supports(platform model.Platform) bool {
	return s.gateway.Supports(platform)
}

// RequiresCredential reports whether platform needs a member access token
func (s *DeliveryService) RequiresCredential(platform model.Platform) bool {
	return s.gateway.RequiresCredential(platform)
}

// Deliver publishes post once. fireAt is the scheduled instant for
// dispatcher deliveries and nil for immediate ones. History write failures
// are logged and never change the result.
func (s *DeliveryService) Deliver(ctx context.Context, post model.ScheduledPost, mode string, fireAt *time.Time) error {
	pubCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		pubCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := s.now()
	err := s.gateway.Publish(pubCtx, post.Platform, post.Credential, post.Content, post.Target)
	s.metrics.ObservePublish(string(post.Platform), mode, err, s.now().Sub(start))

	s.record(ctx, post, mode, fireAt, err)
	return err
}

func (s *DeliveryService) record(ctx context.Context, post model.ScheduledPost, mode string, fireAt *time.Time, pubErr error) {
	if s.history == nil {
		return
	}

	rec := &model.PublishRecord{
		PostID:      post.ID,
		Platform:    post.Platform,
		Target:      post.Target.String(),
		Outcome:     model.PublishOutcomeSuccess,
		Scheduled:   mode == metrics.ModeScheduled,
		FireAt:      fireAt,
		AttemptedAt: s.now().UTC(),
	}
	if pubErr != nil {
		msg := pubErr.Error()
		rec.Outcome = model.PublishOutcomeFailed
		rec.Error = &msg
	}

	hctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyWriteTimeout)
	defer cancel()
	if err := s.history.Append(hctx, rec); err != nil {
		s.logger.Warn("failed to record publish attempt",
			"post_id", post.ID,
			"platform", post.Platform,
			"error", err,
		)
	}
}

// History returns the most recent publish attempts, newest first
func (s *DeliveryService) History(ctx context.Context, limit int) ([]*model.PublishRecord, error) {
	if s.history == nil {
		return []*model.PublishRecord{}, nil
	}
	if limit <= 0 {
		limit = model.DefaultHistoryLimit
	}
	if limit > model.MaxHistoryLimit {
		limit = model.MaxHistoryLimit
	}
	return s.history.ListRecent(ctx, limit)
}

// PostHistory returns every attempt for one post, oldest first
func (s *DeliveryService) PostHistory(ctx context.Context, postID string) ([]*model.PublishRecord, error) {
	if s.history == nil {
		return []*model.PublishRecord{}, nil
	}
	return s.history.ListByPost(ctx, postID)
}
