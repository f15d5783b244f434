package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/herald/internal/metrics"
	"github.com/forgo/herald/internal/model"
	"github.com/forgo/herald/internal/scheduler"
)

// AnonymousUserID is reported when the requester is not a known member
const AnonymousUserID = "anonymous"

// ValidationError carries field-level problems with a generation request
type ValidationError struct {
	Fields []model.FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrInvalidRequest.Error()
	}
	return fmt.Sprintf("%s: %s: %s", ErrInvalidRequest, e.Fields[0].Field, e.Fields[0].Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// PostScheduler is the part of the scheduler store the orchestrator uses
type PostScheduler interface {
	Register(post model.ScheduledPost, fireAt time.Time) string
	Cancel(id string) bool
	Pending() []scheduler.Entry
}

// Deliverer performs one publish attempt
type Deliverer interface {
	Supports(platform model.Platform) bool
	RequiresCredential(platform model.Platform) bool
	Deliver(ctx context.Context, post model.ScheduledPost, mode string, fireAt *time.Time) error
}

// MarketingService generates content and then publishes it now or hands it
// to the scheduler.
type MarketingService struct {
	generator ContentGenerator
	delivery  Deliverer
	scheduler PostScheduler
	clock     scheduler.Clock
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// MarketingServiceConfig holds configuration for the marketing service
type MarketingServiceConfig struct {
	Generator ContentGenerator
	Delivery  Deliverer
	Scheduler PostScheduler
	Clock     scheduler.Clock
	Logger    *slog.Logger
	Metrics   *metrics.Metrics
}

// NewMarketingService creates a new marketing service
func NewMarketingService(cfg MarketingServiceConfig) *MarketingService {
	s := &MarketingService{
		generator: cfg.Generator,
		delivery:  cfg.Delivery,
		scheduler: cfg.Scheduler,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
	if s.clock == nil {
		s.clock = scheduler.SystemClock{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// GenerateInput is a generation request plus caller identity
type GenerateInput struct {
	Request    *model.GenerateRequest
	Credential string
	UserID     string
}

// Generate validates the request, generates content and either schedules
// or publishes it. Publish failures do not fail the call; they are reported
// in the response with status POST_FAILED.
func (s *MarketingService) Generate(ctx context.Context, in GenerateInput) (*model.GenerateResponse, error) {
	req := in.Request
	now := s.clock.Now()
	platform := model.NormalizePlatform(req.Platform)

	fields := req.Validate(now)
	if req.Schedule != nil && platform != "" && !s.delivery.Supports(platform) {
		fields = append(fields, model.FieldError{
			Field:   "platform",
			Message: fmt.Sprintf("Scheduled posting is not supported for platform '%s'.", req.Platform),
		})
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	credential := strings.TrimSpace(in.Credential)
	if credential == "" {
		credential = strings.TrimSpace(req.AccessToken)
	}
	if credential == "" && s.delivery.RequiresCredential(platform) {
		return nil, ErrMissingCredential
	}

	loc := s.resolveLocation(req.Timezone)

	raw, err := s.generator.Generate(ctx, req)
	if err != nil {
		s.metrics.IncGeneration(metrics.GenerationError)
		if errors.Is(err, ErrGenerationFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	content, ok := ParseGeneratedContent(raw)
	resp := &model.GenerateResponse{
		GeneratedContent: content,
		PostID:           uuid.New().String(),
		RequestID:        uuid.New().String(),
		UserID:           in.UserID,
		Platform:         req.Platform,
		PostType:         req.ContentType,
		CreatedAt:        now.In(loc).Format(time.RFC3339),
		AIModel:          s.generator.Model(),
		PlatformOptions: model.PlatformOptions{
			Visibility:    model.VisibilityPublic,
			ContentFormat: req.ContentType,
		},
	}
	if resp.UserID == "" {
		resp.UserID = AnonymousUserID
	}
	if ok {
		s.metrics.IncGeneration(metrics.GenerationOK)
	} else {
		s.metrics.IncGeneration(metrics.GenerationFallback)
		resp.AddError(ParseFailedMarker)
		s.logger.Warn("generator returned non-JSON output", "request_id", resp.RequestID)
	}

	post := model.ScheduledPost{
		ID:         resp.PostID,
		Content:    content.Content,
		Platform:   platform,
		Credential: credential,
		Target:     req.Target(),
		UserID:     in.UserID,
		CreatedAt:  now.UTC(),
	}

	if req.Schedule != nil {
		post.Frequency = model.Frequency(req.Schedule.Frequency)
		fireAt := req.Schedule.DateTime.UTC()
		s.scheduler.Register(post, fireAt)
		s.metrics.IncScheduled(string(platform), string(post.Frequency))
		s.logger.Info("post scheduled",
			"post_id", post.ID,
			"platform", platform,
			"frequency", post.Frequency,
			"target", post.Target.String(),
			"fire_at", fireAt,
		)

		resp.Status = model.PostStatusScheduled
		resp.Schedule = req.Schedule
		resp.PostedTime = nil
		return resp, nil
	}

	post.Frequency = model.FrequencyOnce
	if err := s.delivery.Deliver(ctx, post, metrics.ModeImmediate, nil); err != nil {
		s.logger.Error("immediate publish failed",
			"post_id", post.ID,
			"platform", platform,
			"error", err,
		)
		resp.Status = model.PostStatusPostFailed
		resp.AddError(publishFailureDetail(platform, err))
		return resp, nil
	}

	postedAt := s.clock.Now().In(loc).Format(time.RFC3339)
	resp.Status = model.PostStatusPostedImmediately
	resp.PostedTime = &postedAt
	return resp, nil
}

func publishFailureDetail(platform model.Platform, err error) string {
	var pubErr *PublishError
	if errors.As(err, &pubErr) {
		return pubErr.Detail()
	}
	return fmt.Sprintf("%s post failed: %v", platform.DisplayName(), err)
}

// resolveLocation loads the requester's zone, falling back to UTC
func (s *MarketingService) resolveLocation(tz string) *time.Location {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.logger.Warn("invalid timezone, falling back to UTC", "timezone", tz)
		return time.UTC
	}
	return loc
}

// ListScheduled returns pending posts ordered by fire time, without
// credentials
func (s *MarketingService) ListScheduled() []model.PendingPost {
	entries := s.scheduler.Pending()
	out := make([]model.PendingPost, 0, len(entries))
	for _, e := range entries {
		out = append(out, model.PendingPost{
			PostID:    e.Post.ID,
			Platform:  e.Post.Platform,
			Frequency: e.Post.Frequency,
			Target:    e.Post.Target.String(),
			FireAt:    e.FireAt,
			Preview:   e.Post.Preview(),
			UserID:    e.Post.UserID,
		})
	}
	return out
}

// CancelScheduled stops a pending or recurring post
func (s *MarketingService) CancelScheduled(postID string) error {
	if !s.scheduler.Cancel(postID) {
		return ErrScheduledPostNotFound
	}
	s.metrics.IncCancelled()
	s.logger.Info("scheduled post cancelled", "post_id", postID)
	return nil
}
