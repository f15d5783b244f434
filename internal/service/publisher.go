package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"golang.org/x/time/rate"

	"github.com/forgo/herald/internal/metrics"
	"github.com/forgo/herald/internal/model"
)

// Publisher posts text to a single platform.
type Publisher interface {
	Platform() model.Platform
	// RequiresCredential reports whether Publish needs a member access token.
	RequiresCredential() bool
	Publish(ctx context.Context, credential, content string, target model.Target) error
}

// PostingGateway routes a publish call to the right platform.
type PostingGateway interface {
	Supports(platform model.Platform) bool
	RequiresCredential(platform model.Platform) bool
	Publish(ctx context.Context, platform model.Platform, credential, content string, target model.Target) error
}

// PublishError describes a failed publish. It matches ErrPublishFailed and
// its cause under errors.Is.
type PublishError struct {
	Platform model.Platform
	Cause    error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrPublishFailed, e.Platform, e.Cause)
}

func (e *PublishError) Unwrap() []error {
	return []error{ErrPublishFailed, e.Cause}
}

// Detail renders the failure for API responses, e.g.
// "LinkedIn post failed: status 401".
func (e *PublishError) Detail() string {
	return fmt.Sprintf("%s post failed: %v", e.Platform.DisplayName(), e.Cause)
}

// StatusError is a non-2xx answer from a platform API.
type StatusError struct {
	Platform   model.Platform
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	msg := string(e.Platform)
	if e.Op != "" {
		msg += ": " + e.Op
	}
	msg += fmt.Sprintf(": status %d", e.StatusCode)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Transient reports whether the platform itself is failing or throttling,
// as opposed to rejecting this particular request.
func (e *StatusError) Transient() bool {
	return e.StatusCode >= http.StatusInternalServerError || e.StatusCode == http.StatusTooManyRequests
}

// isOutage decides what the circuit breaker counts as a failure. Rejections
// tied to one member or one post (4xx, missing token, missing page id) pass
// through without tripping the platform breaker.
func isOutage(_ any, err error) bool {
	if err == nil {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	switch {
	case errors.Is(err, ErrMissingCredential), errors.Is(err, ErrPageIDRequired), errors.Is(err, context.Canceled):
		return false
	}
	return true
}

// Circuit breaker state values exported to metrics
const (
	breakerClosed   = 0
	breakerHalfOpen = 1
	breakerOpen     = 2
)

type guardedPublisher struct {
	pub     Publisher
	breaker circuitbreaker.CircuitBreaker[any]
}

// PublisherRouter is the PostingGateway used in production. Each platform
// gets its own circuit breaker, opened only by platform outages; all
// platforms share one outbound limiter.
// Failures are never retried.
type PublisherRouter struct {
	publishers map[model.Platform]*guardedPublisher
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// PublisherRouterConfig holds configuration for the router
type PublisherRouterConfig struct {
	Publishers []Publisher
	RatePerSec int

	// BreakerFailures of the last BreakerWindow calls open the breaker.
	BreakerFailures uint
	BreakerWindow   uint
	// BreakerDelay is how long the breaker stays open before probing.
	BreakerDelay time.Duration

	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// NewPublisherRouter creates a router over the given publishers
func NewPublisherRouter(cfg PublisherRouterConfig) *PublisherRouter {
	if cfg.BreakerWindow == 0 {
		cfg.BreakerWindow = 5
	}
	if cfg.BreakerFailures == 0 || cfg.BreakerFailures > cfg.BreakerWindow {
		cfg.BreakerFailures = 3
		if cfg.BreakerFailures > cfg.BreakerWindow {
			cfg.BreakerFailures = cfg.BreakerWindow
		}
	}
	if cfg.BreakerDelay <= 0 {
		cfg.BreakerDelay = time.Minute
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := &PublisherRouter{
		publishers: make(map[model.Platform]*guardedPublisher, len(cfg.Publishers)),
		logger:     logger,
		metrics:    cfg.Metrics,
	}
	if cfg.RatePerSec > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec)
	}

	for _, pub := range cfg.Publishers {
		if pub == nil {
			continue
		}
		platform := pub.Platform()
		breaker := circuitbreaker.NewBuilder[any]().
			WithFailureThresholdRatio(cfg.BreakerFailures, cfg.BreakerWindow).
			WithDelay(cfg.BreakerDelay).
			WithSuccessThreshold(1).
			HandleIf(isOutage).
			OnStateChanged(func(event circuitbreaker.StateChangedEvent) {
				from, to := breakerStateName(event.OldState), breakerStateName(event.NewState)
				logger.Warn("publisher circuit breaker state change",
					"platform", platform,
					"from_state", from,
					"to_state", to,
				)
				r.metrics.RecordBreakerTransition(string(platform), from, to, breakerStateValue(event.NewState))
			}).
			Build()
		r.publishers[platform] = &guardedPublisher{pub: pub, breaker: breaker}
	}
	return r
}

func breakerStateName(s circuitbreaker.State) string {
	switch s {
	case circuitbreaker.OpenState:
		return "open"
	case circuitbreaker.HalfOpenState:
		return "half-open"
	default:
		return "closed"
	}
}

func breakerStateValue(s circuitbreaker.State) float64 {
	switch s {
	case circuitbreaker.OpenState:
		return breakerOpen
	case circuitbreaker.HalfOpenState:
		return breakerHalfOpen
	default:
		return breakerClosed
	}
}

// Supports reports whether a publisher is registered for platform
func (r *PublisherRouter) Supports(platform model.Platform) bool {
	_, ok := r.publishers[platform]
	return ok
}

// RequiresCredential reports whether platform needs a member access token
func (r *PublisherRouter) RequiresCredential(platform model.Platform) bool {
	gp, ok := r.publishers[platform]
	return ok && gp.pub.RequiresCredential()
}

// Platforms lists the registered platforms
func (r *PublisherRouter) Platforms() []model.Platform {
	out := make([]model.Platform, 0, len(r.publishers))
	for p := range r.publishers {
		out = append(out, p)
	}
	return out
}

// Publish posts content through the platform's publisher. Every failure is
// returned as a *PublishError.
func (r *PublisherRouter) Publish(ctx context.Context, platform model.Platform, credential, content string, target model.Target) error {
	gp, ok := r.publishers[platform]
	if !ok {
		return &PublishError{Platform: platform, Cause: ErrPlatformNotSupported}
	}
	if gp.pub.RequiresCredential() && strings.TrimSpace(credential) == "" {
		return &PublishError{Platform: platform, Cause: ErrMissingCredential}
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return &PublishError{Platform: platform, Cause: fmt.Errorf("waiting for rate limiter: %w", err)}
		}
	}

	_, err := failsafe.With(gp.breaker).WithContext(ctx).Get(func() (any, error) {
		return nil, gp.pub.Publish(ctx, credential, content, target)
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return &PublishError{Platform: platform, Cause: ErrPublisherUnavailable}
	}
	return &PublishError{Platform: platform, Cause: err}
}
