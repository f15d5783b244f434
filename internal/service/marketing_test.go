package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forgo/herald/internal/model"
	"github.com/forgo/herald/internal/scheduler"
)

// ============================================================================
// Test Helpers
// ============================================================================

var marketingNow = time.Date(2026, 4, 10, 8, 15, 30, 0, time.UTC)

type marketingFixture struct {
	svc       *MarketingService
	generator *mockGenerator
	gateway   *mockGateway
	history   *mockPublishLog
	store     *scheduler.Store
	clock     *fixedClock
}

func newMarketingFixture() *marketingFixture {
	f := &marketingFixture{
		generator: &mockGenerator{},
		gateway:   newMockGateway(),
		history:   &mockPublishLog{},
		store:     scheduler.NewStore(),
		clock:     &fixedClock{t: marketingNow},
	}
	delivery := NewDeliveryService(DeliveryServiceConfig{
		Gateway: f.gateway,
		History: f.history,
		Timeout: time.Second,
	})
	f.svc = NewMarketingService(MarketingServiceConfig{
		Generator: f.generator,
		Delivery:  delivery,
		Scheduler: f.store,
		Clock:     f.clock,
	})
	return f
}

func baseRequest() *model.GenerateRequest {
	return &model.GenerateRequest{
		BusinessName: "Acme Bakery",
		Industry:     "Food",
		Tone:         "warm",
		Platform:     "linkedin",
		UseCase:      "promotion",
		ContentType:  "post",
	}
}

func scheduleAt(t time.Time, freq string) *model.ScheduleRequest {
	return &model.ScheduleRequest{DateTime: &t, Frequency: freq}
}

// ============================================================================
// Validation
// ============================================================================

func TestMarketingService_Generate_PastScheduleRejectedBeforeGeneration(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()
	req := baseRequest()
	req.Schedule = scheduleAt(marketingNow.Add(-time.Hour), "once")

	resp, err := f.svc.Generate(context.Background(), GenerateInput{Request: req, Credential: "tok"})

	require.Error(t, err)
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrInvalidRequest)

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "schedule.dateTime", verr.Fields[0].Field)
	assert.Zero(t, f.generator.calls, "generator must not run for invalid requests")
	assert.Zero(t, f.store.Len())
}

func TestMarketingService_Generate_ScheduleUnsupportedPlatform(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()
	req := baseRequest()
	req.Platform = "myspace"
	req.Schedule = scheduleAt(marketingNow.Add(time.Hour), "daily")

	_, err := f.svc.Generate(context.Background(), GenerateInput{Request: req})

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "platform", verr.Fields[0].Field)
	assert.Zero(t, f.store.Len())
}

func TestMarketingService_Generate_LinkedInWithoutCredential(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()

	_, err := f.svc.Generate(context.Background(), GenerateInput{Request: baseRequest()})

	assert.ErrorIs(t, err, ErrMissingCredential)
	assert.Zero(t, f.generator.calls)
}

func TestMarketingService_Generate_CredentialFromBody(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()
	req := baseRequest()
	req.AccessToken = "body-token"

	resp, err := f.svc.Generate(context.Background(), GenerateInput{Request: req})

	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPostedImmediately, resp.Status)
	calls := f.gateway.published()
	require.Len(t, calls, 1)
	assert.Equal(t, "body-token", calls[0].credential)
}

// ============================================================================
// Immediate Publishing
// ============================================================================

func TestMarketingService_Generate_PostedImmediately(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()

	resp, err := f.svc.Generate(context.Background(), GenerateInput{
		Request:    baseRequest(),
		Credential: "tok",
		UserID:     "user:1",
	})

	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPostedImmediately, resp.Status)
	require.NotNil(t, resp.PostedTime)
	assert.Empty(t, resp.Error)
	assert.Equal(t, "Come taste our sourdough", resp.Content)
	assert.Equal(t, "Fresh bread", resp.Headline)
	assert.Equal(t, "user:1", resp.UserID)
	assert.Equal(t, "gemini-test", resp.AIModel)
	assert.Equal(t, model.PlatformOptions{Visibility: "PUBLIC", ContentFormat: "post"}, resp.PlatformOptions)
	assert.NotEmpty(t, resp.PostID)
	assert.NotEmpty(t, resp.RequestID)
	assert.NotEqual(t, resp.PostID, resp.RequestID)

	calls := f.gateway.published()
	require.Len(t, calls, 1)
	assert.Equal(t, model.PlatformLinkedIn, calls[0].platform)
	assert.Equal(t, "Come taste our sourdough", calls[0].content)
	assert.Equal(t, model.IndividualTarget(), calls[0].target)

	require.Len(t, f.history.records, 1)
	assert.Equal(t, model.PublishOutcomeSuccess, f.history.records[0].Outcome)
	assert.False(t, f.history.records[0].Scheduled)
	assert.Zero(t, f.store.Len(), "immediate posts are never registered")
}

func TestMarketingService_Generate_PostFailedKeepsContent(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()
	f.gateway.publishFunc = func(ctx context.Context, platform model.Platform, credential, content string, target model.Target) error {
		return &PublishError{Platform: platform, Cause: errors.New("status 401: token expired")}
	}

	resp, err := f.svc.Generate(context.Background(), GenerateInput{Request: baseRequest(), Credential: "tok"})

	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPostFailed, resp.Status)
	assert.Equal(t, "Come taste our sourdough", resp.Content)
	assert.Equal(t, "LinkedIn post failed: status 401: token expired", resp.Error)
	assert.Nil(t, resp.PostedTime)

	require.Len(t, f.history.records, 1)
	assert.Equal(t, model.PublishOutcomeFailed, f.history.records[0].Outcome)
}

func TestMarketingService_Generate_UnsupportedImmediatePlatformFails(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()
	req := baseRequest()
	req.Platform = "Myspace"

	resp, err := f.svc.Generate(context.Background(), GenerateInput{Request: req})

	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPostFailed, resp.Status)
	assert.Contains(t, resp.Error, "platform not supported")
	assert.Equal(t, "Myspace", resp.Platform)
}

func TestMarketingService_Generate_HistoryFailureDoesNotAffectPublish(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()
	f.history.appendFunc = func(ctx context.Context, rec *model.PublishRecord) error {
		return errors.New("database down")
	}

	resp, err := f.svc.Generate(context.Background(), GenerateInput{Request: baseRequest(), Credential: "tok"})

	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPostedImmediately, resp.Status)
}

// ============================================================================
// Scheduling
// ============================================================================

func TestMarketingService_Generate_Scheduled(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()
	fireAt := marketingNow.Add(2 * time.Hour)
	req := baseRequest()
	req.Schedule = scheduleAt(fireAt, "weekly")
	req.PostTo = "page"
	req.PageID = "12345"

	resp, err := f.svc.Generate(context.Background(), GenerateInput{Request: req, Credential: "tok"})

	require.NoError(t, err)
	assert.Equal(t, model.PostStatusScheduled, resp.Status)
	assert.Nil(t, resp.PostedTime)
	assert.Same(t, req.Schedule, resp.Schedule)
	assert.Empty(t, f.gateway.published(), "scheduled posts are not published at request time")

	pending := f.store.Pending()
	require.Len(t, pending, 1)
	assert.True(t, pending[0].FireAt.Equal(fireAt))
	assert.Equal(t, resp.PostID, pending[0].Post.ID)
	assert.Equal(t, model.FrequencyWeekly, pending[0].Post.Frequency)
	assert.Equal(t, model.PageTarget("12345"), pending[0].Post.Target)
	assert.Equal(t, "tok", pending[0].Post.Credential)
	assert.Equal(t, "Come taste our sourdough", pending[0].Post.Content)
}

func TestMarketingService_Generate_ScheduledTelegramWithoutCredential(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()
	req := baseRequest()
	req.Platform = "telegram"
	req.Schedule = scheduleAt(marketingNow.Add(time.Minute), "daily")

	resp, err := f.svc.Generate(context.Background(), GenerateInput{Request: req})

	require.NoError(t, err)
	assert.Equal(t, model.PostStatusScheduled, resp.Status)
	assert.Equal(t, 1, f.store.Len())
}

// ============================================================================
// Generation Output
// ============================================================================

func TestMarketingService_Generate_NonJSONFallsBackToRawContent(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()
	f.generator.generateFunc = func(ctx context.Context, req *model.GenerateRequest) (string, error) {
		return "Here is a lovely post about bread!", nil
	}

	resp, err := f.svc.Generate(context.Background(), GenerateInput{Request: baseRequest(), Credential: "tok"})

	require.NoError(t, err)
	assert.Equal(t, model.PostStatusPostedImmediately, resp.Status)
	assert.Equal(t, "Here is a lovely post about bread!", resp.Content)
	assert.Equal(t, ParseFailedMarker, resp.Error)
}

func TestMarketingService_Generate_NonJSONScheduled(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()
	f.generator.generateFunc = func(ctx context.Context, req *model.GenerateRequest) (string, error) {
		return "plain text", nil
	}
	req := baseRequest()
	req.Schedule = scheduleAt(marketingNow.Add(time.Hour), "once")

	resp, err := f.svc.Generate(context.Background(), GenerateInput{Request: req, Credential: "tok"})

	require.NoError(t, err)
	assert.Equal(t, model.PostStatusScheduled, resp.Status)
	assert.Equal(t, ParseFailedMarker, resp.Error)
	assert.Equal(t, "plain text", f.store.Pending()[0].Post.Content)
}

func TestMarketingService_Generate_GeneratorError(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()
	f.generator.generateFunc = func(ctx context.Context, req *model.GenerateRequest) (string, error) {
		return "", errors.New("quota exceeded")
	}

	resp, err := f.svc.Generate(context.Background(), GenerateInput{Request: baseRequest(), Credential: "tok"})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, ErrGenerationFailed)
	assert.Empty(t, f.gateway.published())
}

// ============================================================================
// Envelope Metadata
// ============================================================================

func TestMarketingService_Generate_CreatedAtInRequesterZone(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()
	req := baseRequest()
	req.Timezone = "Asia/Kolkata"

	resp, err := f.svc.Generate(context.Background(), GenerateInput{Request: req, Credential: "tok"})

	require.NoError(t, err)
	assert.Equal(t, "2026-04-10T13:45:30+05:30", resp.CreatedAt)
}

func TestMarketingService_Generate_InvalidZoneFallsBackToUTC(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()
	req := baseRequest()
	req.Timezone = "Mars/Olympus_Mons"

	resp, err := f.svc.Generate(context.Background(), GenerateInput{Request: req, Credential: "tok"})

	require.NoError(t, err)
	assert.Equal(t, "2026-04-10T08:15:30Z", resp.CreatedAt)
	assert.Equal(t, AnonymousUserID, resp.UserID)
}

// ============================================================================
// Schedule Management
// ============================================================================

func TestMarketingService_ListAndCancel(t *testing.T) {
	t.Parallel()

	f := newMarketingFixture()
	req := baseRequest()
	req.Schedule = scheduleAt(marketingNow.Add(time.Hour), "daily")

	resp, err := f.svc.Generate(context.Background(), GenerateInput{Request: req, Credential: "secret-token"})
	require.NoError(t, err)

	listed := f.svc.ListScheduled()
	require.Len(t, listed, 1)
	assert.Equal(t, resp.PostID, listed[0].PostID)
	assert.Equal(t, "individual", listed[0].Target)
	assert.False(t, strings.Contains(listed[0].Preview, "secret-token"))

	require.NoError(t, f.svc.CancelScheduled(resp.PostID))
	assert.ErrorIs(t, f.svc.CancelScheduled(resp.PostID), ErrScheduledPostNotFound)
	assert.Empty(t, f.svc.ListScheduled())
}
