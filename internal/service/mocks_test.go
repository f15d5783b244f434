package service

import (
	"context"
	"sync"
	"time"

	"github.com/forgo/herald/internal/model"
)

// ============================================================================
// Mock Collaborators
// ============================================================================

type mockGenerator struct {
	generateFunc func(ctx context.Context, req *model.GenerateRequest) (string, error)
	model        string
	calls        int
}

func (m *mockGenerator) Generate(ctx context.Context, req *model.GenerateRequest) (string, error) {
	m.calls++
	if m.generateFunc != nil {
		return m.generateFunc(ctx, req)
	}
	return `{"headline":"Fresh bread","content":"Come taste our sourdough","hashtags":["#bakery"],"aiScore":87}`, nil
}

func (m *mockGenerator) Model() string {
	if m.model == "" {
		return "gemini-test"
	}
	return m.model
}

type publishCall struct {
	platform   model.Platform
	credential string
	content    string
	target     model.Target
}

type mockGateway struct {
	mu          sync.Mutex
	publishFunc func(ctx context.Context, platform model.Platform, credential, content string, target model.Target) error
	supported   map[model.Platform]bool
	credential  map[model.Platform]bool
	calls       []publishCall
}

func newMockGateway() *mockGateway {
	return &mockGateway{
		supported:  map[model.Platform]bool{model.PlatformLinkedIn: true, model.PlatformTelegram: true},
		credential: map[model.Platform]bool{model.PlatformLinkedIn: true},
	}
}

func (m *mockGateway) Supports(platform model.Platform) bool {
	return m.supported[platform]
}

func (m *mockGateway) RequiresCredential(platform model.Platform) bool {
	return m.credential[platform]
}

func (m *mockGateway) Publish(ctx context.Context, platform model.Platform, credential, content string, target model.Target) error {
	m.mu.Lock()
	m.calls = append(m.calls, publishCall{platform, credential, content, target})
	m.mu.Unlock()
	if m.publishFunc != nil {
		return m.publishFunc(ctx, platform, credential, content, target)
	}
	if !m.supported[platform] {
		return &PublishError{Platform: platform, Cause: ErrPlatformNotSupported}
	}
	return nil
}

func (m *mockGateway) published() []publishCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]publishCall(nil), m.calls...)
}

type mockPublishLog struct {
	mu         sync.Mutex
	appendFunc func(ctx context.Context, rec *model.PublishRecord) error
	records    []*model.PublishRecord
}

func (m *mockPublishLog) Append(ctx context.Context, rec *model.PublishRecord) error {
	if m.appendFunc != nil {
		if err := m.appendFunc(ctx, rec); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return nil
}

func (m *mockPublishLog) ListRecent(ctx context.Context, limit int) ([]*model.PublishRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.PublishRecord, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.records[i])
	}
	return out, nil
}

func (m *mockPublishLog) ListByPost(ctx context.Context, postID string) ([]*model.PublishRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PublishRecord
	for _, rec := range m.records {
		if rec.PostID == postID {
			out = append(out, rec)
		}
	}
	return out, nil
}

type mockUserRepo struct {
	getByEmailFunc func(ctx context.Context, email string) (*model.User, error)
	createFunc     func(ctx context.Context, user *model.User) error
	touchLoginFunc func(ctx context.Context, id, name, providerID string) error
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.getByEmailFunc != nil {
		return m.getByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	user.ID = "user:new"
	return nil
}

func (m *mockUserRepo) TouchLogin(ctx context.Context, id, name, providerID string) error {
	if m.touchLoginFunc != nil {
		return m.touchLoginFunc(ctx, id, name, providerID)
	}
	return nil
}

// fixedClock returns the same instant until moved
type fixedClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t
	c.mu.Unlock()
}
