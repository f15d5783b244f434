package model

import (
	"fmt"
	"strings"
	"time"
)

// Platform is a publishing destination network
type Platform string

const (
	PlatformLinkedIn Platform = "linkedin"
	PlatformTelegram Platform = "telegram"
)

// NormalizePlatform lower-cases and trims a platform name from a request
func NormalizePlatform(s string) Platform {
	return Platform(strings.ToLower(strings.TrimSpace(s)))
}

// Frequency controls whether a scheduled post recurs after it fires
type Frequency string

const (
	FrequencyOnce   Frequency = "once"
	FrequencyDaily  Frequency = "daily"
	FrequencyWeekly Frequency = "weekly"
)

// IsValid reports whether f is a known frequency
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyOnce, FrequencyDaily, FrequencyWeekly:
		return true
	}
	return false
}

// Recurs reports whether a post with this frequency is re-registered after firing
func (f Frequency) Recurs() bool {
	return f == FrequencyDaily || f == FrequencyWeekly
}

// TargetKind distinguishes a member's own feed from a page they manage
type TargetKind string

const (
	TargetIndividual TargetKind = "individual"
	TargetPage       TargetKind = "page"
)

// Target is where a post is published
type Target struct {
	Kind   TargetKind `json:"kind"`
	PageID string     `json:"pageId,omitempty"`
}

// IndividualTarget targets the credential owner's own account
func IndividualTarget() Target {
	return Target{Kind: TargetIndividual}
}

// PageTarget targets a named page, organization or channel
func PageTarget(id string) Target {
	return Target{Kind: TargetPage, PageID: id}
}

// IsPage reports whether the target is a page
func (t Target) IsPage() bool {
	return t.Kind == TargetPage
}

// String renders the target as "individual" or "page:<id>"
func (t Target) String() string {
	if t.IsPage() {
		return fmt.Sprintf("page:%s", t.PageID)
	}
	return string(TargetIndividual)
}

// ScheduledPost is an obligation to publish content at or after a fire time.
// The fire time itself is owned by the scheduler index, not the post.
type ScheduledPost struct {
	ID         string    `json:"id"`
	Content    string    `json:"content"`
	Platform   Platform  `json:"platform"`
	Frequency  Frequency `json:"frequency"`
	Credential string    `json:"-"`
	Target     Target    `json:"target"`
	UserID     string    `json:"userId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PendingPost is a scheduled post as exposed by the schedule listing.
// Credentials are never included.
type PendingPost struct {
	PostID    string    `json:"postId"`
	Platform  Platform  `json:"platform"`
	Frequency Frequency `json:"frequency"`
	Target    string    `json:"target"`
	FireAt    time.Time `json:"fireAt"`
	Preview   string    `json:"preview"`
	UserID    string    `json:"userId,omitempty"`
}

// MaxPreviewLength bounds the content excerpt in schedule listings
const MaxPreviewLength = 80

// Preview returns the first MaxPreviewLength runes of the content
func (p *ScheduledPost) Preview() string {
	r := []rune(p.Content)
	if len(r) <= MaxPreviewLength {
		return p.Content
	}
	return string(r[:MaxPreviewLength]) + "…"
}

// PostStatus is the outcome reported for a generation request
type PostStatus string

const (
	PostStatusScheduled         PostStatus = "SCHEDULED"
	PostStatusPostedImmediately PostStatus = "POSTED_IMMEDIATELY"
	PostStatusPostFailed        PostStatus = "POST_FAILED"
)

// PublishOutcome is the result of a single publish attempt
type PublishOutcome string

const (
	PublishOutcomeSuccess PublishOutcome = "success"
	PublishOutcomeFailed  PublishOutcome = "failed"
)

// PublishRecord is one row of publish history
type PublishRecord struct {
	ID          string         `json:"id"`
	PostID      string         `json:"post_id"`
	Platform    Platform       `json:"platform"`
	Target      string         `json:"target"`
	Outcome     PublishOutcome `json:"outcome"`
	Error       *string        `json:"error,omitempty"`
	Scheduled   bool           `json:"scheduled"`
	FireAt      *time.Time     `json:"fire_at,omitempty"`
	AttemptedAt time.Time      `json:"attempted_at"`
}

// Publish history limits
const (
	DefaultHistoryLimit = 50
	MaxHistoryLimit     = 500
)

// DisplayName returns the platform's brand name for user-facing messages
func (p Platform) DisplayName() string {
	switch p {
	case PlatformLinkedIn:
		return "LinkedIn"
	case PlatformTelegram:
		return "Telegram"
	case "":
		return "Platform"
	default:
		s := string(p)
		return strings.ToUpper(s[:1]) + s[1:]
	}
}
