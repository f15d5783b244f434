package model

import (
	"strings"
	"time"
)

// Content types a generation request may ask for
const (
	ContentTypePost    = "post"
	ContentTypeComment = "comment"
	ContentTypeImage   = "image"
)

// GenerateRequest asks for marketing content and optionally publishes or
// schedules it.
type GenerateRequest struct {
	BusinessName string           `json:"businessName"`
	Industry     string           `json:"industry"`
	Tone         string           `json:"tone"`
	Platform     string           `json:"platform"`
	UseCase      string           `json:"useCase"`
	ContentType  string           `json:"contentType"`
	Timezone     string           `json:"timezone,omitempty"`
	AccessToken  string           `json:"accessToken,omitempty"`
	Schedule     *ScheduleRequest `json:"schedule,omitempty"`
	PostTo       string           `json:"postTo,omitempty"`
	PageID       string           `json:"pageId,omitempty"`
}

// ScheduleRequest defers publishing to DateTime, recurring per Frequency.
// PostTo and PageID override the request-level target when set.
type ScheduleRequest struct {
	DateTime  *time.Time `json:"dateTime"`
	Frequency string     `json:"frequency"`
	PostTo    string     `json:"postTo,omitempty"`
	PageID    string     `json:"pageId,omitempty"`
}

// Validate checks the request against the field rules. now is the instant a
// schedule must be strictly after.
func (r *GenerateRequest) Validate(now time.Time) []FieldError {
	var errors []FieldError

	required := []struct {
		field, value, message string
	}{
		{"businessName", r.BusinessName, "Business name is required."},
		{"industry", r.Industry, "Industry is required."},
		{"tone", r.Tone, "Tone is required."},
		{"platform", r.Platform, "Platform is required."},
		{"useCase", r.UseCase, "Use case is required."},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			errors = append(errors, FieldError{Field: f.field, Message: f.message})
		}
	}

	switch r.ContentType {
	case "":
		errors = append(errors, FieldError{Field: "contentType", Message: "Content type is required."})
	case ContentTypePost, ContentTypeComment, ContentTypeImage:
	default:
		errors = append(errors, FieldError{Field: "contentType", Message: "Content type must be one of: post, comment, image"})
	}

	errors = append(errors, validateTarget("postTo", "pageId", r.PostTo, r.PageID)...)

	if s := r.Schedule; s != nil {
		if s.DateTime == nil {
			errors = append(errors, FieldError{Field: "schedule.dateTime", Message: "Schedule date is required."})
		} else if !s.DateTime.After(now) {
			errors = append(errors, FieldError{Field: "schedule.dateTime", Message: "Schedule date must be in the future."})
		}
		if s.Frequency == "" {
			errors = append(errors, FieldError{Field: "schedule.frequency", Message: "Frequency is required for scheduled posts."})
		} else if !Frequency(s.Frequency).IsValid() {
			errors = append(errors, FieldError{Field: "schedule.frequency", Message: "Frequency must be one of: once, daily, weekly"})
		}
		errors = append(errors, validateTarget("schedule.postTo", "schedule.pageId", s.PostTo, s.PageID)...)
	}

	return errors
}

func validateTarget(postToField, pageIDField, postTo, pageID string) []FieldError {
	switch TargetKind(postTo) {
	case "":
		return nil
	case TargetIndividual:
		return nil
	case TargetPage:
		if strings.TrimSpace(pageID) == "" {
			return []FieldError{{Field: pageIDField, Message: "Page ID is required when posting to a page."}}
		}
		return nil
	default:
		return []FieldError{{Field: postToField, Message: "PostTo must be one of: individual, page"}}
	}
}

// Target resolves where the post goes. A schedule's own postTo wins over the
// request-level one; the default is the individual account.
func (r *GenerateRequest) Target() Target {
	postTo, pageID := r.PostTo, r.PageID
	if r.Schedule != nil && r.Schedule.PostTo != "" {
		postTo, pageID = r.Schedule.PostTo, r.Schedule.PageID
	}
	if TargetKind(postTo) == TargetPage {
		return PageTarget(strings.TrimSpace(pageID))
	}
	return IndividualTarget()
}

// Engagement is the generator's predicted reaction counts
type Engagement struct {
	Likes    float64 `json:"likes"`
	Comments float64 `json:"comments"`
	Shares   float64 `json:"shares"`
}

// GeneratedContent is the structured object the generator is asked to return
type GeneratedContent struct {
	Headline            string      `json:"headline,omitempty"`
	Content             string      `json:"content"`
	Tagline             string      `json:"tagline,omitempty"`
	Hashtags            []string    `json:"hashtags,omitempty"`
	Mentions            []string    `json:"mentions,omitempty"`
	AIScore             *float64    `json:"aiScore,omitempty"`
	PredictedEngagement *Engagement `json:"predictedEngagement,omitempty"`
}

// PlatformOptions echoes how the post is presented on the platform
type PlatformOptions struct {
	Visibility    string `json:"visibility"`
	ContentFormat string `json:"contentFormat"`
}

// VisibilityPublic is the only visibility posts are published with
const VisibilityPublic = "PUBLIC"

// GenerateResponse is the envelope returned for every generation request.
// PostedTime is serialized as null for scheduled posts.
type GenerateResponse struct {
	GeneratedContent

	Error           string           `json:"error,omitempty"`
	PostID          string           `json:"postId"`
	RequestID       string           `json:"requestId"`
	UserID          string           `json:"userId"`
	Platform        string           `json:"platform"`
	PostType        string           `json:"postType"`
	CreatedAt       string           `json:"createdAt"`
	AIModel         string           `json:"aiModel"`
	PlatformOptions PlatformOptions  `json:"platformOptions"`
	Status          PostStatus       `json:"status"`
	Schedule        *ScheduleRequest `json:"schedule,omitempty"`
	PostedTime      *string          `json:"postedTime"`
}

// AddError appends msg to the response's error marker
func (r *GenerateResponse) AddError(msg string) {
	if r.Error == "" {
		r.Error = msg
		return
	}
	r.Error = r.Error + "; " + msg
}
