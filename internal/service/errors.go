package service

import "errors"

// Centralized service layer errors.
// All errors returned by service methods are defined here for consistency
// and to make error handling in handlers predictable.

// ===== Request Errors =====
var (
	ErrInvalidRequest    = errors.New("invalid request")
	ErrMissingCredential = errors.New("access token is required")
)

// ===== Generation Errors =====
var (
	ErrGenerationFailed = errors.New("content generation failed")
	ErrEmptyGeneration  = errors.New("content generator returned no text")
)

// ===== Publishing Errors =====
var (
	ErrPublishFailed        = errors.New("publish failed")
	ErrPlatformNotSupported = errors.New("platform not supported")
	ErrPublisherUnavailable = errors.New("publisher temporarily unavailable")
	ErrPageIDRequired       = errors.New("page ID is required for posting to a page")
)

// ===== Schedule Errors =====
var (
	ErrScheduledPostNotFound = errors.New("scheduled post not found")
)

// ===== OAuth Errors =====
var (
	ErrOAuthNotConfigured = errors.New("LinkedIn OAuth is not configured")
	ErrInvalidAuthCode    = errors.New("invalid authorization code")
	ErrInvalidState       = errors.New("invalid or expired OAuth state")
	ErrProviderError      = errors.New("OAuth provider error")
)

// ===== User Errors =====
var (
	ErrUserNotFound = errors.New("user not found")
	ErrInvalidEmail = errors.New("invalid email format")
)
