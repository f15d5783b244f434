package handler

import (
	"errors"
	"log/slog"

	"github.com/forgo/herald/internal/model"
	"github.com/forgo/herald/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// Unknown errors are logged and reported as 500 without internal detail.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return model.NewValidationError(verr.Fields)
	}

	switch {
	// ===== Authentication Errors → 401 =====
	case errors.Is(err, service.ErrMissingCredential):
		return model.NewMissingCredentialError(string(model.PlatformLinkedIn))

	// ===== Bad Request Errors → 400 =====
	case errors.Is(err, service.ErrInvalidRequest):
		return model.NewBadRequestError(err.Error())
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrInvalidAuthCode):
		return model.NewBadRequestError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrScheduledPostNotFound):
		return model.NewNotFoundError("scheduled post")
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrInvalidEmail):
		return model.NewValidationError([]model.FieldError{{Field: "email", Message: err.Error()}})
	case errors.Is(err, service.ErrPlatformNotSupported):
		return model.NewValidationError([]model.FieldError{{Field: "platform", Message: err.Error()}})

	// ===== Upstream Errors → 502 =====
	case errors.Is(err, service.ErrGenerationFailed):
		return model.NewBadGatewayError(err.Error())
	case errors.Is(err, service.ErrProviderError):
		return model.NewBadGatewayError("LinkedIn request failed")

	// ===== Unavailable → 503 =====
	case errors.Is(err, service.ErrOAuthNotConfigured),
		errors.Is(err, service.ErrPublisherUnavailable):
		return model.NewServiceUnavailableError(err.Error())
	}

	slog.Error("unmapped service error", "error", err)
	return model.NewInternalError("")
}
