package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/forgo/herald/internal/model"
	"github.com/forgo/herald/internal/service"
)

// MarketingGenerator is the service behind POST /api/marketing/generate
type MarketingGenerator interface {
	Generate(ctx context.Context, in service.GenerateInput) (*model.GenerateResponse, error)
}

// MemberResolver maps a member access token to a stored user ID
type MemberResolver interface {
	ResolveUserID(ctx context.Context, accessToken string) (string, error)
}

// MarketingHandler handles content generation requests
type MarketingHandler struct {
	marketing MarketingGenerator
	members   MemberResolver
	logger    *slog.Logger
}

// MarketingHandlerConfig holds dependencies for the marketing handler
type MarketingHandlerConfig struct {
	Marketing MarketingGenerator
	// Members is optional. Without it every request is anonymous.
	Members MemberResolver
	Logger  *slog.Logger
}

// NewMarketingHandler creates a new marketing handler
func NewMarketingHandler(cfg MarketingHandlerConfig) *MarketingHandler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &MarketingHandler{
		marketing: cfg.Marketing,
		members:   cfg.Members,
		logger:    logger,
	}
}

// Generate handles POST /api/marketing/generate
func (h *MarketingHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req model.GenerateRequest
	if err := DecodeJSON(r, &req); err != nil {
		WriteError(w, model.NewBadRequestError("invalid request body"))
		return
	}

	credential := bearerToken(r)
	if credential == "" {
		credential = strings.TrimSpace(req.AccessToken)
	}

	resp, err := h.marketing.Generate(r.Context(), service.GenerateInput{
		Request:    &req,
		Credential: credential,
		UserID:     h.resolveUser(r.Context(), credential),
	})
	if err != nil {
		if errors.Is(err, service.ErrMissingCredential) {
			WriteError(w, model.NewMissingCredentialError(req.Platform))
			return
		}
		WriteError(w, MapServiceError(err))
		return
	}

	WriteJSON(w, http.StatusOK, resp)
}

// resolveUser returns the member's user ID, or empty when the token does
// not belong to a known member.
func (h *MarketingHandler) resolveUser(ctx context.Context, credential string) string {
	if h.members == nil || credential == "" {
		return ""
	}
	id, err := h.members.ResolveUserID(ctx, credential)
	if err != nil {
		h.logger.Debug("requester not resolved", "error", err)
		return ""
	}
	return id
}

// bearerToken extracts the token from an Authorization: Bearer header
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
