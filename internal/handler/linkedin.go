package handler

import (
	"context"
	"net/http"

	"github.com/forgo/herald/internal/model"
	"github.com/forgo/herald/internal/service"
)

// LinkedInAuthenticator runs the LinkedIn authorization code flow
type LinkedInAuthenticator interface {
	AuthorizationURL() (string, string, error)
	Callback(ctx context.Context, code, state string) (*service.LinkedInLogin, error)
}

// LinkedInHandler handles the LinkedIn OAuth endpoints
type LinkedInHandler struct {
	auth LinkedInAuthenticator
}

// NewLinkedInHandler creates a new LinkedIn handler
func NewLinkedInHandler(auth LinkedInAuthenticator) *LinkedInHandler {
	return &LinkedInHandler{auth: auth}
}

// LinkedInTokenResponse is returned once the member has authorized the app.
// The access token is what callers send as their Bearer credential.
type LinkedInTokenResponse struct {
	AccessToken string      `json:"accessToken"`
	ExpiresIn   int         `json:"expiresIn"`
	Scope       string      `json:"scope,omitempty"`
	User        *model.User `json:"user,omitempty"`
	IsNewUser   bool        `json:"isNewUser"`
}

// Authorize handles GET /api/marketing/linkedin/auth
func (h *LinkedInHandler) Authorize(w http.ResponseWriter, r *http.Request) {
	authURL, _, err := h.auth.AuthorizationURL()
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles GET /api/marketing/linkedin/callback
func (h *LinkedInHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// LinkedIn reports a declined consent screen through these parameters
	if reason := q.Get("error"); reason != "" {
		detail := reason
		if desc := q.Get("error_description"); desc != "" {
			detail = reason + ": " + desc
		}
		WriteError(w, model.NewBadRequestError(detail))
		return
	}

	login, err := h.auth.Callback(r.Context(), q.Get("code"), q.Get("state"))
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}

	WriteJSON(w, http.StatusOK, LinkedInTokenResponse{
		AccessToken: login.AccessToken,
		ExpiresIn:   login.ExpiresIn,
		Scope:       login.Scope,
		User:        login.User,
		IsNewUser:   login.IsNewUser,
	})
}
