package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forgo/herald/internal/model"
)

// LinkedIn OAuth endpoints and scopes
const (
	LinkedInAuthorizeURL = "https://www.linkedin.com/oauth/v2/authorization"
	LinkedInTokenURL     = "https://www.linkedin.com/oauth/v2/accessToken"
	LinkedInScopes       = "openid profile email w_member_social"
)

// oauthStateTTL bounds how long an authorization round trip may take
const oauthStateTTL = 10 * time.Minute

// memberCacheTTL bounds how long a token to user mapping is trusted
const memberCacheTTL = 15 * time.Minute

type cachedMember struct {
	userID  string
	expires time.Time
}

// LinkedInAuthService runs the LinkedIn authorization code flow and
// records the member as a user.
type LinkedInAuthService struct {
	clientID     string
	clientSecret string
	redirectURI  string
	authorizeURL string
	tokenURL     string
	userInfoURL  string
	userService  *UserService
	httpClient   *http.Client

	mu      sync.Mutex
	states  map[string]time.Time
	members map[string]cachedMember
	now     func() time.Time
}

// LinkedInAuthServiceConfig holds configuration for the LinkedIn auth service
type LinkedInAuthServiceConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	UserService  *UserService

	// Endpoint overrides, empty means the production LinkedIn URLs.
	AuthorizeURL string
	TokenURL     string
	UserInfoURL  string
	HTTPClient   *http.Client
}

// NewLinkedInAuthService creates a new LinkedIn auth service
func NewLinkedInAuthService(cfg LinkedInAuthServiceConfig) *LinkedInAuthService {
	s := &LinkedInAuthService{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		redirectURI:  cfg.RedirectURI,
		authorizeURL: cfg.AuthorizeURL,
		tokenURL:     cfg.TokenURL,
		userInfoURL:  cfg.UserInfoURL,
		userService:  cfg.UserService,
		httpClient:   cfg.HTTPClient,
		states:       make(map[string]time.Time),
		members:      make(map[string]cachedMember),
		now:          time.Now,
	}
	if s.authorizeURL == "" {
		s.authorizeURL = LinkedInAuthorizeURL
	}
	if s.tokenURL == "" {
		s.tokenURL = LinkedInTokenURL
	}
	if s.userInfoURL == "" {
		s.userInfoURL = LinkedInUserInfoURL
	}
	if s.httpClient == nil {
		s.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return s
}

// IsConfigured reports whether the OAuth app credentials are present
func (s *LinkedInAuthService) IsConfigured() bool {
	return s.clientID != "" && s.clientSecret != "" && s.redirectURI != ""
}

// AuthorizationURL returns the URL to send the member to and the state
// value the callback must echo.
func (s *LinkedInAuthService) AuthorizationURL() (string, string, error) {
	if !s.IsConfigured() {
		return "", "", ErrOAuthNotConfigured
	}

	state := uuid.New().String()
	s.mu.Lock()
	s.pruneStatesLocked()
	s.states[state] = s.now().Add(oauthStateTTL)
	s.mu.Unlock()

	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", s.clientID)
	q.Set("redirect_uri", s.redirectURI)
	q.Set("state", state)
	q.Set("scope", LinkedInScopes)
	return s.authorizeURL + "?" + q.Encode(), state, nil
}

func (s *LinkedInAuthService) pruneStatesLocked() {
	now := s.now()
	for st, exp := range s.states {
		if now.After(exp) {
			delete(s.states, st)
		}
	}
}

// consumeState checks and invalidates a state value
func (s *LinkedInAuthService) consumeState(state string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp, ok := s.states[state]
	if !ok {
		return false
	}
	delete(s.states, state)
	return !s.now().After(exp)
}

// LinkedInLogin is the result of a completed authorization
type LinkedInLogin struct {
	AccessToken string
	ExpiresIn   int
	Scope       string
	User        *model.User
	IsNewUser   bool
}

type linkedInTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       string `json:"scope"`
}

// Callback validates state, exchanges the code for an access token and
// upserts the member.
func (s *LinkedInAuthService) Callback(ctx context.Context, code, state string) (*LinkedInLogin, error) {
	if !s.IsConfigured() {
		return nil, ErrOAuthNotConfigured
	}
	if strings.TrimSpace(code) == "" {
		return nil, ErrInvalidAuthCode
	}
	if !s.consumeState(state) {
		return nil, ErrInvalidState
	}

	token, err := s.exchangeCode(ctx, code)
	if err != nil {
		return nil, err
	}

	info, err := fetchLinkedInUserInfo(ctx, s.httpClient, s.userInfoURL, token.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}

	login := &LinkedInLogin{
		AccessToken: token.AccessToken,
		ExpiresIn:   token.ExpiresIn,
		Scope:       token.Scope,
	}
	if s.userService != nil && info.Email != "" {
		user, isNew, err := s.userService.UpsertOAuthUser(ctx, info.Email, info.Name, model.AuthProviderLinkedIn, info.Sub)
		if err != nil {
			return nil, err
		}
		login.User = user
		login.IsNewUser = isNew
		s.rememberMember(token.AccessToken, user.ID)
	}
	return login, nil
}

// ResolveUserID maps a member access token to the stored user ID. Results
// are cached per token for a short period. An unknown member returns
// ErrUserNotFound.
func (s *LinkedInAuthService) ResolveUserID(ctx context.Context, accessToken string) (string, error) {
	if strings.TrimSpace(accessToken) == "" {
		return "", ErrMissingCredential
	}
	if id, ok := s.cachedMember(accessToken); ok {
		return id, nil
	}
	if s.userService == nil {
		return "", ErrUserNotFound
	}

	info, err := fetchLinkedInUserInfo(ctx, s.httpClient, s.userInfoURL, accessToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	if info.Email == "" {
		return "", ErrUserNotFound
	}

	user, err := s.userService.GetByEmail(ctx, info.Email)
	if err != nil {
		return "", err
	}
	s.rememberMember(accessToken, user.ID)
	return user.ID, nil
}

func tokenKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *LinkedInAuthService) cachedMember(token string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tokenKey(token)
	m, ok := s.members[key]
	if !ok {
		return "", false
	}
	if s.now().After(m.expires) {
		delete(s.members, key)
		return "", false
	}
	return m.userID, true
}

func (s *LinkedInAuthService) rememberMember(token, userID string) {
	if userID == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for k, m := range s.members {
		if now.After(m.expires) {
			delete(s.members, k)
		}
	}
	s.members[tokenKey(token)] = cachedMember{userID: userID, expires: now.Add(memberCacheTTL)}
}

func (s *LinkedInAuthService) exchangeCode(ctx context.Context, code string) (*linkedInTokenResponse, error) {
	data := url.Values{}
	data.Set("grant_type", "authorization_code")
	data.Set("code", code)
	data.Set("redirect_uri", s.redirectURI)
	data.Set("client_id", s.clientID)
	data.Set("client_secret", s.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %s", ErrInvalidAuthCode, string(body))
		}
		return nil, fmt.Errorf("%w: %s", ErrProviderError, string(body))
	}

	var tokenResp linkedInTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, err
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("%w: token not found in response", ErrProviderError)
	}
	return &tokenResp, nil
}
