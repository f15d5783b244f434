package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/forgo/herald/internal/model"
)

// LinkedIn API endpoints
const (
	LinkedInDefaultPostURL = "https://api.linkedin.com/v2/ugcPosts"
	LinkedInUserInfoURL    = "https://api.linkedin.com/v2/userinfo"
)

// LinkedInPublisher posts to a member feed or an organization page through
// the ugcPosts API.
type LinkedInPublisher struct {
	httpClient  *http.Client
	postURL     string
	userInfoURL string
	logger      *slog.Logger
}

// LinkedInPublisherConfig holds configuration for the LinkedIn publisher
type LinkedInPublisherConfig struct {
	PostURL     string
	UserInfoURL string
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

// NewLinkedInPublisher creates a new LinkedIn publisher
func NewLinkedInPublisher(cfg LinkedInPublisherConfig) *LinkedInPublisher {
	p := &LinkedInPublisher{
		httpClient:  cfg.HTTPClient,
		postURL:     cfg.PostURL,
		userInfoURL: cfg.UserInfoURL,
		logger:      cfg.Logger,
	}
	if p.httpClient == nil {
		p.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if p.postURL == "" {
		p.postURL = LinkedInDefaultPostURL
	}
	if p.userInfoURL == "" {
		p.userInfoURL = LinkedInUserInfoURL
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p
}

// Platform implements Publisher
func (p *LinkedInPublisher) Platform() model.Platform {
	return model.PlatformLinkedIn
}

// RequiresCredential implements Publisher
func (p *LinkedInPublisher) RequiresCredential() bool {
	return true
}

type ugcPost struct {
	Author          string             `json:"author"`
	LifecycleState  string             `json:"lifecycleState"`
	SpecificContent ugcSpecificContent `json:"specificContent"`
	Visibility      ugcVisibility      `json:"visibility"`
}

type ugcSpecificContent struct {
	ShareContent ugcShareContent `json:"com.linkedin.ugc.ShareContent"`
}

type ugcShareContent struct {
	ShareCommentary    ugcText `json:"shareCommentary"`
	ShareMediaCategory string  `json:"shareMediaCategory"`
}

type ugcText struct {
	Text string `json:"text"`
}

type ugcVisibility struct {
	MemberNetwork string `json:"com.linkedin.ugc.MemberNetworkVisibility"`
}

// Publish implements Publisher
func (p *LinkedInPublisher) Publish(ctx context.Context, credential, content string, target model.Target) error {
	if strings.TrimSpace(credential) == "" {
		return ErrMissingCredential
	}

	author, err := p.authorURN(ctx, credential, target)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(ugcPost{
		Author:         author,
		LifecycleState: "PUBLISHED",
		SpecificContent: ugcSpecificContent{ShareContent: ugcShareContent{
			ShareCommentary:    ugcText{Text: content},
			ShareMediaCategory: "NONE",
		}},
		Visibility: ugcVisibility{MemberNetwork: model.VisibilityPublic},
	})
	if err != nil {
		return fmt.Errorf("linkedin: marshal post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.postURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("linkedin: create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("linkedin: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		p.logger.Error("linkedin API error",
			"status", resp.StatusCode,
			"target", target.String(),
			"body", strings.TrimSpace(string(body)),
		)
		return &StatusError{
			Platform:   model.PlatformLinkedIn,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	p.logger.Info("posted to linkedin", "target", target.String(), "status", resp.StatusCode)
	return nil
}

func (p *LinkedInPublisher) authorURN(ctx context.Context, credential string, target model.Target) (string, error) {
	if target.IsPage() {
		if strings.TrimSpace(target.PageID) == "" {
			return "", ErrPageIDRequired
		}
		return "urn:li:organization:" + target.PageID, nil
	}
	info, err := fetchLinkedInUserInfo(ctx, p.httpClient, p.userInfoURL, credential)
	if err != nil {
		return "", err
	}
	return "urn:li:person:" + info.Sub, nil
}

// LinkedInUserInfo is the OpenID Connect userinfo payload
type LinkedInUserInfo struct {
	Sub           string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	GivenName     string `json:"given_name"`
	FamilyName    string `json:"family_name"`
}

func fetchLinkedInUserInfo(ctx context.Context, client *http.Client, endpoint, token string) (*LinkedInUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("linkedin: create userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("linkedin: userinfo request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Platform: model.PlatformLinkedIn, Op: "userinfo", StatusCode: resp.StatusCode}
	}

	var info LinkedInUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("linkedin: decode userinfo: %w", err)
	}
	if info.Sub == "" {
		return nil, fmt.Errorf("linkedin: userinfo response has no sub")
	}
	return &info, nil
}
