package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/forgo/herald/internal/model"
)

// ContentGenerator turns generation parameters into raw model text, which
// is expected to be a JSON object.
type ContentGenerator interface {
	Generate(ctx context.Context, req *model.GenerateRequest) (string, error)
	Model() string
}

// GeminiGenerator calls the Gemini generateContent REST endpoint.
type GeminiGenerator struct {
	client  *http.Client
	apiKey  string
	baseURL string
	model   string
}

// GeminiGeneratorConfig holds configuration for the Gemini generator
type GeminiGeneratorConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// NewGeminiGenerator creates a new Gemini-backed generator
func NewGeminiGenerator(cfg GeminiGeneratorConfig) *GeminiGenerator {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &GeminiGenerator{
		client:  &http.Client{Timeout: timeout},
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		model:   cfg.Model,
	}
}

// Model returns the model identifier echoed in responses
func (g *GeminiGenerator) Model() string {
	return g.model
}

type geminiRequest struct {
	Contents         []geminiContent         `json:"contents"`
	GenerationConfig *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	ResponseMIMEType string `json:"responseMimeType,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Generate sends the prompt and returns the candidate text with any
// markdown code fence removed.
func (g *GeminiGenerator) Generate(ctx context.Context, req *model.GenerateRequest) (string, error) {
	payload, err := json.Marshal(geminiRequest{
		Contents: []geminiContent{{Role: "user", Parts: []geminiPart{{Text: BuildPrompt(req)}}}},
	})
	if err != nil {
		return "", fmt.Errorf("gemini: marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("gemini: create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read body: %v", ErrGenerationFailed, err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%w: unexpected status %s: %s", ErrGenerationFailed, resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed geminiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", ErrGenerationFailed, err)
	}
	if parsed.PromptFeedback != nil && parsed.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("%w: prompt blocked: %s", ErrGenerationFailed, parsed.PromptFeedback.BlockReason)
	}

	var text strings.Builder
	for _, c := range parsed.Candidates {
		for _, p := range c.Content.Parts {
			text.WriteString(p.Text)
		}
		if text.Len() > 0 {
			break
		}
	}
	if text.Len() == 0 {
		return "", fmt.Errorf("%w: %w", ErrGenerationFailed, ErrEmptyGeneration)
	}
	return StripCodeFence(text.String()), nil
}

// BuildPrompt renders the instruction sent to the model
func BuildPrompt(req *model.GenerateRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate a marketing %s for %s. ", req.ContentType, req.Platform)
	fmt.Fprintf(&b, "The business is '%s' in the '%s' industry. ", req.BusinessName, req.Industry)
	fmt.Fprintf(&b, "The desired tone is '%s'. ", req.Tone)
	fmt.Fprintf(&b, "The use case is '%s'. ", req.UseCase)
	b.WriteString("\n\nIMPORTANT: Return the result strictly as a valid JSON object. ")
	b.WriteString("Do not include any markdown formatting, backticks, or explanations outside the JSON. ")
	b.WriteString("The JSON object must have the following fields:\n")
	b.WriteString("- headline (string)\n")
	b.WriteString("- content (string: the main body text)\n")
	b.WriteString("- tagline (string)\n")
	b.WriteString("- hashtags (array of strings)\n")
	b.WriteString("- mentions (array of strings)\n")
	b.WriteString("- aiScore (integer 0-100)\n")
	b.WriteString("- predictedEngagement (object with fields: likes, comments, shares)\n")
	return b.String()
}

var codeFence = regexp.MustCompile("(?s)^```(?:json)?\\n?|\\n?```$")

// StripCodeFence removes a leading ``` or ```json line and a trailing ```
func StripCodeFence(s string) string {
	return strings.TrimSpace(codeFence.ReplaceAllString(strings.TrimSpace(s), ""))
}

// ParseFailedMarker is reported when model output is not a JSON object
const ParseFailedMarker = "Failed to parse AI JSON response"

// ParseGeneratedContent decodes model output. When the text is not a JSON
// object the raw text becomes the content and ok is false.
func ParseGeneratedContent(raw string) (content model.GeneratedContent, ok bool) {
	if !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return model.GeneratedContent{Content: raw}, false
	}
	if err := json.Unmarshal([]byte(raw), &content); err != nil {
		return model.GeneratedContent{Content: raw}, false
	}
	return content, true
}
