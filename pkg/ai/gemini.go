package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/johnquangdev/shot-analyzer/pkg/config"
)

// GeminiClient wraps the Gemini SDK for single-turn multimodal requests
type GeminiClient struct {
	apiKey string
	model  string
	client *genai.Client
}

// NewGeminiClient creates a Gemini client using values from the provided config.
// Pass a nil config to fall back to environment variables. Without an API
// key no SDK client is built and every call fails fast.
func NewGeminiClient(ctx context.Context, cfg *config.GeminiConfig) (*GeminiClient, error) {
	var apiKey, base, model string
	timeout := 60 * time.Second
	if cfg != nil {
		apiKey = cfg.APIKey
		base = cfg.BaseURL
		model = cfg.Model
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	g := &GeminiClient{
		apiKey: strings.TrimSpace(apiKey),
		model:  model,
	}
	if g.apiKey == "" {
		return g, nil
	}

	cc := &genai.ClientConfig{
		APIKey:     g.apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
	}
	if base != "" {
		cc.HTTPOptions.BaseURL = strings.TrimRight(base, "/") + "/"
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	g.client = client
	return g, nil
}

// HasCredential reports whether requests can be authenticated
func (g *GeminiClient) HasCredential() bool {
	return g != nil && g.apiKey != "" && g.client != nil
}

// Model returns the configured model name
func (g *GeminiClient) Model() string {
	return g.model
}

// Part is one piece of multimodal content
type Part struct {
	Text       string
	InlineData *InlineData
}

// InlineData carries raw bytes sent inline with the request
type InlineData struct {
	MimeType string
	Data     []byte
}

// TextPart builds a text part
func TextPart(text string) Part {
	return Part{Text: text}
}

// ImagePart builds an inline image part
func ImagePart(mimeType string, data []byte) Part {
	return Part{InlineData: &InlineData{MimeType: mimeType, Data: data}}
}

func (p Part) toSDK() *genai.Part {
	if p.InlineData != nil {
		return genai.NewPartFromBytes(p.InlineData.Data, p.InlineData.MimeType)
	}
	return genai.NewPartFromText(p.Text)
}

// HTTPError is returned when the API answers with an error status
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("gemini returned status %d: %s", e.StatusCode, e.Body)
}

// GenerateContent sends a single-turn multimodal request and returns the
// concatenated text of the first candidate. Requests are not retried.
func (g *GeminiClient) GenerateContent(ctx context.Context, parts []Part) (string, error) {
	if !g.HasCredential() {
		return "", fmt.Errorf("gemini api key not configured")
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no content parts")
	}

	sdkParts := make([]*genai.Part, 0, len(parts))
	for _, p := range parts {
		sdkParts = append(sdkParts, p.toSDK())
	}
	contents := []*genai.Content{genai.NewContentFromParts(sdkParts, genai.RoleUser)}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.2),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return "", &HTTPError{StatusCode: apiErr.Code, Status: apiErr.Status, Body: apiErr.Message}
		}
		return "", err
	}

	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("gemini blocked prompt: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	candidate := resp.Candidates[0]
	var sb strings.Builder
	if candidate.Content != nil {
		for _, p := range candidate.Content.Parts {
			if p != nil && !p.Thought {
				sb.WriteString(p.Text)
			}
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty response from gemini (finish reason %q)", candidate.FinishReason)
	}
	return sb.String(), nil
}
