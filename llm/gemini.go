package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"google.golang.org/genai"
)

// GeminiProvider классифицирует сообщения через Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

var _ Provider = (*GeminiProvider)(nil)

// NewGeminiProvider создаёт провайдера. genai не повторяет запросы сам,
// поэтому транспорт берётся из retryablehttp.
func NewGeminiProvider(ctx context.Context, cfg Config) (*GeminiProvider, error) {
	return newGeminiProvider(ctx, cfg, retryingHTTPClient(500*time.Millisecond, 5*time.Second))
}

func retryingHTTPClient(waitMin, waitMax time.Duration) *http.Client {
	client := retryablehttp.NewClient()
	client.RetryMax = maxRetries
	client.RetryWaitMin = waitMin
	client.RetryWaitMax = waitMax
	client.Logger = nil
	return client.StandardClient()
}

func newGeminiProvider(ctx context.Context, cfg Config, httpClient *http.Client) (*GeminiProvider, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL + "/"}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiProvider{client: client, model: model}, nil
}

// ID возвращает имя провайдера.
func (g *GeminiProvider) ID() string { return "gemini" }

// Classify передаёт политику через SystemInstruction с нулевой температурой.
func (g *GeminiProvider) Classify(ctx context.Context, policy, text string) (string, error) {
	systemInstruction := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{genai.NewPartFromText(policy)},
	}

	userContent := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{genai.NewPartFromText(text)},
	}

	config := &genai.GenerateContentConfig{
		SystemInstruction: systemInstruction,
		Temperature:       genai.Ptr(float32(0)),
		MaxOutputTokens:   maxVerdictTokens,
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{userContent}, config)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no response candidates returned")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		if candidate.FinishReason != "" {
			return "", fmt.Errorf("blocked by safety settings (%s)", candidate.FinishReason)
		}
		return "", fmt.Errorf("empty response content")
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
