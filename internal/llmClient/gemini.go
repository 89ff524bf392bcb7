package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"patentai/internal/logger"
)

const DefaultGeminiModel = "gemini-1.5-flash"

// GeminiClient is a thin wrapper around the official genai client. Retries
// run inside the HTTP transport handed to genai, so a 429 that outlives the
// policy comes back as a *RateLimitError.
type GeminiClient struct {
	cli   *genai.Client
	model string
}

// GeminiConfig holds the knobs NewGeminiClient needs. BaseURL and Transport
// are for tests.
type GeminiConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	Transport http.RoundTripper
	Retrier   *Retrier
	Logger    *logger.Logger
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("gemini: api key missing; set GEMINI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultGeminiModel
	}
	retrier := cfg.Retrier
	if retrier == nil {
		retrier = &Retrier{Policy: GeminiRetryPolicy, Logger: cfg.Logger}
	}
	hc := &http.Client{
		Timeout:   3 * time.Minute,
		Transport: &RetryTransport{Base: cfg.Transport, Retrier: retrier},
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: hc,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	cli, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &GeminiClient{cli: cli, model: cfg.Model}, nil
}

func (g *GeminiClient) Name() string { return "Gemini:" + g.model }
func (g *GeminiClient) Close() error { return nil }

func (g *GeminiClient) Complete(ctx context.Context, in ChatRequest) (string, error) {
	conf := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(temperatureOr(in.Temperature))),
		TopK:            genai.Ptr[float32](40),
		TopP:            genai.Ptr[float32](0.95),
		MaxOutputTokens: int32(maxTokensOr(in.MaxTokens)),
	}
	if in.System != "" {
		conf.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: in.System}}}
	}
	resp, err := g.cli.Models.GenerateContent(ctx, g.model, genai.Text(in.User), conf)
	if err != nil {
		return "", err
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	txt := resp.Candidates[0].Content.Parts[0].Text
	if txt == "" {
		return "", ErrEmptyResponse
	}
	return txt, nil
}
