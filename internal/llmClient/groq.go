package llmclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"patentai/internal/logger"
)

const (
	DefaultGroqURL   = "https://api.groq.com/openai/v1/chat/completions"
	DefaultGroqModel = "llama-3.1-8b-instant"
)

// GroqClient calls the Groq Chat Completions API (OpenAI-compatible) over
// plain HTTP, with FetchWithRetry applied to every call.
// See: https://console.groq.com/docs/api-reference
type GroqClient struct {
	http    Doer
	apiKey  string
	model   string
	baseURL string
	retrier *Retrier
}

// GroqOption customizes a GroqClient.
type GroqOption func(*GroqClient)

func WithGroqBaseURL(u string) GroqOption {
	return func(g *GroqClient) {
		if strings.TrimSpace(u) != "" {
			g.baseURL = u
		}
	}
}

func WithGroqHTTP(d Doer) GroqOption {
	return func(g *GroqClient) {
		if d != nil {
			g.http = d
		}
	}
}

func WithGroqRetrier(r *Retrier) GroqOption {
	return func(g *GroqClient) {
		if r != nil {
			g.retrier = r
		}
	}
}

// NewGroqClient creates a Groq client. If apiKey is empty, it falls back to
// GROQ_API_KEY.
func NewGroqClient(apiKey, model string, log *logger.Logger, opts ...GroqOption) (*GroqClient, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GROQ_API_KEY")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("groq: api key missing; set GROQ_API_KEY")
	}
	if model == "" {
		model = DefaultGroqModel
	}
	g := &GroqClient{
		http:    &http.Client{Timeout: 90 * time.Second},
		apiKey:  apiKey,
		model:   model,
		baseURL: DefaultGroqURL,
		retrier: &Retrier{Policy: GroqRetryPolicy, Logger: log},
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

func (g *GroqClient) Name() string { return "Groq:" + g.model }
func (g *GroqClient) Close() error { return nil }

type groqChatReq struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
	Stream      bool          `json:"stream"`
}
type groqMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}
type groqChatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one system+user exchange and returns the first choice.
func (g *GroqClient) Complete(ctx context.Context, in ChatRequest) (string, error) {
	body := groqChatReq{
		Model: g.model,
		Messages: []groqMessage{
			{Role: "system", Content: in.System},
			{Role: "user", Content: in.User},
		},
		Temperature: temperatureOr(in.Temperature),
		MaxTokens:   maxTokensOr(in.MaxTokens),
		TopP:        1,
		Stream:      false,
	}
	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.retrier.Do(ctx, g.http, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out groqChatResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("groq: decode response: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return out.Choices[0].Message.Content, nil
}

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 1024
)

func temperatureOr(t float64) float64 {
	if t <= 0 {
		return defaultTemperature
	}
	return t
}

func maxTokensOr(n int) int {
	if n <= 0 {
		return defaultMaxTokens
	}
	return n
}
