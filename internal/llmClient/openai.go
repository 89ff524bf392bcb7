package llmclient

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"patentai/internal/logger"
)

const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAIClient talks to any OpenAI-compatible chat completions endpoint via
// the official SDK. SDK retries are disabled; RetryTransport owns them.
type OpenAIClient struct {
	cli   openai.Client
	model string
}

type OpenAIConfig struct {
	APIKey    string
	Model     string
	BaseURL   string
	Transport http.RoundTripper
	Retrier   *Retrier
	Logger    *logger.Logger
}

func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai: api key missing; set OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	retrier := cfg.Retrier
	if retrier == nil {
		retrier = &Retrier{Policy: GroqRetryPolicy, Logger: cfg.Logger}
	}
	hc := &http.Client{
		Timeout:   2 * time.Minute,
		Transport: &RetryTransport{Base: cfg.Transport, Retrier: retrier},
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(hc),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAIClient{cli: openai.NewClient(opts...), model: cfg.Model}, nil
}

func (o *OpenAIClient) Name() string { return "OpenAI:" + o.model }
func (o *OpenAIClient) Close() error { return nil }

func (o *OpenAIClient) Complete(ctx context.Context, in ChatRequest) (string, error) {
	msgs := []openai.ChatCompletionMessageParamUnion{}
	if in.System != "" {
		msgs = append(msgs, openai.SystemMessage(in.System))
	}
	msgs = append(msgs, openai.UserMessage(in.User))

	resp, err := o.cli.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    msgs,
		Temperature: openai.Float(temperatureOr(in.Temperature)),
		MaxTokens:   openai.Int(int64(maxTokensOr(in.MaxTokens))),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
