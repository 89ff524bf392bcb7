package llm

import (
	"context"
	"fmt"

	llmclient "patentai/internal/llmClient"
	"patentai/internal/logger"
)

// Settings selects and configures one provider.
type Settings struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	RPS      float64 // overrides the profile when > 0
	Burst    int
}

// NewClient builds the configured provider, wraps it with rate limiting and
// logging, and returns it with the profile the orchestrator should pace by.
func NewClient(ctx context.Context, s Settings, log *logger.Logger) (Client, llmclient.Profile, error) {
	profile, err := llmclient.ProfileFor(s.Provider)
	if err != nil {
		return nil, llmclient.Profile{}, err
	}
	if s.Model != "" {
		profile.Model = s.Model
	}
	if s.RPS > 0 {
		profile.RPS = s.RPS
		profile.Burst = s.Burst
	}
	retrier := &llmclient.Retrier{Policy: profile.Retry, Logger: log}

	var base Client
	switch profile.Provider {
	case llmclient.ProviderGroq:
		opts := []llmclient.GroqOption{llmclient.WithGroqRetrier(retrier)}
		if s.BaseURL != "" {
			opts = append(opts, llmclient.WithGroqBaseURL(s.BaseURL))
		}
		base, err = llmclient.NewGroqClient(s.APIKey, profile.Model, log, opts...)
	case llmclient.ProviderGemini:
		base, err = llmclient.NewGeminiClient(ctx, llmclient.GeminiConfig{
			APIKey: s.APIKey, Model: profile.Model, BaseURL: s.BaseURL, Retrier: retrier, Logger: log,
		})
	case llmclient.ProviderOpenAI:
		base, err = llmclient.NewOpenAIClient(llmclient.OpenAIConfig{
			APIKey: s.APIKey, Model: profile.Model, BaseURL: s.BaseURL, Retrier: retrier, Logger: log,
		})
	case llmclient.ProviderFake:
		base = NewFakeClient()
	default:
		err = fmt.Errorf("unsupported llm provider %q", profile.Provider)
	}
	if err != nil {
		return nil, llmclient.Profile{}, err
	}

	cli := Wrap(base,
		WithLogging(log),
		RateLimit(profile.RPS, profile.Burst),
	)
	return cli, profile, nil
}
