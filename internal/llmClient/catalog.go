package llmclient

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProviderGroq   = "groq"
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderFake   = "fake"
)

// Pacing is the presentation and quota pacing applied by the orchestrator
// around provider calls.
type Pacing struct {
	SectionGap   time.Duration // before every section except the first
	ChunkSize    int           // tokens per content event
	ChunkDelay   time.Duration // between content events
	AfterSection time.Duration // after section_complete
}

// Profile is the injected provider configuration: which vendor, how it
// retries, how generation is paced and how fast requests may be issued.
type Profile struct {
	Provider    string
	DisplayName string
	Model       string
	Retry       RetryPolicy
	Pacing      Pacing
	RPS         float64
	Burst       int
}

var (
	GroqPacing = Pacing{
		SectionGap:   500 * time.Millisecond,
		ChunkSize:    3,
		ChunkDelay:   30 * time.Millisecond,
		AfterSection: 200 * time.Millisecond,
	}
	GeminiPacing = Pacing{
		SectionGap:   5 * time.Second,
		ChunkSize:    3,
		ChunkDelay:   30 * time.Millisecond,
		AfterSection: time.Second,
	}
)

var profiles = map[string]Profile{
	ProviderGroq: {
		Provider:    ProviderGroq,
		DisplayName: "Groq",
		Model:       DefaultGroqModel,
		Retry:       GroqRetryPolicy,
		Pacing:      GroqPacing,
	},
	ProviderGemini: {
		Provider:    ProviderGemini,
		DisplayName: "Gemini",
		Model:       DefaultGeminiModel,
		Retry:       GeminiRetryPolicy,
		Pacing:      GeminiPacing,
		RPS:         0.25,
		Burst:       1,
	},
	ProviderOpenAI: {
		Provider:    ProviderOpenAI,
		DisplayName: "OpenAI",
		Model:       DefaultOpenAIModel,
		Retry:       GroqRetryPolicy,
		Pacing:      GroqPacing,
	},
	ProviderFake: {
		Provider:    ProviderFake,
		DisplayName: "Fake",
		Model:       "scripted",
		Retry:       RetryPolicy{},
		Pacing:      Pacing{ChunkSize: 3},
	},
}

// ProfileFor returns the built-in profile for a provider name.
func ProfileFor(provider string) (Profile, error) {
	p, ok := profiles[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return Profile{}, fmt.Errorf("unknown llm provider %q", provider)
	}
	return p, nil
}

// Providers lists the known provider names.
func Providers() []string {
	return []string{ProviderGroq, ProviderGemini, ProviderOpenAI, ProviderFake}
}
