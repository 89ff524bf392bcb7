package llmclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noSleep(context.Context, time.Duration) error { return nil }

func TestGroqClient_Complete(t *testing.T) {
	var got groqChatReq
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("x-ratelimit-remaining-requests", "99")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"A Widget"}}]}`))
	}))
	defer srv.Close()

	c, err := NewGroqClient("test-key", "", nil,
		WithGroqBaseURL(srv.URL),
		WithGroqRetrier(&Retrier{Policy: GroqRetryPolicy, Sleep: noSleep}),
	)
	require.NoError(t, err)

	out, err := c.Complete(context.Background(), ChatRequest{System: "sys", User: "write a title"})
	require.NoError(t, err)
	assert.Equal(t, "A Widget", out)
	assert.Equal(t, "Groq:"+DefaultGroqModel, c.Name())

	assert.Equal(t, DefaultGroqModel, got.Model)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, groqMessage{Role: "system", Content: "sys"}, got.Messages[0])
	assert.Equal(t, groqMessage{Role: "user", Content: "write a title"}, got.Messages[1])
	assert.Equal(t, 0.7, got.Temperature)
	assert.Equal(t, 1024, got.MaxTokens)
	assert.Equal(t, 1.0, got.TopP)
	assert.False(t, got.Stream)
}

func TestGroqClient_RateLimitedIsSoft(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c, err := NewGroqClient("k", "m", nil,
		WithGroqBaseURL(srv.URL),
		WithGroqRetrier(&Retrier{Policy: GroqRetryPolicy, Sleep: noSleep}),
	)
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), ChatRequest{User: "x"})
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.Equal(t, 3, calls)
}

func TestGroqClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c, err := NewGroqClient("k", "m", nil, WithGroqBaseURL(srv.URL))
	require.NoError(t, err)
	_, err = c.Complete(context.Background(), ChatRequest{User: "x"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestNewGroqClient_RequiresKey(t *testing.T) {
	t.Setenv("GROQ_API_KEY", "")
	_, err := NewGroqClient("", "", nil)
	assert.Error(t, err)
}

func TestProfileFor(t *testing.T) {
	p, err := ProfileFor(" Gemini ")
	require.NoError(t, err)
	assert.Equal(t, "Gemini", p.DisplayName)
	assert.Equal(t, 5*time.Second, p.Pacing.SectionGap)
	assert.Equal(t, GeminiRetryPolicy, p.Retry)

	p, err = ProfileFor("openai")
	require.NoError(t, err)
	assert.Equal(t, GroqRetryPolicy, p.Retry)

	_, err = ProfileFor("anthropic")
	assert.Error(t, err)

	for _, name := range Providers() {
		p, err := ProfileFor(name)
		require.NoError(t, err)
		assert.Positive(t, p.Pacing.ChunkSize, name)
	}
}
