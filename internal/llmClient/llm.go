package llmclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ChatRequest is a single-turn chat completion: one system instruction and
// one user message.
type ChatRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// Client is implemented by every provider and by every middleware layer.
type Client interface {
	Name() string
	Complete(ctx context.Context, req ChatRequest) (string, error)
	Close() error
}

// ErrRateLimited matches a *RateLimitError via errors.Is.
var ErrRateLimited = errors.New("rate limited")

// ErrEmptyResponse is returned when a provider answers 2xx without any text.
var ErrEmptyResponse = errors.New("empty response from LLM")

// StatusError is a non-2xx provider response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	if e.Body == "" {
		return "API Error: " + status
	}
	return fmt.Sprintf("API Error: %s - %s", status, e.Body)
}

// RateLimitError means every attempt was answered with 429. It is the soft
// failure callers may degrade on instead of aborting.
type RateLimitError struct {
	Attempts   int
	RetryAfter time.Duration
	Last       error
}

func (e *RateLimitError) Error() string {
	msg := "Unknown error"
	if e.Last != nil {
		msg = e.Last.Error()
	}
	return fmt.Sprintf("API request failed after %d attempts: %s", e.Attempts, msg)
}

func (e *RateLimitError) Is(target error) bool { return target == ErrRateLimited }
func (e *RateLimitError) Unwrap() error        { return e.Last }

// StatusCode is always 429.
func (e *RateLimitError) StatusCode() int { return http.StatusTooManyRequests }
