package llmclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"patentai/internal/logger"
)

// RetryPolicy holds the numeric constants of a provider's retry behaviour.
// MaxRetries counts retries, so a request is attempted MaxRetries+1 times.
type RetryPolicy struct {
	MaxRetries     int
	InitialDelay   time.Duration
	RateLimitFloor time.Duration // minimum wait after a 429 without retry-after
	RateLimitCap   time.Duration // ceiling for the delay after a 429, retry-after included
	ErrorCap       time.Duration // ceiling for the delay after other failures
}

var (
	GroqRetryPolicy = RetryPolicy{
		MaxRetries:     2,
		InitialDelay:   time.Second,
		RateLimitFloor: 2 * time.Second,
		RateLimitCap:   30 * time.Second,
		ErrorCap:       15 * time.Second,
	}
	GeminiRetryPolicy = RetryPolicy{
		MaxRetries:     2,
		InitialDelay:   5 * time.Second,
		RateLimitFloor: 10 * time.Second,
		RateLimitCap:   60 * time.Second,
		ErrorCap:       30 * time.Second,
	}
)

// maxErrorBody bounds how much of a failed response body is kept.
const maxErrorBody = 2048

// Doer sends one HTTP request. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retrier applies a RetryPolicy to outbound requests.
type Retrier struct {
	Policy RetryPolicy
	Sleep  Sleeper
	Logger *logger.Logger
}

// FetchWithRetry sends req through doer with the given policy.
//
// A 429 waits for retry-after (or max(delay, RateLimitFloor)), never longer
// than RateLimitCap, and doubles the delay up to RateLimitCap. Any other non-2xx status and network failures wait
// the current delay and double it up to ErrorCap. When attempts run out the
// error is a *RateLimitError if the last attempt was a 429, otherwise the last
// *StatusError or transport error.
func FetchWithRetry(ctx context.Context, doer Doer, req *http.Request, policy RetryPolicy) (*http.Response, error) {
	r := &Retrier{Policy: policy}
	return r.Do(ctx, doer, req)
}

// Do runs the retry loop. The returned response, if any, is 2xx and its body
// is owned by the caller.
func (r *Retrier) Do(ctx context.Context, doer Doer, req *http.Request) (*http.Response, error) {
	sleep := r.Sleep
	if sleep == nil {
		sleep = SleepContext
	}
	log := logger.OrNop(r.Logger)
	p := r.Policy
	if p.MaxRetries < 0 {
		p.MaxRetries = 0
	}

	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	var last error
	rateLimited := false
	var lastRetryAfter time.Duration
	delay := p.InitialDelay
	attempts := p.MaxRetries + 1

	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		final := attempt == attempts-1

		outReq := req.Clone(ctx)
		if getBody != nil {
			body, err := getBody()
			if err != nil {
				return nil, fmt.Errorf("rewind request body: %w", err)
			}
			outReq.Body = body
		}

		resp, err := doer.Do(outReq)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			last = err
			rateLimited = false
			log.Warn("provider request failed", "attempt", attempt+1, "max_attempts", attempts, "error", err)
			if !final {
				if err := sleep(ctx, delay); err != nil {
					return nil, err
				}
				delay = minDuration(delay*2, p.ErrorCap)
			}
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			headers, _ := ParseRateLimitHeaders(resp.Header)
			drain(resp)
			wait := headers.RetryAfter
			if wait <= 0 {
				wait = maxDuration(delay, p.RateLimitFloor)
			}
			if p.RateLimitCap > 0 {
				wait = minDuration(wait, p.RateLimitCap)
			}
			last = &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
			rateLimited = true
			lastRetryAfter = headers.RetryAfter
			log.Info("rate limited", "attempt", attempt+1, "max_attempts", attempts, "wait", wait.String())
			if !final {
				if err := sleep(ctx, wait); err != nil {
					return nil, err
				}
				delay = minDuration(delay*2, p.RateLimitCap)
			}
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			if headers, ok := ParseRateLimitHeaders(resp.Header); ok {
				log.Debug("provider quota", "remaining_requests", headers.RemainingRequests, "remaining_tokens", headers.RemainingTokens)
			}
			return resp, nil
		}

		statusErr := readStatusError(resp)
		last = statusErr
		rateLimited = false
		log.Error("provider error response", "attempt", attempt+1, "max_attempts", attempts, "status", statusErr.StatusCode, "body", statusErr.Body)
		if !final {
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
			delay = minDuration(delay*2, p.ErrorCap)
		}
	}

	if rateLimited {
		return nil, &RateLimitError{Attempts: attempts, RetryAfter: lastRetryAfter, Last: last}
	}
	if last == nil {
		last = errors.New("request was not attempted")
	}
	return nil, fmt.Errorf("API request failed after %d attempts: %w", attempts, last)
}

// RetryTransport applies a Retrier at the RoundTripper level so SDK clients
// that only accept an *http.Client get the same behaviour. Non-2xx outcomes
// surface as errors from RoundTrip.
type RetryTransport struct {
	Base    http.RoundTripper
	Retrier *Retrier
}

func (t *RetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	r := t.Retrier
	if r == nil {
		r = &Retrier{}
	}
	return r.Do(req.Context(), roundTripDoer{base}, req)
}

type roundTripDoer struct{ rt http.RoundTripper }

func (d roundTripDoer) Do(req *http.Request) (*http.Response, error) { return d.rt.RoundTrip(req) }

// replayableBody returns a factory for fresh copies of the request body.
func replayableBody(req *http.Request) (func() (io.ReadCloser, error), error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		return req.GetBody, nil
	}
	data, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("buffer request body: %w", err)
	}
	return func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	}, nil
}

func readStatusError(resp *http.Response) *StatusError {
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(bytes.TrimSpace(body))}
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
}

func minDuration(a, b time.Duration) time.Duration {
	if b > 0 && a > b {
		return b
	}
	return a
}

func maxDuration(a, b time.Duration) time.Duration {
	if a > b {
		return a
	}
	return b
}
