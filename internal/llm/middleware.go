package llm

import (
	"context"
	"errors"
	"time"

	llmclient "patentai/internal/llmClient"
	"patentai/internal/logger"
)

// Middleware decorates a Client to inject cross-cutting concerns.
type Middleware func(Client) Client

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// -------- Rate Limiting --------

// RateLimit caps the request rate across every caller sharing the returned
// client. If rps <= 0, the limiter is disabled.
func RateLimit(rps float64, burst int) Middleware {
	return func(next Client) Client {
		return &rateLimited{next: next, rl: newRPSLimiter(rps, burst)}
	}
}

type rateLimited struct {
	next Client
	rl   *rpsLimiter
}

func (c *rateLimited) Name() string { return c.next.Name() }
func (c *rateLimited) Close() error {
	c.rl.Stop()
	return c.next.Close()
}
func (c *rateLimited) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if err := c.rl.Acquire(ctx); err != nil {
		return "", err
	}
	return c.next.Complete(ctx, req)
}

// -------- Logging --------

// WithLogging logs prompt size, latency and failures. A nil logger disables
// output.
func WithLogging(log *logger.Logger) Middleware {
	log = logger.OrNop(log)
	return func(next Client) Client {
		return &logging{next: next, log: log}
	}
}

type logging struct {
	next Client
	log  *logger.Logger
}

func (l *logging) Name() string { return l.next.Name() }
func (l *logging) Close() error { return l.next.Close() }
func (l *logging) Complete(ctx context.Context, req ChatRequest) (string, error) {
	start := time.Now()
	l.log.Debug("llm request", "client", l.next.Name(), "prompt_bytes", len(req.System)+len(req.User))
	out, err := l.next.Complete(ctx, req)
	elapsed := time.Since(start).Milliseconds()
	switch {
	case err == nil:
		l.log.Debug("llm response", "client", l.next.Name(), "bytes", len(out), "elapsed_ms", elapsed)
	case errors.Is(err, llmclient.ErrRateLimited):
		l.log.Warn("llm rate limited", "client", l.next.Name(), "elapsed_ms", elapsed, "error", err)
	default:
		l.log.Error("llm error", "client", l.next.Name(), "elapsed_ms", elapsed, "error", err)
	}
	return out, err
}
