package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Reply is one scripted outcome of FakeClient.Complete.
type Reply struct {
	Text string
	Err  error
}

// FakeClient answers Complete from a script, one Reply per call. When the
// script is exhausted, or empty, Respond is used; when Respond is nil a
// deterministic placeholder derived from the prompt is returned.
type FakeClient struct {
	Script  []Reply
	Respond func(req ChatRequest) (string, error)

	mu    sync.Mutex
	calls []ChatRequest
}

func NewFakeClient(script ...Reply) *FakeClient {
	return &FakeClient{Script: script}
}

func (f *FakeClient) Name() string { return "Fake:scripted" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	n := len(f.calls)
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if n < len(f.Script) {
		r := f.Script[n]
		return r.Text, r.Err
	}
	if f.Respond != nil {
		return f.Respond(req)
	}
	return placeholder(req.User), nil
}

// Calls returns a copy of every request seen so far.
func (f *FakeClient) Calls() []ChatRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]ChatRequest, len(f.calls))
	copy(out, f.calls)
	return out
}

func placeholder(prompt string) string {
	first := prompt
	if i := strings.IndexByte(first, '\n'); i >= 0 {
		first = first[:i]
	}
	if len(first) > 80 {
		first = first[:80]
	}
	return fmt.Sprintf("Draft text generated offline for: %s", strings.TrimSpace(first))
}
