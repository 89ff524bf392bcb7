package streamclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"

	"patentai/internal/generation"
	"patentai/internal/logger"
	"patentai/internal/patent"
)

const DefaultStreamPath = "/api/generate-patent-stream"

// GenerateRequest is the body posted to the stream endpoint.
type GenerateRequest = patent.GenerationRequest

// Outcome is a completed stream.
type Outcome struct {
	RunID    string
	Document string
	Sections []Section
}

// StreamError is a failed generation: a rejected request (StatusCode set),
// an error event, or a stream that ended early.
type StreamError struct {
	StatusCode int
	Message    string
}

func (e *StreamError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation rejected (%d): %s", e.StatusCode, e.Message)
	}
	return "generation failed: " + e.Message
}

// Client talks to a gateway's stream endpoint.
type Client struct {
	BaseURL string
	Path    string // DefaultStreamPath when empty
	HTTP    *http.Client
	Logger  *logger.Logger
}

func New(baseURL string, log *logger.Logger) *Client {
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: &http.Client{}, Logger: log}
}

// Generate posts req and consumes the stream until complete or error.
// onEvent, if non-nil, sees every decoded event after the tracker applied it.
// It does not retry.
func (c *Client) Generate(ctx context.Context, req GenerateRequest, onEvent func(generation.Event, *Tracker)) (Outcome, error) {
	log := logger.OrNop(c.Logger)
	body, err := json.Marshal(req)
	if err != nil {
		return Outcome{}, err
	}
	path := c.Path
	if path == "" {
		path = DefaultStreamPath
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return Outcome{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(httpReq)
	if err != nil {
		return Outcome{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Outcome{}, rejection(resp)
	}

	tracker := NewTracker(patent.Sections())
	runID := resp.Header.Get("X-Run-Id")
	out, err := Consume(ctx, resp.Body, tracker, log, onEvent)
	out.RunID = runID
	return out, err
}

// Consume reads an event stream from r into tracker.
func Consume(ctx context.Context, r io.Reader, tracker *Tracker, log *logger.Logger, onEvent func(generation.Event, *Tracker)) (Outcome, error) {
	log = logger.OrNop(log)
	var lb LineBuffer
	buf := make([]byte, 4096)
	for {
		n, readErr := r.Read(buf)
		for _, line := range lb.Feed(buf[:n]) {
			e, ok, err := ParseLine(line)
			if err != nil {
				log.Warn("skipping stream line", "error", err)
				continue
			}
			if !ok {
				continue
			}
			if !tracker.Apply(e) {
				log.Warn("dropping out-of-order event", "type", e.Type, "section", e.Section)
				continue
			}
			if onEvent != nil {
				onEvent(e, tracker)
			}
			switch e.Type {
			case generation.EventComplete:
				return Outcome{Document: tracker.Document(), Sections: tracker.Sections()}, nil
			case generation.EventError:
				msg, _ := tracker.Failure()
				return Outcome{Sections: tracker.Sections()}, &StreamError{Message: msg}
			}
		}
		if readErr != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Outcome{Sections: tracker.Sections()}, ctxErr
			}
			if errors.Is(readErr, io.EOF) {
				return Outcome{Sections: tracker.Sections()}, &StreamError{Message: "stream ended before completion"}
			}
			return Outcome{Sections: tracker.Sections()}, readErr
		}
	}
}

func rejection(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var body struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	msg := strings.TrimSpace(string(raw))
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = "Failed to start patent generation"
	}
	return &StreamError{StatusCode: resp.StatusCode, Message: msg}
}

// ErrAlreadyStarted is returned by a second Start on the same Run.
var ErrAlreadyStarted = errors.New("generation already started")

// Run is a single logical "start generation" action. Start succeeds at most
// once until Reset.
type Run struct {
	client  *Client
	started atomic.Bool
}

func NewRun(c *Client) *Run { return &Run{client: c} }

func (r *Run) Start(ctx context.Context, req GenerateRequest, onEvent func(generation.Event, *Tracker)) (Outcome, error) {
	if !r.started.CompareAndSwap(false, true) {
		return Outcome{}, ErrAlreadyStarted
	}
	return r.client.Generate(ctx, req, onEvent)
}

// Reset allows the run to be started again, e.g. for a user-initiated retry.
func (r *Run) Reset() { r.started.Store(false) }
