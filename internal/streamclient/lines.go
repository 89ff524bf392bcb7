// Package streamclient consumes a generation event stream: it line-buffers
// the response body, decodes "data:" frames and tracks per-section state
// until the stream completes or fails.
package streamclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"patentai/internal/generation"
)

// LineBuffer splits an incrementally read byte stream into lines. A line is
// only returned once its terminating newline has arrived.
type LineBuffer struct {
	pending []byte
}

// Feed appends p and returns every line it completed, without the newline
// or a trailing carriage return.
func (b *LineBuffer) Feed(p []byte) []string {
	b.pending = append(b.pending, p...)
	var lines []string
	for {
		i := bytes.IndexByte(b.pending, '\n')
		if i < 0 {
			break
		}
		line := b.pending[:i]
		line = bytes.TrimSuffix(line, []byte{'\r'})
		lines = append(lines, string(line))
		b.pending = b.pending[i+1:]
	}
	if len(b.pending) == 0 {
		b.pending = nil
	}
	return lines
}

// Pending returns the buffered partial line.
func (b *LineBuffer) Pending() string { return string(b.pending) }

const dataPrefix = "data: "

// ParseLine decodes one event-stream line. ok is false for lines that carry
// no event (comments, other fields, blank data). A malformed payload returns
// an error; callers log it and continue.
func ParseLine(line string) (e generation.Event, ok bool, err error) {
	payload, found := strings.CutPrefix(line, dataPrefix)
	if !found {
		return generation.Event{}, false, nil
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return generation.Event{}, false, nil
	}
	if err := json.Unmarshal([]byte(payload), &e); err != nil {
		return generation.Event{}, false, fmt.Errorf("malformed event %q: %w", truncate(payload, 120), err)
	}
	if e.Type == "" {
		return generation.Event{}, false, fmt.Errorf("event without type: %q", truncate(payload, 120))
	}
	return e, true, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
