package generation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Emitter delivers events to one consumer. A non-nil error means the
// consumer is gone and the run must stop.
type Emitter interface {
	Emit(ctx context.Context, e Event) error
}

// EmitterFunc adapts a function to Emitter.
type EmitterFunc func(ctx context.Context, e Event) error

func (f EmitterFunc) Emit(ctx context.Context, e Event) error { return f(ctx, e) }

var ErrStreamingUnsupported = errors.New("streaming unsupported")

// SetSSEHeaders writes the response headers of an event stream.
func SetSSEHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// SSEEmitter writes each event as a "data:" frame and flushes it.
type SSEEmitter struct {
	w io.Writer
	f http.Flusher
}

// NewSSEEmitter fails when w cannot flush, since buffered frames would defeat
// incremental delivery.
func NewSSEEmitter(w http.ResponseWriter) (*SSEEmitter, error) {
	f, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}
	return &SSEEmitter{w: w, f: f}, nil
}

func (s *SSEEmitter) Emit(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	frame, err := EncodeSSE(e)
	if err != nil {
		return err
	}
	if _, err := s.w.Write(frame); err != nil {
		return err
	}
	s.f.Flush()
	return nil
}

const wsWriteWait = 10 * time.Second

// WSEmitter sends each event as one JSON text frame. Writes are serialized so
// a ping loop may share the connection.
type WSEmitter struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func NewWSEmitter(conn *websocket.Conn) *WSEmitter {
	return &WSEmitter{conn: conn}
}

func (w *WSEmitter) Emit(ctx context.Context, e Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, payload)
}

// Ping sends a websocket ping under the same write lock as events.
func (w *WSEmitter) Ping() error {
	return w.write(websocket.PingMessage, nil)
}

func (w *WSEmitter) write(kind int, payload []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return err
	}
	return w.conn.WriteMessage(kind, payload)
}

// Close sends a normal closure frame. The caller still closes the connection.
func (w *WSEmitter) Close(reason string) error {
	return w.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason))
}
