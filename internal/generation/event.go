package generation

import (
	"bytes"
	"encoding/json"
)

type EventType string

const (
	EventSectionStart    EventType = "section_start"
	EventContent         EventType = "content"
	EventSectionComplete EventType = "section_complete"
	EventComplete        EventType = "complete"
	EventError           EventType = "error"
)

// Event is the wire unit of a generation stream.
type Event struct {
	Type    EventType `json:"type"`
	Section string    `json:"section,omitempty"`
	Content string    `json:"content,omitempty"`
	Message string    `json:"message,omitempty"`
	Warning bool      `json:"warning,omitempty"`
}

// Terminal reports whether e ends a stream.
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}

func SectionStart(section string) Event { return Event{Type: EventSectionStart, Section: section} }

func Content(section, chunk string) Event {
	return Event{Type: EventContent, Section: section, Content: chunk}
}

func SectionComplete(section string, warning bool) Event {
	return Event{Type: EventSectionComplete, Section: section, Warning: warning}
}

func Complete() Event { return Event{Type: EventComplete} }

func Failure(message string) Event { return Event{Type: EventError, Message: message} }

// EncodeSSE renders e as one server-sent-events frame: "data: <json>\n\n".
func EncodeSSE(e Event) ([]byte, error) {
	payload, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Grow(len(payload) + 8)
	buf.WriteString("data: ")
	buf.Write(payload)
	buf.WriteString("\n\n")
	return buf.Bytes(), nil
}
