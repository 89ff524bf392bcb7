package streamclient

import (
	"patentai/internal/generation"
	"patentai/internal/markup"
)

type State string

const (
	StatePending    State = "pending"
	StateGenerating State = "generating"
	StateComplete   State = "complete"
)

// Section is the consumer's view of one section.
type Section struct {
	Name    string
	Content string
	State   State
	Warning bool
}

// Tracker folds events into the ordered section list. At most one section
// is generating at any point.
type Tracker struct {
	sections []Section
	index    map[string]int
	done     bool
	failure  string
}

func NewTracker(names []string) *Tracker {
	t := &Tracker{index: make(map[string]int, len(names))}
	for i, n := range names {
		t.sections = append(t.sections, Section{Name: n, State: StatePending})
		t.index[n] = i
	}
	return t
}

// Apply updates the targeted section and reports whether the event was
// taken. Events for unknown sections are ignored, as is content for a
// section that is not generating.
func (t *Tracker) Apply(e generation.Event) bool {
	switch e.Type {
	case generation.EventSectionStart:
		i, ok := t.index[e.Section]
		if !ok {
			return false
		}
		for j := range t.sections {
			if j != i && t.sections[j].State == StateGenerating {
				t.sections[j].State = StatePending
			}
		}
		t.sections[i].State = StateGenerating
	case generation.EventContent:
		i, ok := t.index[e.Section]
		if !ok || t.sections[i].State != StateGenerating {
			return false
		}
		t.sections[i].Content += e.Content
	case generation.EventSectionComplete:
		i, ok := t.index[e.Section]
		if !ok {
			return false
		}
		t.sections[i].State = StateComplete
		t.sections[i].Warning = e.Warning
	case generation.EventComplete:
		t.done = true
	case generation.EventError:
		t.failure = e.Message
		if t.failure == "" {
			t.failure = "An unexpected error occurred"
		}
		for j := range t.sections {
			if t.sections[j].State == StateGenerating {
				t.sections[j].State = StatePending
			}
		}
	}
	return true
}

// Generating returns the section currently generating.
func (t *Tracker) Generating() (string, bool) {
	for _, s := range t.sections {
		if s.State == StateGenerating {
			return s.Name, true
		}
	}
	return "", false
}

// CountGenerating is the number of sections in the generating state.
func (t *Tracker) CountGenerating() int {
	n := 0
	for _, s := range t.sections {
		if s.State == StateGenerating {
			n++
		}
	}
	return n
}

func (t *Tracker) Done() bool { return t.done }

// Failure returns the message of an error event, if one arrived.
func (t *Tracker) Failure() (string, bool) { return t.failure, t.failure != "" }

func (t *Tracker) Sections() []Section {
	out := make([]Section, len(t.sections))
	copy(out, t.sections)
	return out
}

// Document combines the non-blank sections under "## <name>" headings and
// normalizes the result for the editor.
func (t *Tracker) Document() string {
	parts := make([]markup.Section, 0, len(t.sections))
	for _, s := range t.sections {
		parts = append(parts, markup.Section{Name: s.Name, Content: s.Content})
	}
	return markup.ToPortableMarkup(markup.Combine(parts))
}
