package generation

import "patentai/internal/markup"

type SectionState string

const (
	StatePending    SectionState = "pending"
	StateGenerating SectionState = "generating"
	StateComplete   SectionState = "complete"
	StateWarned     SectionState = "warned"
	StateFailed     SectionState = "failed"
)

// SectionResult is the server-side record of one section of a run.
type SectionResult struct {
	Name    string       `json:"name"`
	Content string       `json:"content"`
	State   SectionState `json:"state"`
}

func (s SectionResult) Warning() bool { return s.State == StateWarned }

// Result is what a run produced, complete or not.
type Result struct {
	RunID    string          `json:"runId"`
	Sections []SectionResult `json:"sections"`
}

// Completed reports whether every section reached complete or warned.
func (r Result) Completed() bool {
	if len(r.Sections) == 0 {
		return false
	}
	for _, s := range r.Sections {
		if s.State != StateComplete && s.State != StateWarned {
			return false
		}
	}
	return true
}

// Document combines the non-empty sections under "## <name>" headings and
// normalizes the markup, the same way the stream consumer does.
func (r Result) Document() string {
	parts := make([]markup.Section, 0, len(r.Sections))
	for _, s := range r.Sections {
		parts = append(parts, markup.Section{Name: s.Name, Content: s.Content})
	}
	return markup.ToPortableMarkup(markup.Combine(parts))
}
