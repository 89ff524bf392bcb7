package patent

import (
	"errors"
	"fmt"
	"strings"
)

// InventionDisclosure is the structured form a user fills in before generation.
// Title, Problem, Solution and TechnicalDescription are mandatory.
type InventionDisclosure struct {
	Title                string `json:"title"`
	Problem              string `json:"problem"`
	Solution             string `json:"solution"`
	TechnicalDescription string `json:"technicalDescription"`
	Advantages           string `json:"advantages"`
	DrawingsDescription  string `json:"drawingsDescription"`
	PriorArt             string `json:"priorArt"`
	Inventors            string `json:"inventors"`
	Assignee             string `json:"assignee"`
}

// UploadedDocument stands in for a disclosure submitted as a file. Its content
// is opaque to prompt construction.
type UploadedDocument struct {
	FileName string `json:"fileName"`
	Size     int64  `json:"size,omitempty"`
	Pages    int    `json:"pages,omitempty"`
}

// Invention is exactly one of a structured disclosure or an uploaded document.
type Invention struct {
	Disclosure *InventionDisclosure
	Document   *UploadedDocument
}

// FromDisclosure wraps a structured disclosure.
func FromDisclosure(d InventionDisclosure) Invention {
	return Invention{Disclosure: &d}
}

// FromDocument wraps an uploaded document.
func FromDocument(doc UploadedDocument) Invention {
	return Invention{Document: &doc}
}

// IsFile reports whether the invention was submitted as an uploaded document.
func (i Invention) IsFile() bool {
	return i.Disclosure == nil
}

// ValidationError lists every problem found in a request.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid request: " + strings.Join(e.Problems, "; ")
}

// ErrValidation matches any *ValidationError via errors.Is.
var ErrValidation = errors.New("invalid request")

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Validate checks the mandatory fields.
func (d InventionDisclosure) Validate() error {
	var problems []string
	check := func(name, v string) {
		if strings.TrimSpace(v) == "" {
			problems = append(problems, fmt.Sprintf("%s is required", name))
		}
	}
	check("title", d.Title)
	check("problem", d.Problem)
	check("solution", d.Solution)
	check("technicalDescription", d.TechnicalDescription)
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Validate checks that exactly one representation is present and, for a
// structured disclosure, that its mandatory fields are filled.
func (i Invention) Validate() error {
	switch {
	case i.Disclosure != nil && i.Document != nil:
		return &ValidationError{Problems: []string{"inventionData must be either structured fields or a document"}}
	case i.Disclosure != nil:
		return i.Disclosure.Validate()
	case i.Document != nil:
		return nil
	default:
		return &ValidationError{Problems: []string{"inventionData is required"}}
	}
}

// Format is the output markup the model is asked to produce.
type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ParseFormat maps a request value to a Format. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatMarkdown:
		return FormatMarkdown, nil
	case FormatHTML:
		return FormatHTML, nil
	default:
		return "", &ValidationError{Problems: []string{fmt.Sprintf("unsupported format %q", s)}}
	}
}
