package markup

import (
	"fmt"
	"strings"
)

// Section is one "## Name" block of a combined document.
type Section struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Combine joins sections as "## Name\n\ncontent\n\n" blocks in the given
// order, skipping sections whose content is blank. The result is not
// normalized.
func Combine(sections []Section) string {
	var b strings.Builder
	for _, s := range sections {
		if strings.TrimSpace(s.Content) == "" {
			continue
		}
		fmt.Fprintf(&b, "## %s\n\n%s\n\n", s.Name, s.Content)
	}
	return b.String()
}

// SplitSections cuts a document at level-2 headings. Text before the first
// heading is returned as a section with an empty name. Deeper headings
// ("###") stay inside their section.
func SplitSections(doc string) []Section {
	var out []Section
	var cur *Section
	var body []string
	flush := func() {
		if cur == nil {
			return
		}
		cur.Content = strings.TrimSpace(strings.Join(body, "\n"))
		out = append(out, *cur)
	}
	for _, line := range strings.Split(doc, "\n") {
		if name, ok := strings.CutPrefix(line, "## "); ok {
			flush()
			cur = &Section{Name: strings.TrimSpace(name)}
			body = body[:0]
			continue
		}
		if cur == nil {
			if strings.TrimSpace(line) == "" {
				continue
			}
			cur = &Section{}
		}
		body = append(body, line)
	}
	flush()
	return out
}
