package markup

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPortableMarkup(t *testing.T) {
	cases := []struct {
		name, in, want string
	}{
		{"empty", "", ""},
		{"plain", "  just text  ", "just text"},
		{"headings", "<h1>A</h1><h2>B</h2><h3>C</h3><h4>D</h4>", "# A\n\n## B\n\n### C\n\n#### D"},
		{"emphasis", "<strong>bold</strong> <b>b</b> <em>it</em> <i>i</i>", "**bold** **b** *it* *i*"},
		{"list", "<ul><li>one</li><li>two</li></ul>", "- one\n- two"},
		{"ordered", "<ol><li>first</li></ol>after", "- first\n\nafter"},
		{"paragraphs", "<p>a</p><p>b</p>", "a\n\nb"},
		{"breaks", "a<br>b<br/>c<br />d", "a\nb\nc\nd"},
		{"div", "<div>x</div>y", "x\ny"},
		{"unknown tags stripped", `<span class="k">kept</span><table>`, "kept"},
		{"newline runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"entities untouched", "a &amp; b", "a &amp; b"},
		{"multiline tag content not converted", "<p>a\nb</p>", "a\nb"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ToPortableMarkup(tc.in))
		})
	}
}

func TestToPortableMarkup_Idempotent(t *testing.T) {
	inputs := []string{
		"",
		"<h2>Claims</h2><ol><li>A widget comprising X.</li><li>The widget of claim 1.</li></ol>",
		"<<b>x>",
		"a < b > c",
		"<p>broken <strong>nest</p></strong>",
		"1 < 2 and 3 > 2\n\n\n\n<br>",
		"## Already\n\n**markdown** with *emphasis*\n\n- item",
		"\xff\xfe invalid utf8 <i>x</i>",
		strings.Repeat("<div>", 50) + "deep" + strings.Repeat("</div>", 50),
	}
	for _, in := range inputs {
		once := ToPortableMarkup(in)
		assert.Equal(t, once, ToPortableMarkup(once), "input %q", in)
	}
}

func TestToHTML(t *testing.T) {
	out, err := ToHTML("## Claims\n\n1. A widget.\n2. The widget of claim 1.\n\n**bold** ~~gone~~")
	require.NoError(t, err)
	assert.Contains(t, out, "<h2>Claims</h2>")
	assert.Contains(t, out, "<ol>")
	assert.Contains(t, out, "<strong>bold</strong>")
	assert.Contains(t, out, "<del>gone</del>")
}

func TestCombineAndSplit(t *testing.T) {
	doc := Combine([]Section{
		{Name: "Title", Content: "Widget"},
		{Name: "Abstract", Content: ""},
		{Name: "Claims", Content: "1. A widget.\n\n### Dependent\n2. More."},
	})
	assert.Equal(t, "## Title\n\nWidget\n\n## Claims\n\n1. A widget.\n\n### Dependent\n2. More.\n\n", doc)

	got := SplitSections(doc)
	require.Len(t, got, 2)
	assert.Equal(t, Section{Name: "Title", Content: "Widget"}, got[0])
	assert.Equal(t, "Claims", got[1].Name)
	assert.Contains(t, got[1].Content, "### Dependent")
}

func TestSplitSections_Preamble(t *testing.T) {
	got := SplitSections("\nintro line\n## A\nbody")
	require.Len(t, got, 2)
	assert.Equal(t, Section{Content: "intro line"}, got[0])
	assert.Equal(t, Section{Name: "A", Content: "body"}, got[1])
	assert.Empty(t, SplitSections(""))
}
