// Package markup converts generated section text between the lightweight
// HTML the model sometimes emits, the markdown the editor consumes, and the
// HTML used for export.
package markup

import (
	"regexp"
	"strings"
)

type rule struct {
	pattern     *regexp.Regexp
	replacement string
}

// rules run in order. Each inline rule is non-greedy and line-bound, so
// "<p>a</p><p>b</p>" converts each paragraph separately.
var rules = []rule{
	{regexp.MustCompile(`<h1>(.*?)</h1>`), "# $1\n\n"},
	{regexp.MustCompile(`<h2>(.*?)</h2>`), "## $1\n\n"},
	{regexp.MustCompile(`<h3>(.*?)</h3>`), "### $1\n\n"},
	{regexp.MustCompile(`<h4>(.*?)</h4>`), "#### $1\n\n"},
	{regexp.MustCompile(`<strong>(.*?)</strong>`), "**$1**"},
	{regexp.MustCompile(`<b>(.*?)</b>`), "**$1**"},
	{regexp.MustCompile(`<em>(.*?)</em>`), "*$1*"},
	{regexp.MustCompile(`<i>(.*?)</i>`), "*$1*"},
	{regexp.MustCompile(`<ul>`), ""},
	{regexp.MustCompile(`</ul>`), "\n"},
	{regexp.MustCompile(`<ol>`), ""},
	{regexp.MustCompile(`</ol>`), "\n"},
	{regexp.MustCompile(`<li>(.*?)</li>`), "- $1\n"},
	{regexp.MustCompile(`<p>(.*?)</p>`), "$1\n\n"},
	{regexp.MustCompile(`<br\s*/?>`), "\n"},
	{regexp.MustCompile(`<div>(.*?)</div>`), "$1\n"},
}

var (
	anyTag        = regexp.MustCompile(`<[^>]*>`)
	blankLineRuns = regexp.MustCompile(`\n{3,}`)
)

// ToPortableMarkup rewrites the known tag subset (h1-h4, strong/b, em/i,
// ul/ol/li, p, br, div) into markdown, drops every other tag, collapses runs
// of three or more newlines to two and trims the result. Entities are left
// as they are. It never panics; on an internal failure the input is returned
// unchanged.
func ToPortableMarkup(text string) (out string) {
	if text == "" {
		return ""
	}
	defer func() {
		if r := recover(); r != nil {
			out = text
		}
	}()
	s := text
	for _, r := range rules {
		s = r.pattern.ReplaceAllString(s, r.replacement)
	}
	s = anyTag.ReplaceAllString(s, "")
	s = blankLineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
