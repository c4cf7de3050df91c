// Package markdown holds the small amount of markdown analysis the render
// pipeline needs. Parsing goes through goldmark so constructs such as fenced
// code are never mistaken for structure; rewriting is done with byte edits so
// everything outside the touched ranges stays byte-identical.
package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Heading locates the marker run of one ATX heading.
type Heading struct {
	Level int
	// Start and End delimit the leading '#' run in the source.
	Start int
	End   int
}

// ATXHeadings returns every ATX heading in document order. Setext headings and
// '#' lines inside code blocks are not reported. Empty headings ("##" alone)
// carry no text segment and are skipped.
func ATXHeadings(body []byte) []Heading {
	root := goldmark.New().Parser().Parse(text.NewReader(body))

	var out []Heading
	_ = gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		h, ok := n.(*gmast.Heading)
		if !ok {
			return gmast.WalkContinue, nil
		}
		if h.Lines().Len() == 0 {
			return gmast.WalkSkipChildren, nil
		}
		if start, end, found := markerRun(body, h.Lines().At(0).Start); found && end-start == h.Level {
			out = append(out, Heading{Level: h.Level, Start: start, End: end})
		}
		return gmast.WalkSkipChildren, nil
	})
	return out
}

// markerRun walks back from the heading text over the separating blanks and the
// '#' run that opens the line.
func markerRun(body []byte, textStart int) (int, int, bool) {
	end := textStart
	for end > 0 && (body[end-1] == ' ' || body[end-1] == '\t') {
		end--
	}
	start := end
	for start > 0 && body[start-1] == '#' {
		start--
	}
	if start == end {
		return 0, 0, false
	}
	if start > 0 && !strings.ContainsRune(" \t\n\r>", rune(body[start-1])) {
		return 0, 0, false
	}
	return start, end, true
}

// ShiftHeadings moves every ATX heading by delta levels, clamped to 1..6.
func ShiftHeadings(body string, delta int) string {
	if delta == 0 || body == "" {
		return body
	}
	src := []byte(body)
	headings := ATXHeadings(src)
	if len(headings) == 0 {
		return body
	}

	edits := make([]Edit, 0, len(headings))
	for _, h := range headings {
		level := min(max(h.Level+delta, 1), 6)
		if level == h.Level {
			continue
		}
		edits = append(edits, Edit{Start: h.Start, End: h.End, Replacement: []byte(strings.Repeat("#", level))})
	}
	out, err := ApplyEdits(src, edits)
	if err != nil {
		// Heading runs never overlap; keep the input rather than corrupt it.
		return body
	}
	return string(out)
}
