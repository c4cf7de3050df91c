// Package frontmatter splits and reassembles YAML frontmatter on markdown
// documents and serializes metadata maps with a stable key order.
package frontmatter

import (
	"bytes"
	"errors"

	"gopkg.in/yaml.v3"
)

// ErrMissingClosingDelimiter indicates the document started with a YAML
// frontmatter delimiter but did not contain a closing delimiter.
var ErrMissingClosingDelimiter = errors.New("yaml frontmatter start delimiter found but closing delimiter is missing")

// Style is the newline shape of a document, kept so rewrites stay stable.
type Style struct {
	Newline            string
	HasTrailingNewline bool
}

func (s Style) newline() string {
	if s.Newline == "" {
		return "\n"
	}
	return s.Newline
}

// Document is a markdown file with optional frontmatter.
type Document struct {
	Fields map[string]any
	Body   []byte
	// Had reports whether the source carried a frontmatter block.
	Had   bool
	Style Style
}

// Parse splits content and decodes its frontmatter. Fields is never nil.
func Parse(content []byte) (Document, error) {
	raw, body, had, style, err := Split(content)
	if err != nil {
		return Document{}, err
	}
	fields, err := ParseYAML(raw)
	if err != nil {
		return Document{}, err
	}
	return Document{Fields: fields, Body: body, Had: had, Style: style}, nil
}

// Bytes re-serializes the document. A document with no fields and no source
// frontmatter renders as the bare body.
func (d Document) Bytes() ([]byte, error) {
	had := d.Had || len(d.Fields) > 0
	raw, err := SerializeYAML(d.Fields, d.Style)
	if err != nil {
		return nil, err
	}
	return Join(raw, d.Body, had, d.Style), nil
}

// Split separates YAML frontmatter (`---` delimited) from the body. When the
// document does not open with a delimiter, had is false and body is content.
func Split(content []byte) (frontmatter []byte, body []byte, had bool, style Style, err error) {
	style = detectStyle(content)
	nl := style.Newline
	delim := []byte("---" + nl)
	if !bytes.HasPrefix(content, delim) {
		return nil, content, false, style, nil
	}

	rest := content[len(delim):]
	if bytes.HasPrefix(rest, delim) {
		return []byte{}, rest[len(delim):], true, style, nil
	}
	closing := []byte(nl + "---" + nl)
	idx := bytes.Index(rest, closing)
	if idx < 0 {
		return nil, nil, false, style, ErrMissingClosingDelimiter
	}
	return rest[:idx+len(nl)], rest[idx+len(closing):], true, style, nil
}

// Join reassembles raw frontmatter and body. Without had, body is returned as is.
func Join(frontmatter []byte, body []byte, had bool, style Style) []byte {
	if !had {
		return body
	}
	delim := "---" + style.newline()
	out := make([]byte, 0, 2*len(delim)+len(frontmatter)+len(body))
	out = append(out, delim...)
	out = append(out, frontmatter...)
	out = append(out, delim...)
	return append(out, body...)
}

// ParseYAML decodes raw frontmatter (without delimiters) into a map.
func ParseYAML(frontmatter []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(bytes.TrimSpace(frontmatter)) == 0 {
		return fields, nil
	}
	if err := yaml.Unmarshal(frontmatter, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return fields, nil
}

func detectStyle(content []byte) Style {
	style := Style{Newline: "\n", HasTrailingNewline: len(content) > 0 && content[len(content)-1] == '\n'}
	if i := bytes.IndexByte(content, '\n'); i > 0 && content[i-1] == '\r' {
		style.Newline = "\r\n"
	}
	return style
}
