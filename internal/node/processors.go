package node

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/docnodes/internal/markdown"
)

// Extension names the chain itself depends on.
const (
	ExtAttrList = "attr_list"
	ExtMdInHTML = "md_in_html"
)

// ShiftHeaderLevels moves ATX headings by delta levels, clamped to 1..6.
func ShiftHeaderLevels(md string, delta int) string {
	return markdown.ShiftHeadings(md, delta)
}

// Indent prefixes every non-blank line.
func Indent(md, prefix string) string {
	if prefix == "" || md == "" {
		return md
	}
	lines := strings.Split(md, "\n")
	for i, line := range lines {
		if strings.TrimSpace(line) != "" {
			lines[i] = prefix + line
		}
	}
	return strings.Join(lines, "\n")
}

// AppendCSSClasses adds an attribute list on its own line after the body,
// indented like the body's last line so it binds to the same block.
func AppendCSSClasses(md string, classes []string) string {
	if len(classes) == 0 {
		return md
	}
	body := strings.TrimRight(md, "\n")
	lead := leadingSpace(body[strings.LastIndexByte(body, '\n')+1:])
	return body + "\n" + lead + "{: ." + strings.Join(classes, " .") + "}"
}

func leadingSpace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

// PrependHeader puts the node header above the body. A header that already
// starts with '#' is used verbatim, anything else becomes a level-2 heading.
func PrependHeader(md, header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return md
	}
	if !strings.HasPrefix(header, "#") {
		header = "## " + header
	}
	if md == "" {
		return header
	}
	return header + "\n\n" + md
}

// WrapAnnotations wraps md in an annotate block followed by the rendered list.
func WrapAnnotations(md, list string) string {
	if list == "" {
		return md
	}
	return "<div markdown class=\"annotate\">\n\n" + md + "\n\n</div>\n\n" + list
}

// ApplyChain runs the fixed processor sequence for n over raw:
// header shift, indentation, CSS classes, header, annotations.
func ApplyChain(ctx context.Context, n Node, raw ContentResult) (ContentResult, error) {
	b := n.base()
	res := raw.resources.Clone()

	md := ShiftHeaderLevels(raw.markdown, b.shift)
	md = Indent(md, b.indent)
	if len(b.classes) > 0 {
		md = AppendCSSClasses(md, b.classes)
		res.AddExtension(ExtAttrList, nil)
	}
	md = PrependHeader(md, b.header)

	if b.annotations.Len() > 0 {
		list, err := b.annotations.Render(ctx)
		if err != nil {
			return ContentResult{}, err
		}
		md = WrapAnnotations(md, list.markdown)
		MergeResources(ctx, res, list.resources)
		res.AddExtension(ExtMdInHTML, nil)
	}
	return owned(md, res), nil
}
