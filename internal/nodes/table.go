package nodes

import (
	"context"
	"strings"

	"git.home.luguber.info/inful/docnodes/internal/node"
)

const extTables = "tables"

// Table renders a pipe table. Short rows are padded, long rows truncated to
// the header width.
type Table struct {
	node.Base
	headers []string
	rows    [][]string
	align   []string
}

func NewTable(headers []string, rows [][]string, opts ...node.Option) *Table {
	t := &Table{headers: headers, rows: rows}
	t.Init(t, "table", opts...)
	return t
}

// SetAlign sets per-column alignment: "left", "center" or "right".
func (t *Table) SetAlign(align ...string) *Table {
	t.align = align
	return t
}

func (t *Table) Content(context.Context) (node.ContentResult, error) {
	var b strings.Builder
	writeRow(&b, t.headers, len(t.headers))
	b.WriteByte('\n')

	seps := make([]string, len(t.headers))
	for i := range seps {
		seps[i] = "---"
		if i < len(t.align) {
			switch t.align[i] {
			case "left":
				seps[i] = ":---"
			case "center":
				seps[i] = ":---:"
			case "right":
				seps[i] = "---:"
			}
		}
	}
	b.WriteString("| " + strings.Join(seps, " | ") + " |")

	for _, row := range t.rows {
		b.WriteByte('\n')
		writeRow(&b, row, len(t.headers))
	}
	return node.NewContentResult(b.String(), t.OwnResources().AddExtension(extTables, nil)), nil
}

func writeRow(b *strings.Builder, cells []string, width int) {
	out := make([]string, width)
	for i := range out {
		if i < len(cells) {
			out[i] = escapeCell(cells[i])
		}
	}
	b.WriteString("| " + strings.Join(out, " | ") + " |")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", "<br>")
	return s
}
