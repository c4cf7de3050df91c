package node

import (
	"context"
	"maps"
	"slices"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/docnodes/internal/resources"
)

// Annotations is a numbered collection of annotation subtrees. Numbers are
// unique; rendering is always in ascending numeric order.
type Annotations struct {
	entries map[int]Node
}

func NewAnnotations() *Annotations {
	return &Annotations{entries: make(map[int]Node)}
}

// Set stores n under num, replacing an existing entry.
func (a *Annotations) Set(num int, n Node) {
	a.entries[num] = n
}

// Add stores n under the next free number and returns it.
func (a *Annotations) Add(n Node) int {
	next := 1
	for num := range a.entries {
		next = max(next, num+1)
	}
	a.entries[next] = n
	return next
}

func (a *Annotations) Get(num int) (Node, bool) {
	n, ok := a.entries[num]
	return n, ok
}

func (a *Annotations) Delete(num int) { delete(a.entries, num) }

func (a *Annotations) Len() int {
	if a == nil {
		return 0
	}
	return len(a.entries)
}

// Numbers returns the keys in ascending order.
func (a *Annotations) Numbers() []int {
	return slices.Sorted(maps.Keys(a.entries))
}

// Render embeds every annotation and formats the numbered list that follows
// the annotated block.
func (a *Annotations) Render(ctx context.Context) (ContentResult, error) {
	res := resources.New()
	items := make([]string, 0, a.Len())
	for _, num := range a.Numbers() {
		cr, err := Embed(ctx, a.entries[num])
		if err != nil {
			return ContentResult{}, err
		}
		MergeResources(ctx, res, cr.resources)
		items = append(items, formatAnnotation(num, cr.markdown))
	}
	return owned(strings.Join(items, "\n"), res), nil
}

func formatAnnotation(num int, body string) string {
	lines := strings.Split(strings.TrimRight(body, "\n"), "\n")
	var b strings.Builder
	b.WriteString(strconv.Itoa(num))
	b.WriteString(".  ")
	b.WriteString(lines[0])
	for _, line := range lines[1:] {
		b.WriteByte('\n')
		if strings.TrimSpace(line) != "" {
			b.WriteString("    ")
			b.WriteString(line)
		}
	}
	return b.String()
}
