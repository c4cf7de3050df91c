package markdown

import (
	"errors"
	"fmt"
	"slices"
)

// Edit replaces source[Start:End] with Replacement. Offsets refer to the
// original source; End is exclusive.
type Edit struct {
	Start       int
	End         int
	Replacement []byte
}

// ApplyEdits applies non-overlapping byte-range edits and returns a new buffer.
// The input slice is never modified.
func ApplyEdits(source []byte, edits []Edit) ([]byte, error) {
	if len(edits) == 0 {
		return source, nil
	}

	sorted := slices.Clone(edits)
	slices.SortFunc(sorted, func(a, b Edit) int {
		if a.Start != b.Start {
			return a.Start - b.Start
		}
		return a.End - b.End
	})

	for i, e := range sorted {
		switch {
		case e.Start < 0 || e.End < 0:
			return nil, fmt.Errorf("invalid edit[%d]: negative range", i)
		case e.End < e.Start:
			return nil, fmt.Errorf("invalid edit[%d]: end before start", i)
		case e.End > len(source):
			return nil, fmt.Errorf("invalid edit[%d]: range out of bounds", i)
		case i > 0 && e.Start < sorted[i-1].End:
			return nil, errors.New("invalid edits: overlapping ranges")
		}
	}

	out := make([]byte, 0, len(source))
	last := 0
	for _, e := range sorted {
		out = append(out, source[last:e.Start]...)
		out = append(out, e.Replacement...)
		last = e.End
	}
	return append(out, source[last:]...), nil
}
