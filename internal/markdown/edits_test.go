package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyEdits(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		edits []Edit
		want  string
	}{
		{
			name: "no edits",
			src:  "# Title\n",
			want: "# Title\n",
		},
		{
			name:  "heading marker widened",
			src:   "# Title\n\nbody\n",
			edits: []Edit{{Start: 0, End: 1, Replacement: []byte("###")}},
			want:  "### Title\n\nbody\n",
		},
		{
			name: "edits given out of order",
			src:  "## B\n# A\n",
			edits: []Edit{
				{Start: 5, End: 6, Replacement: []byte("##")},
				{Start: 0, End: 2, Replacement: []byte("###")},
			},
			want: "### B\n## A\n",
		},
		{
			name:  "deletion",
			src:   "{: .wide}\ntext",
			edits: []Edit{{Start: 0, End: 10}},
			want:  "text",
		},
		{
			name:  "CRLF untouched outside the range",
			src:   "# A\r\n# B\r\n",
			edits: []Edit{{Start: 5, End: 6, Replacement: []byte("##")}},
			want:  "# A\r\n## B\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := []byte(tt.src)
			out, err := ApplyEdits(src, tt.edits)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(out))
			assert.Equal(t, tt.src, string(src))
		})
	}
}

func TestApplyEditsRejectsBadRanges(t *testing.T) {
	for name, edits := range map[string][]Edit{
		"negative":      {{Start: -1, End: 1}},
		"inverted":      {{Start: 2, End: 1}},
		"out of bounds": {{Start: 2, End: 9}},
		"overlapping":   {{Start: 1, End: 4}, {Start: 3, End: 5}},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ApplyEdits([]byte("abcdef"), edits)
			assert.Error(t, err)
		})
	}
}
