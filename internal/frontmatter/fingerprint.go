package frontmatter

import (
	"strings"

	"github.com/inful/mdfp"
)

// FingerprintField is the field the content fingerprint is stored under.
var FingerprintField = mdfp.FingerprintField

// volatile fields change between builds of the same content and are left out
// of the fingerprint.
var volatile = map[string]bool{
	FingerprintField: true,
	"build_id":       true,
	"commit":         true,
}

// Fingerprint hashes body together with the stable part of fields. The
// fields are serialized with LF newlines and without the final newline, so
// the result does not depend on the style a document was read with.
func Fingerprint(fields map[string]any, body []byte) (string, error) {
	stable := make(map[string]any, len(fields))
	for k, v := range fields {
		if !volatile[k] {
			stable[k] = v
		}
	}

	head := ""
	if len(stable) > 0 {
		serialized, err := SerializeYAML(stable, Style{Newline: "\n"})
		if err != nil {
			return "", err
		}
		head = strings.TrimSuffix(string(serialized), "\n")
	}
	return mdfp.CalculateFingerprintFromParts(head, string(body)), nil
}

// WithFingerprint returns a copy of fields carrying the fingerprint of body.
func WithFingerprint(fields map[string]any, body []byte) (map[string]any, error) {
	fp, err := Fingerprint(fields, body)
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[FingerprintField] = fp
	return out, nil
}
