package resources

import (
	"encoding/json"
	"sort"
)

type wireResources struct {
	CSS        []Asset                   `json:"css"`
	JS         []Asset                   `json:"js"`
	Extensions map[string]map[string]any `json:"markdown_extensions"`
	Plugins    []string                  `json:"plugins"`
	Packages   []string                  `json:"packages"`
}

// MarshalJSON emits the resources manifest wire shape.
func (r *Resources) MarshalJSON() ([]byte, error) {
	w := wireResources{
		CSS:        nonNil(r.css),
		JS:         nonNil(r.js),
		Extensions: make(map[string]map[string]any, len(r.extNames)),
		Plugins:    nonNil(r.plugins),
		Packages:   nonNil(r.packages),
	}
	for _, name := range r.extNames {
		cfg, _ := Serializable(map[string]any(r.extensions[name])).(map[string]any)
		w.Extensions[name] = cfg
	}
	return json.Marshal(w)
}

// UnmarshalJSON restores a manifest. Extension order becomes sorted by name
// because JSON objects carry no order; serialized callables stay strings.
func (r *Resources) UnmarshalJSON(data []byte) error {
	var w wireResources
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = Resources{}
	r.AddCSS(w.CSS...)
	r.AddJS(w.JS...)
	r.AddPlugin(w.Plugins...)
	r.AddPackage(w.Packages...)
	names := make([]string, 0, len(w.Extensions))
	for name := range w.Extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r.AddExtension(name, w.Extensions[name])
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
