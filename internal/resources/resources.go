// Package resources models the build resources a node requires: stylesheets,
// scripts, markdown extensions with their configuration, plugin markers and
// packages. A Resources value is merged bottom-up while a tree renders and ends
// up in the global resources manifest.
package resources

import (
	"maps"
	"slices"
)

// AssetType distinguishes linked from inline CSS/JS assets.
type AssetType string

const (
	AssetLink AssetType = "link"
	AssetText AssetType = "text"
)

// Asset is a stylesheet or script. Assets are plain values and compare with ==.
type Asset struct {
	Type     AssetType `json:"type"`
	Link     string    `json:"link,omitempty"`
	Filename string    `json:"filename,omitempty"`
	Content  string    `json:"content,omitempty"`
}

// LinkAsset references an external or site-relative URL.
func LinkAsset(link string) Asset {
	return Asset{Type: AssetLink, Link: link}
}

// InlineAsset carries the file content; the exporter writes it under filename.
func InlineAsset(filename, content string) Asset {
	return Asset{Type: AssetText, Filename: filename, Content: content}
}

// ExtensionConfig is the option dictionary of one markdown extension.
type ExtensionConfig map[string]any

// Resources is the mergeable resource set. The zero value is ready to use.
//
// List kinds keep first-seen order and never hold duplicates. Extension configs
// are keyed by extension name, ordered by first appearance.
type Resources struct {
	css        []Asset
	js         []Asset
	plugins    []string
	packages   []string
	extNames   []string
	extensions map[string]ExtensionConfig
}

// New returns an empty resource set.
func New() *Resources {
	return &Resources{}
}

// CSS returns the stylesheets in first-seen order.
func (r *Resources) CSS() []Asset { return slices.Clone(r.css) }

// JS returns the scripts in first-seen order.
func (r *Resources) JS() []Asset { return slices.Clone(r.js) }

// Plugins returns the plugin markers in first-seen order.
func (r *Resources) Plugins() []string { return slices.Clone(r.plugins) }

// Packages returns the required packages in first-seen order.
func (r *Resources) Packages() []string { return slices.Clone(r.packages) }

// ExtensionNames returns extension names in first-seen order.
func (r *Resources) ExtensionNames() []string { return slices.Clone(r.extNames) }

// Extension returns a copy of the named extension config.
func (r *Resources) Extension(name string) (ExtensionConfig, bool) {
	cfg, ok := r.extensions[name]
	if !ok {
		return nil, false
	}
	return cloneConfig(cfg), true
}

// Extensions returns a deep copy of all extension configs.
func (r *Resources) Extensions() map[string]ExtensionConfig {
	out := make(map[string]ExtensionConfig, len(r.extensions))
	for name, cfg := range r.extensions {
		out[name] = cloneConfig(cfg)
	}
	return out
}

// AddCSS appends stylesheets that are not yet present.
func (r *Resources) AddCSS(assets ...Asset) *Resources {
	r.css = appendUnique(r.css, assets...)
	return r
}

// AddJS appends scripts that are not yet present.
func (r *Resources) AddJS(assets ...Asset) *Resources {
	r.js = appendUnique(r.js, assets...)
	return r
}

// AddPlugin appends plugin markers that are not yet present.
func (r *Resources) AddPlugin(names ...string) *Resources {
	r.plugins = appendUnique(r.plugins, names...)
	return r
}

// AddPackage appends package names that are not yet present.
func (r *Resources) AddPackage(names ...string) *Resources {
	r.packages = appendUnique(r.packages, names...)
	return r
}

// AddExtension requires a markdown extension. A nil cfg means "enabled with defaults".
// Adding a known extension deep-merges cfg into the existing options.
func (r *Resources) AddExtension(name string, cfg ExtensionConfig) *Resources {
	r.mergeExtension(name, cfg, nil)
	return r
}

// IsEmpty reports whether no resource of any kind is present.
func (r *Resources) IsEmpty() bool {
	return r == nil || (len(r.css) == 0 && len(r.js) == 0 && len(r.plugins) == 0 &&
		len(r.packages) == 0 && len(r.extNames) == 0)
}

// Clone returns a deep copy.
func (r *Resources) Clone() *Resources {
	if r == nil {
		return New()
	}
	out := &Resources{
		css:      slices.Clone(r.css),
		js:       slices.Clone(r.js),
		plugins:  slices.Clone(r.plugins),
		packages: slices.Clone(r.packages),
		extNames: slices.Clone(r.extNames),
	}
	if len(r.extensions) > 0 {
		out.extensions = r.Extensions()
	}
	return out
}

// Equal compares two sets including list order and extension option values.
func (r *Resources) Equal(other *Resources) bool {
	if r == nil || other == nil {
		return r.IsEmpty() && other.IsEmpty()
	}
	if !slices.Equal(r.css, other.css) || !slices.Equal(r.js, other.js) ||
		!slices.Equal(r.plugins, other.plugins) || !slices.Equal(r.packages, other.packages) ||
		!slices.Equal(r.extNames, other.extNames) {
		return false
	}
	return maps.EqualFunc(r.extensions, other.extensions, func(a, b ExtensionConfig) bool {
		return valuesEqual(map[string]any(a), map[string]any(b))
	})
}

// Merged returns a fresh set holding all inputs merged left to right.
func Merged(sets ...*Resources) *Resources {
	out := New()
	for _, s := range sets {
		out.Merge(s)
	}
	return out
}

func appendUnique[T comparable](dst []T, values ...T) []T {
	for _, v := range values {
		if !slices.Contains(dst, v) {
			dst = append(dst, v)
		}
	}
	return dst
}
