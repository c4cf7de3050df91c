package resources

import (
	"fmt"
	"reflect"
	"runtime"
	"slices"
	"sort"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
)

// Conflict records an extension option that a later merge overwrote with a different value.
type Conflict struct {
	Extension string
	Key       string
	Old       any
	New       any
}

// Err converts the conflict into a non-fatal classified warning.
func (c Conflict) Err() error {
	return derrors.ResourceMergeConflict(fmt.Sprintf("extension %q option %q overwritten", c.Extension, c.Key)).
		WithContext("extension", c.Extension).
		WithContext("key", c.Key).
		WithContext("old", Serializable(c.Old)).
		WithContext("new", Serializable(c.New)).
		Build()
}

// Merge unions other into r in place and returns overwritten extension options.
//
// List kinds dedup by value and keep first-seen order, so merging is associative for them.
// Extension configs merge per name: unseen names are copied, known names deep-merge
// key by key with other winning conflicts. That half is order-sensitive.
func (r *Resources) Merge(other *Resources) []Conflict {
	if other == nil || r == other {
		return nil
	}
	r.css = appendUnique(r.css, other.css...)
	r.js = appendUnique(r.js, other.js...)
	r.plugins = appendUnique(r.plugins, other.plugins...)
	r.packages = appendUnique(r.packages, other.packages...)

	var conflicts []Conflict
	for _, name := range other.extNames {
		r.mergeExtension(name, other.extensions[name], &conflicts)
	}
	return conflicts
}

func (r *Resources) mergeExtension(name string, cfg ExtensionConfig, conflicts *[]Conflict) {
	if r.extensions == nil {
		r.extensions = make(map[string]ExtensionConfig)
	}
	existing, known := r.extensions[name]
	if !known {
		r.extNames = append(r.extNames, name)
		r.extensions[name] = cloneConfig(cfg)
		return
	}
	if existing == nil {
		existing = ExtensionConfig{}
		r.extensions[name] = existing
	}
	mergeMaps(name, "", existing, cfg, conflicts)
}

func mergeMaps(ext, prefix string, dst, src map[string]any, conflicts *[]Conflict) {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		incoming := src[k]
		current, ok := dst[k]
		if !ok {
			dst[k] = cloneValue(incoming)
			continue
		}
		curMap, curIsMap := asMap(current)
		inMap, inIsMap := asMap(incoming)
		if curIsMap && inIsMap {
			merged := cloneMap(curMap)
			mergeMaps(ext, prefix+k+".", merged, inMap, conflicts)
			dst[k] = merged
			continue
		}
		if conflicts != nil && !valuesEqual(current, incoming) {
			*conflicts = append(*conflicts, Conflict{Extension: ext, Key: prefix + k, Old: current, New: incoming})
		}
		dst[k] = cloneValue(incoming)
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case ExtensionConfig:
		return map[string]any(m), true
	default:
		return nil, false
	}
}

func cloneConfig(cfg ExtensionConfig) ExtensionConfig {
	if cfg == nil {
		return ExtensionConfig{}
	}
	return ExtensionConfig(cloneMap(cfg))
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	if m, ok := asMap(v); ok {
		return cloneMap(m)
	}
	if s, ok := v.([]any); ok {
		out := make([]any, len(s))
		for i, item := range s {
			out[i] = cloneValue(item)
		}
		return out
	}
	if s, ok := v.([]string); ok {
		return slices.Clone(s)
	}
	return v
}

// valuesEqual compares option values; funcs compare by qualified name.
func valuesEqual(a, b any) bool {
	return reflect.DeepEqual(Serializable(a), Serializable(b))
}

// Serializable converts a config value into JSON-safe data. Callables become
// their qualified function name since they cannot round-trip otherwise.
func Serializable(v any) any {
	if v == nil {
		return nil
	}
	if m, ok := asMap(v); ok {
		out := make(map[string]any, len(m))
		for k, item := range m {
			out[k] = Serializable(item)
		}
		return out
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Func:
		if rv.IsNil() {
			return nil
		}
		if fn := runtime.FuncForPC(rv.Pointer()); fn != nil {
			return fn.Name()
		}
		return rv.Type().String()
	case reflect.Slice, reflect.Array:
		if _, isBytes := v.([]byte); isBytes {
			return v
		}
		out := make([]any, rv.Len())
		for i := range rv.Len() {
			out[i] = Serializable(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return fmt.Sprint(v)
		}
		out := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out[iter.Key().String()] = Serializable(iter.Value().Interface())
		}
		return out
	default:
		return v
	}
}
