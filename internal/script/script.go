// Package script resolves build scripts: functions that populate the root
// navigation tree, looked up by name or loaded from a YAML tree description.
package script

import (
	"context"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/nav"
	"git.home.luguber.info/inful/docnodes/internal/node"
)

// Func populates root. It may mutate root and return nil, or return a
// replacement root.
type Func func(root *nav.Nav) (*nav.Nav, error)

// Registry maps script names to build functions.
type Registry struct {
	scripts map[string]Func
	kinds   *node.Kinds
}

// NewRegistry returns a registry; kinds are used to build YAML content nodes.
func NewRegistry(kinds *node.Kinds) *Registry {
	return &Registry{scripts: make(map[string]Func), kinds: kinds}
}

func (r *Registry) Register(name string, fn Func) error {
	if name == "" || fn == nil {
		return derrors.ScriptError("script needs a name and a function").Build()
	}
	if _, exists := r.scripts[name]; exists {
		return derrors.ScriptError("duplicate script").WithContext("script", name).Build()
	}
	r.scripts[name] = fn
	return nil
}

func (r *Registry) Names() []string {
	return slices.Sorted(maps.Keys(r.scripts))
}

// Resolve returns the script for ref. Refs ending in .yaml or .yml are loaded
// as tree scripts; anything else must be a registered name.
func (r *Registry) Resolve(ref string) (Func, error) {
	switch strings.ToLower(filepath.Ext(ref)) {
	case ".yaml", ".yml":
		return LoadYAML(ref, r.kinds)
	}
	fn, ok := r.scripts[ref]
	if !ok {
		return nil, derrors.ScriptError("unknown build script").
			WithContext("script", ref).
			WithContext("available", r.Names()).
			Build()
	}
	return fn, nil
}

// Run executes fn against root and returns the effective root. Panics and
// errors become fatal script errors.
func Run(ctx context.Context, fn Func, root *nav.Nav) (result *nav.Nav, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer func() {
		if rec := recover(); rec != nil {
			result = nil
			err = derrors.ScriptError(fmt.Sprintf("build script panicked: %v", rec)).Build()
		}
	}()

	replacement, err := fn(root)
	if err != nil {
		if derrors.IsClassified(err) && derrors.IsFatal(err) {
			return nil, err
		}
		return nil, derrors.WrapError(err, derrors.CategoryScript, "build script failed").Fatal().Build()
	}
	if replacement != nil {
		return replacement, nil
	}
	return root, nil
}
