package node

import (
	"maps"
	"slices"
	"sync"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
)

// Registry maps build-unique names to nodes. It is written while the tree is
// constructed and frozen before pages render in parallel; afterwards it only
// serves lookups.
type Registry struct {
	mu     sync.RWMutex
	nodes  map[string]Node
	frozen bool
}

func NewRegistry() *Registry {
	return &Registry{nodes: make(map[string]Node)}
}

// Register adds n under its name.
func (r *Registry) Register(n Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return derrors.BuildError("name registry is frozen").
			WithContext("name", n.Name()).
			Build()
	}
	name := n.Name()
	if name == "" {
		return derrors.ValidationError("cannot register a node without a name").
			WithContext("kind", n.Kind()).
			Build()
	}
	if existing, ok := r.nodes[name]; ok && existing != n {
		return derrors.ValidationError("duplicate node name").
			WithContext("name", name).
			WithContext("kind", n.Kind()).
			Build()
	}
	r.nodes[name] = n
	return nil
}

// Freeze makes the registry read-only.
func (r *Registry) Freeze() {
	r.mu.Lock()
	r.frozen = true
	r.mu.Unlock()
}

func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

func (r *Registry) Lookup(name string) (Node, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	n, ok := r.nodes[name]
	return n, ok
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.nodes)
}

// Names returns registered names sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.nodes))
}
