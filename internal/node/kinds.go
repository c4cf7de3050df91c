package node

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
)

// Constructor builds a node of one kind from call arguments.
type Constructor func(Args) (Node, error)

// Kinds is the closed set of node kinds that templates and tree scripts can
// instantiate by name.
type Kinds struct {
	ctors map[string]Constructor
}

func NewKinds() *Kinds {
	return &Kinds{ctors: make(map[string]Constructor)}
}

// Register adds a kind. Names must be unique and usable as template identifiers.
func (k *Kinds) Register(name string, ctor Constructor) error {
	if name == "" || ctor == nil {
		return derrors.ValidationError("kind needs a name and a constructor").Build()
	}
	if _, exists := k.ctors[name]; exists {
		return derrors.ValidationError("duplicate kind").WithContext("kind", name).Build()
	}
	k.ctors[name] = ctor
	return nil
}

func (k *Kinds) Lookup(name string) (Constructor, bool) {
	c, ok := k.ctors[name]
	return c, ok
}

// Names returns the registered kinds sorted.
func (k *Kinds) Names() []string {
	return slices.Sorted(maps.Keys(k.ctors))
}

// Build constructs a node of the named kind and applies the common named
// options (header, name, css, shift, indent). Constructor panics become errors.
func (k *Kinds) Build(kind string, args Args) (n Node, err error) {
	ctor, ok := k.ctors[kind]
	if !ok {
		return nil, derrors.TemplateExpansionError("unknown node kind").
			WithContext("kind", kind).
			Build()
	}
	defer func() {
		if r := recover(); r != nil {
			n = nil
			err = derrors.TemplateExpansionError(fmt.Sprintf("%s constructor panicked: %v", kind, r)).
				WithContext("kind", kind).
				Build()
		}
	}()

	n, err = ctor(args)
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryTemplate, fmt.Sprintf("cannot construct %s node", kind)).
			WithContext("kind", kind).
			Build()
	}
	if n == nil {
		return nil, derrors.TemplateExpansionError(kind + " constructor returned no node").Build()
	}
	if err := Configure(n, args.Named); err != nil {
		return nil, err
	}
	return n, nil
}

// Configure applies the options every kind understands from a named-argument map.
func Configure(n Node, named map[string]any) error {
	b := n.base()
	a := Args{Named: named}
	if v, ok := named["header"]; ok {
		b.header = fmt.Sprint(v)
	}
	if v, ok := named["name"]; ok {
		b.name = fmt.Sprint(v)
	}
	if _, ok := named["css"]; ok {
		b.classes = appendClasses(b.classes, a.NamedStrings("css")...)
	}
	if _, ok := named["shift"]; ok {
		shift, err := toInt(named["shift"])
		if err != nil {
			return derrors.NewError(derrors.CategoryValidation, "shift must be an integer").WithCause(err).Build()
		}
		b.shift = shift
	}
	if v, ok := named["indent"]; ok {
		if width, err := toInt(v); err == nil {
			b.indent = strings.Repeat(" ", width)
		} else {
			b.indent = fmt.Sprint(v)
		}
	}
	return nil
}

// Args holds constructor arguments from a template call or a tree script.
type Args struct {
	Positional []any
	Named      map[string]any
}

// NewArgs splits call values; a trailing map[string]any becomes Named.
func NewArgs(values ...any) Args {
	if len(values) > 0 {
		if named, ok := values[len(values)-1].(map[string]any); ok {
			return Args{Positional: values[:len(values)-1], Named: named}
		}
	}
	return Args{Positional: values}
}

func (a Args) Len() int { return len(a.Positional) }

func (a Args) At(i int) (any, bool) {
	if i < 0 || i >= len(a.Positional) {
		return nil, false
	}
	return a.Positional[i], true
}

// Rest returns positional values from index i on.
func (a Args) Rest(i int) []any {
	if i >= len(a.Positional) {
		return nil
	}
	return a.Positional[i:]
}

func (a Args) missing(i int, want string) error {
	return fmt.Errorf("argument %d: expected %s, got nothing", i, want)
}

func (a Args) String(i int) (string, error) {
	v, ok := a.At(i)
	if !ok {
		return "", a.missing(i, "string")
	}
	return toString(v)
}

func (a Args) Int(i int) (int, error) {
	v, ok := a.At(i)
	if !ok {
		return 0, a.missing(i, "integer")
	}
	return toInt(v)
}

func (a Args) Bool(i int) (bool, error) {
	v, ok := a.At(i)
	if !ok {
		return false, a.missing(i, "bool")
	}
	return toBool(v)
}

func (a Args) Node(i int) (Node, error) {
	v, ok := a.At(i)
	if !ok {
		return nil, a.missing(i, "node")
	}
	n, ok := v.(Node)
	if !ok {
		return nil, fmt.Errorf("argument %d: expected node, got %T", i, v)
	}
	return n, nil
}

func (a Args) Strings(i int) ([]string, error) {
	v, ok := a.At(i)
	if !ok {
		return nil, a.missing(i, "list")
	}
	return toStrings(v)
}

func (a Args) NamedString(key, def string) string {
	if v, ok := a.Named[key]; ok {
		if s, err := toString(v); err == nil {
			return s
		}
	}
	return def
}

func (a Args) NamedInt(key string, def int) int {
	if v, ok := a.Named[key]; ok {
		if n, err := toInt(v); err == nil {
			return n
		}
	}
	return def
}

func (a Args) NamedBool(key string, def bool) bool {
	if v, ok := a.Named[key]; ok {
		if b, err := toBool(v); err == nil {
			return b
		}
	}
	return def
}

// NamedStrings accepts a list or a single space-separated string.
func (a Args) NamedStrings(key string) []string {
	v, ok := a.Named[key]
	if !ok {
		return nil
	}
	if s, isString := v.(string); isString {
		return strings.Fields(s)
	}
	out, _ := toStrings(v)
	return out
}

func toString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	case int, int64, float64, bool:
		return fmt.Sprint(s), nil
	default:
		return "", fmt.Errorf("expected string, got %T", v)
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case uint64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		return strconv.Atoi(strings.TrimSpace(n))
	default:
		return 0, fmt.Errorf("expected integer, got %T", v)
	}
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		return strconv.ParseBool(b)
	default:
		return false, fmt.Errorf("expected bool, got %T", v)
	}
}

func toStrings(v any) ([]string, error) {
	switch s := v.(type) {
	case []string:
		return slices.Clone(s), nil
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, err := toString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", v)
	}
}
