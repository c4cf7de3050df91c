package script

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/docnodes/internal/foundation/errors"
	"git.home.luguber.info/inful/docnodes/internal/nav"
	"git.home.luguber.info/inful/docnodes/internal/node"
)

// NavSpec is the YAML shape of a nav.
type NavSpec struct {
	Nav      string         `yaml:"nav"`
	Title    string         `yaml:"title"`
	Summary  bool           `yaml:"summary"`
	Metadata map[string]any `yaml:"metadata"`
	Index    *PageSpec      `yaml:"index"`
	Pages    []PageSpec     `yaml:"pages"`
	Navs     []NavSpec      `yaml:"navs"`
}

// PageSpec is the YAML shape of a page.
type PageSpec struct {
	Title    string            `yaml:"title"`
	Filename string            `yaml:"filename"`
	Name     string            `yaml:"name"`
	Metadata map[string]any    `yaml:"metadata"`
	Static   []node.StaticFile `yaml:"static"`
	Content  []NodeSpec        `yaml:"content"`
}

// NodeSpec is the YAML shape of one content node.
type NodeSpec struct {
	Kind     string         `yaml:"kind"`
	Args     []any          `yaml:"args"`
	Named    map[string]any `yaml:"named"`
	Name     string         `yaml:"name"`
	Header   string         `yaml:"header"`
	CSS      []string       `yaml:"css"`
	Shift    int            `yaml:"shift"`
	Indent   int            `yaml:"indent"`
	Children []NodeSpec     `yaml:"children"`
}

// LoadYAML reads a tree script. The returned Func builds a fresh root from
// the file and returns it as the replacement.
func LoadYAML(path string, kinds *node.Kinds) (Func, error) {
	// #nosec G304 -- script paths come from the command line.
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, derrors.ScriptError("cannot read tree script").
			WithCause(err).
			WithContext("script", path).
			Build()
	}
	var spec NavSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, derrors.ScriptError("cannot parse tree script").
			WithCause(err).
			WithContext("script", path).
			Build()
	}
	return func(*nav.Nav) (*nav.Nav, error) {
		return BuildNav(spec, kinds)
	}, nil
}

// BuildNav turns a NavSpec into a nav tree.
func BuildNav(spec NavSpec, kinds *node.Kinds) (*nav.Nav, error) {
	n := nav.New(spec.Nav).EnableSummary(spec.Summary)
	if spec.Title != "" {
		n.SetTitle(spec.Title)
	}
	for k, v := range spec.Metadata {
		n.SetMeta(k, v)
	}
	if spec.Index != nil {
		idx, err := buildPage(*spec.Index, kinds)
		if err != nil {
			return nil, err
		}
		if err := n.SetIndex(idx); err != nil {
			return nil, err
		}
	}
	for _, ps := range spec.Pages {
		p, err := buildPage(ps, kinds)
		if err != nil {
			return nil, err
		}
		if err := n.Add(p); err != nil {
			return nil, err
		}
	}
	for _, ns := range spec.Navs {
		sub, err := BuildNav(ns, kinds)
		if err != nil {
			return nil, err
		}
		if err := n.Add(sub); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func buildPage(spec PageSpec, kinds *node.Kinds) (*nav.Page, error) {
	p := nav.NewPage(spec.Title, node.WithName(spec.Name))
	if spec.Filename != "" {
		p.SetFilename(spec.Filename)
	}
	for k, v := range spec.Metadata {
		p.SetMeta(k, v)
	}
	p.AttachStatic(spec.Static...)
	for i, ns := range spec.Content {
		child, err := buildNode(ns, kinds)
		if err != nil {
			return nil, derrors.ScriptError(fmt.Sprintf("page %q content[%d]", spec.Title, i)).WithCause(err).Build()
		}
		if err := p.Append(child); err != nil {
			return nil, err
		}
	}
	return p, nil
}

type appender interface {
	Append(children ...node.Node) error
}

func buildNode(spec NodeSpec, kinds *node.Kinds) (node.Node, error) {
	if kinds == nil {
		return nil, derrors.ScriptError("no node kinds configured").Build()
	}
	named := make(map[string]any, len(spec.Named)+5)
	for k, v := range spec.Named {
		named[k] = v
	}
	if spec.Name != "" {
		named["name"] = spec.Name
	}
	if spec.Header != "" {
		named["header"] = spec.Header
	}
	if len(spec.CSS) > 0 {
		named["css"] = spec.CSS
	}
	if spec.Shift != 0 {
		named["shift"] = spec.Shift
	}
	if spec.Indent != 0 {
		named["indent"] = spec.Indent
	}

	n, err := kinds.Build(spec.Kind, node.Args{Positional: spec.Args, Named: named})
	if err != nil {
		return nil, err
	}
	if len(spec.Children) == 0 {
		return n, nil
	}
	parent, ok := n.(appender)
	if !ok {
		return nil, derrors.ScriptError(spec.Kind + " nodes cannot have children").Build()
	}
	for _, cs := range spec.Children {
		child, err := buildNode(cs, kinds)
		if err != nil {
			return nil, err
		}
		if err := parent.Append(child); err != nil {
			return nil, err
		}
	}
	return n, nil
}
