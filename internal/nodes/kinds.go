package nodes

import (
	"fmt"
	"strings"
	"time"

	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/templating"
)

// RegisterKinds adds every variant in this package to k. envOpts configure the
// environment of template-enabled text nodes; the kind set itself is always
// passed along so nested templates can construct nodes too.
func RegisterKinds(k *node.Kinds, envOpts ...templating.Option) error {
	envOpts = append([]templating.Option{templating.WithKinds(k)}, envOpts...)

	ctors := map[string]node.Constructor{
		"text":       textKind(envOpts),
		"admonition": admonitionKind,
		"list":       listKind,
		"code":       codeKind,
		"table":      tableKind,
		"include":    includeKind,
		"shell":      shellKind,
		"remote":     remoteKind,
	}
	for _, name := range []string{"text", "admonition", "list", "code", "table", "include", "shell", "remote"} {
		if err := k.Register(name, ctors[name]); err != nil {
			return err
		}
	}
	return nil
}

// DefaultKinds returns a kind set holding every built-in variant.
func DefaultKinds(envOpts ...templating.Option) *node.Kinds {
	k := node.NewKinds()
	if err := RegisterKinds(k, envOpts...); err != nil {
		panic(err)
	}
	return k
}

// text(body) with named "template".
func textKind(envOpts []templating.Option) node.Constructor {
	return func(a node.Args) (node.Node, error) {
		body, err := a.String(0)
		if err != nil {
			return nil, err
		}
		t := NewText(body)
		if a.NamedBool("template", false) {
			t.EnableTemplate(envOpts...)
		}
		return t, nil
	}
}

// admonition(type, [title], children...) with named "title", "collapsible", "open".
// Extra string arguments become text children.
func admonitionKind(a node.Args) (node.Node, error) {
	typ, err := a.String(0)
	if err != nil {
		return nil, err
	}
	rest := a.Rest(1)
	title := a.NamedString("title", "")
	if len(rest) > 0 {
		if s, ok := rest[0].(string); ok && title == "" {
			title = s
			rest = rest[1:]
		}
	}
	adm := NewAdmonition(typ, title)
	if a.NamedBool("collapsible", false) {
		adm.Collapsible(a.NamedBool("open", false))
	}
	for _, item := range rest {
		child, ok := item.(node.Node)
		if !ok {
			child = NewText(toText(item))
		}
		if err := adm.Append(child); err != nil {
			return nil, err
		}
	}
	return adm, nil
}

// list(items...) or list(items) with named "ordered", "shorten_after".
func listKind(a node.Args) (node.Node, error) {
	items := a.Positional
	if len(items) == 1 {
		if inner, ok := items[0].([]any); ok {
			items = inner
		} else if inner, ok := items[0].([]string); ok {
			items = make([]any, len(inner))
			for i, s := range inner {
				items[i] = s
			}
		}
	}
	l, err := NewList(items)
	if err != nil {
		return nil, err
	}
	return l.SetOrdered(a.NamedBool("ordered", false)).ShortenAfter(a.NamedInt("shorten_after", 0)), nil
}

// code(source, [lang]) with named "lang", "title", "linenums".
func codeKind(a node.Args) (node.Node, error) {
	src, err := a.String(0)
	if err != nil {
		return nil, err
	}
	lang := a.NamedString("lang", "")
	if s, err := a.String(1); err == nil {
		lang = s
	}
	return NewCode(src, lang).
		SetTitle(a.NamedString("title", "")).
		SetLineNumbers(a.NamedBool("linenums", false)), nil
}

// table(headers, rows) with named "align".
func tableKind(a node.Args) (node.Node, error) {
	headers, err := a.Strings(0)
	if err != nil {
		return nil, err
	}
	var rows [][]string
	if raw, ok := a.At(1); ok {
		list, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("table rows: expected list of lists, got %T", raw)
		}
		for i, r := range list {
			row, err := node.Args{Positional: []any{r}}.Strings(0)
			if err != nil {
				return nil, fmt.Errorf("table row %d: %w", i, err)
			}
			rows = append(rows, row)
		}
	}
	return NewTable(headers, rows).SetAlign(a.NamedStrings("align")...), nil
}

// include(path) with named "start", "end", "lang".
func includeKind(a node.Args) (node.Node, error) {
	path, err := a.String(0)
	if err != nil {
		return nil, err
	}
	inc := NewInclude(path).Lines(a.NamedInt("start", 0), a.NamedInt("end", 0))
	if lang := a.NamedString("lang", ""); lang != "" {
		inc.AsCode(lang)
	}
	return inc, nil
}

// shell(command...) with named "dir", "lang", "timeout", "show_command".
// A single argument is split on whitespace.
func shellKind(a node.Args) (node.Node, error) {
	var command []string
	for i := range a.Len() {
		s, err := a.String(i)
		if err != nil {
			return nil, err
		}
		command = append(command, s)
	}
	if len(command) == 1 {
		command = strings.Fields(command[0])
	}
	if len(command) == 0 {
		return nil, fmt.Errorf("shell: no command given")
	}
	sh := NewShell(command).
		InDir(a.NamedString("dir", "")).
		WithLang(a.NamedString("lang", "text")).
		ShowCommand(a.NamedBool("show_command", false))
	if raw := a.NamedString("timeout", ""); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("shell timeout: %w", err)
		}
		sh.WithTimeout(d)
	}
	return sh, nil
}

// remote(url).
func remoteKind(a node.Args) (node.Node, error) {
	u, err := a.String(0)
	if err != nil {
		return nil, err
	}
	if _, err := templating.ValidateURL(u); err != nil {
		return nil, err
	}
	return NewRemote(u), nil
}

func toText(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}
