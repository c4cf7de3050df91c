package commands

import (
	"git.home.luguber.info/inful/docnodes/internal/nav"
	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/nodes"
	"git.home.luguber.info/inful/docnodes/internal/script"
)

// BuiltinScripts are the build functions shipped with the binary.
func BuiltinScripts() map[string]script.Func {
	return map[string]script.Func{
		"quickstart": quickstart,
	}
}

// quickstart builds a two-page site that shows the common node kinds.
func quickstart(root *nav.Nav) (*nav.Nav, error) {
	root.SetTitle("Documentation").EnableSummary(true)

	home := nav.NewPage("Home")
	intro := nodes.NewText("# Welcome\n\nThis site was generated by docnodes.", node.WithName("intro"))
	tip := nodes.NewAdmonition("tip", "Next step")
	if err := tip.Append(nodes.NewText("Replace the `quickstart` script with your own tree.")); err != nil {
		return nil, err
	}
	if err := home.Append(intro, tip); err != nil {
		return nil, err
	}
	if err := root.SetIndex(home); err != nil {
		return nil, err
	}

	usage := nav.NewPage("Command line").SetMeta("weight", 10)
	code := nodes.NewCode("docnodes build --script quickstart --output site", "sh", node.WithHeader("## Build"))
	table := nodes.NewTable(
		[]string{"Command", "Purpose"},
		[][]string{
			{"build", "render a script and export it"},
			{"render", "render one template"},
			{"watch", "rebuild on change"},
		},
		node.WithHeader("## Commands"),
	)
	if err := usage.Append(code, table); err != nil {
		return nil, err
	}
	return nil, root.Assign([]string{"reference"}, usage)
}
