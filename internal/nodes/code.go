package nodes

import (
	"context"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/resources"
)

const (
	extHighlight   = "pymdownx.highlight"
	extSuperfences = "pymdownx.superfences"
)

// Code is a fenced code block.
type Code struct {
	node.Base
	code     string
	lang     string
	title    string
	linenums bool
}

func NewCode(code, lang string, opts ...node.Option) *Code {
	c := &Code{code: code, lang: lang}
	c.Init(c, "code", opts...)
	return c
}

func (c *Code) SetTitle(title string) *Code {
	c.title = title
	return c
}

func (c *Code) SetLineNumbers(on bool) *Code {
	c.linenums = on
	return c
}

func (c *Code) Content(context.Context) (node.ContentResult, error) {
	return node.NewContentResult(fence(c.code, c.lang, c.title, c.linenums), codeResources(c.OwnResources())), nil
}

func codeResources(own *resources.Resources) *resources.Resources {
	return own.AddExtension(extHighlight, nil).AddExtension(extSuperfences, nil)
}

// fence picks a backtick run longer than any run inside code.
func fence(code, lang, title string, linenums bool) string {
	longest, run := 0, 0
	for _, r := range code {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	marks := strings.Repeat("`", max(3, longest+1))

	var b strings.Builder
	b.WriteString(marks)
	b.WriteString(lang)
	if title != "" {
		b.WriteString(" title=")
		b.WriteString(strconv.Quote(title))
	}
	if linenums {
		b.WriteString(` linenums="1"`)
	}
	b.WriteByte('\n')
	b.WriteString(strings.TrimRight(code, "\n"))
	b.WriteByte('\n')
	b.WriteString(marks)
	return b.String()
}
