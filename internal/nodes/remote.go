package nodes

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/docnodes/internal/node"
	"git.home.luguber.info/inful/docnodes/internal/templating"
)

// Remote fetches a URL at render time. HTML responses are reduced to the text
// of the main content element; anything else is embedded verbatim.
type Remote struct {
	node.Base
	url    string
	client *http.Client
}

func NewRemote(url string, opts ...node.Option) *Remote {
	r := &Remote{url: url}
	r.Init(r, "remote", opts...)
	return r
}

// WithClient overrides the default same-host-redirect client.
func (r *Remote) WithClient(c *http.Client) *Remote {
	r.client = c
	return r
}

func (r *Remote) URL() string { return r.url }

func (r *Remote) Content(ctx context.Context) (node.ContentResult, error) {
	body, contentType, err := templating.Fetch(ctx, r.client, r.url)
	if err != nil {
		return node.ContentResult{}, err
	}
	text := string(body)
	if strings.Contains(contentType, "html") {
		text, err = htmlToText(body)
		if err != nil {
			return node.ContentResult{}, err
		}
	}
	return node.NewContentResult(strings.TrimSpace(text), r.OwnResources()), nil
}

var skipped = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Nav: true, atom.Header: true,
	atom.Footer: true, atom.Noscript: true, atom.Template: true,
}

var blocks = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Section: true, atom.Pre: true, atom.Blockquote: true,
	atom.Table: true, atom.Tr: true, atom.Ul: true, atom.Ol: true,
}

var headingLevel = map[atom.Atom]int{
	atom.H1: 1, atom.H2: 2, atom.H3: 3, atom.H4: 4, atom.H5: 5, atom.H6: 6,
}

// htmlToText picks <main>, then <article>, then <body> and flattens it into
// paragraphs, keeping headings and list items recognizable.
func htmlToText(body []byte) (string, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	root := findFirst(doc, atom.Main)
	if root == nil {
		root = findFirst(doc, atom.Article)
	}
	if root == nil {
		root = findFirst(doc, atom.Body)
	}
	if root == nil {
		root = doc
	}

	var paras []string
	var cur strings.Builder
	flush := func() {
		if s := strings.Join(strings.Fields(cur.String()), " "); s != "" {
			paras = append(paras, s)
		}
		cur.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			return
		case html.ElementNode:
			if skipped[n.DataAtom] {
				return
			}
			if level, ok := headingLevel[n.DataAtom]; ok {
				flush()
				cur.WriteString(strings.Repeat("#", level) + " ")
				walkChildren(n, walk)
				flush()
				return
			}
			if n.DataAtom == atom.Li {
				flush()
				cur.WriteString("* ")
				walkChildren(n, walk)
				flush()
				return
			}
			if n.DataAtom == atom.Br {
				cur.WriteByte(' ')
				return
			}
			if blocks[n.DataAtom] {
				flush()
				walkChildren(n, walk)
				flush()
				return
			}
		}
		walkChildren(n, walk)
	}
	walk(root)
	flush()
	return strings.Join(paras, "\n\n"), nil
}

func walkChildren(n *html.Node, fn func(*html.Node)) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		fn(c)
	}
}

func findFirst(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, a); found != nil {
			return found
		}
	}
	return nil
}
