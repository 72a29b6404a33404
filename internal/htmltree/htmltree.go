// Package htmltree builds the editor node tree from HTML markup.
package htmltree

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/riverfjs/formattext/internal/types"
)

var nbspReplacer = strings.NewReplacer("\u00a0", " ")

// Parse parses an HTML fragment as if it were the content of a <div> and
// returns it as a node tree rooted at that div. Comments and doctype nodes
// are dropped; non-breaking spaces in text become plain spaces.
func Parse(markup string) (*types.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := html.ParseFragment(strings.NewReader(markup), context)
	if err != nil {
		return nil, fmt.Errorf("htmltree: parse fragment: %w", err)
	}

	root := &types.Node{Tag: "div"}
	for _, n := range nodes {
		if c := convert(n); c != nil {
			root.Children = append(root.Children, c)
		}
	}
	return root, nil
}

func convert(n *html.Node) *types.Node {
	switch n.Type {
	case html.TextNode:
		return &types.Node{Text: nbspReplacer.Replace(n.Data)}
	case html.ElementNode:
	default:
		return nil
	}

	out := &types.Node{Tag: strings.ToLower(n.Data)}
	if len(n.Attr) > 0 {
		out.Attrs = make(map[string]string, len(n.Attr))
		for _, a := range n.Attr {
			out.Attrs[a.Key] = a.Val
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if child := convert(c); child != nil {
			out.Children = append(out.Children, child)
		}
	}
	return out
}
