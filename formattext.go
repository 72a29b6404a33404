// Package formattext converts user-authored rich text into Telegram-style
// plain text plus formatting entities.
//
// The editor surface produces markup that mixes canonical tags (<b>, <i>,
// <code>, <a href>, <img data-document-id>, ...) with markdown shortcuts
// (**bold**, `code`, [text](url)). Parse normalizes the shortcuts, matches
// marker pairs, resolves nesting and overlaps into a tree and walks it.
// Entity offsets and lengths are measured in UTF-16 code units.
//
// Main entry points:
//   - Parse(): editor markup string
//   - ParseTree(): node tree supplied by the editor
//   - ParseHTML(): HTML fragment, parsed into a node tree first
//   - ParseMarkdown(): CommonMark/GFM document
//
// Example:
//
//	ft := formattext.Parse("**hello** [site](example.com)",
//	    formattext.WithAllowMarkdownLinks(true))
//	// ft.Text == "hello site"
//	// ft.Entities: bold 0+5, text_link 6+4 (https://example.com)
//
// None of the functions keep state between calls.
package formattext

import (
	"github.com/riverfjs/formattext/internal/htmltree"
	"github.com/riverfjs/formattext/internal/mdtree"
	"github.com/riverfjs/formattext/internal/parser"
	"github.com/riverfjs/formattext/internal/types"
)

// Node is one node of an editor-supplied tree. A node with an empty Tag is a
// text node.
type Node = types.Node

// FormattedText is the conversion result. Entities is nil, and omitted from
// JSON, when no entity was produced.
type FormattedText struct {
	Text     string   `json:"text"`
	Entities []Entity `json:"entities,omitempty"`
}

func newFormattedText(text string, entities []Entity) FormattedText {
	if len(entities) == 0 {
		entities = nil
	}
	return FormattedText{Text: text, Entities: entities}
}

// TextNode returns a text node.
func TextNode(text string) *Node {
	return &Node{Text: text}
}

// ElementNode returns an element node with the given tag, attributes and
// children.
func ElementNode(tag string, attrs map[string]string, children ...*Node) *Node {
	return &Node{Tag: tag, Attrs: attrs, Children: children}
}

// Parse converts editor markup into plain text and entities. It never fails:
// malformed markup is kept as literal text.
func Parse(markup string, opts ...Option) FormattedText {
	return newFormattedText(parser.Parse(markup, sanitize(applyOptions(opts...))))
}

// ParseTree walks an editor-supplied node tree. Tags map to entity types via
// a fixed table; unknown tags contribute only their text.
func ParseTree(root *Node, opts ...Option) FormattedText {
	return newFormattedText(parser.ParseTree(root, sanitize(applyOptions(opts...))))
}

// ParseHTML parses an HTML fragment into a node tree and walks it.
func ParseHTML(markup string, opts ...Option) (FormattedText, error) {
	root, err := htmltree.Parse(markup)
	if err != nil {
		return FormattedText{}, err
	}
	return ParseTree(root, opts...), nil
}

// ParseMarkdown parses a CommonMark/GFM document and walks the resulting tree.
func ParseMarkdown(markdown string, opts ...Option) FormattedText {
	return ParseTree(mdtree.Build(markdown, nil), opts...)
}
