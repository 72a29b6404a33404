// Package symbols is the static registry of markers recognised in the
// canonical tagged form.
package symbols

import (
	"sort"
	"strings"

	"github.com/riverfjs/formattext/internal/types"
)

// Kind describes how a marker is closed.
type Kind int

const (
	// Markdown markers are symmetric: the closing symbol equals the opening one.
	Markdown Kind = iota
	// Tag markers are literal open tags such as "<b>" with a distinct closing tag.
	Tag
	// AttrTag markers are open-tag prefixes such as "<code"; the open marker
	// runs to the next '>' and may carry attributes.
	AttrTag
	// Void markers have no closing tag ("<img ...>"); the whole tag is the span.
	Void
)

// Marker is one entry of the table.
type Marker struct {
	Symbol    string
	Closing   string
	Type      types.EntityType
	Symmetric bool
	Kind      Kind
	// Opaque markers hide their interior from further scanning (code, pre).
	Opaque bool
}

func markdown(symbol string, t types.EntityType, opaque bool) Marker {
	return Marker{Symbol: symbol, Closing: symbol, Type: t, Symmetric: true, Kind: Markdown, Opaque: opaque}
}

func tag(name string, t types.EntityType) Marker {
	return Marker{Symbol: "<" + name + ">", Closing: "</" + name + ">", Type: t, Kind: Tag}
}

func attrTag(name string, t types.EntityType, opaque bool) Marker {
	return Marker{Symbol: "<" + name, Closing: "</" + name + ">", Type: t, Kind: AttrTag, Opaque: opaque}
}

// markers lists every marker. Entries with an empty Type derive it from
// their attributes (a, span, img).
var markers = []Marker{
	markdown("```", types.Pre, true),
	markdown("`", types.Code, true),
	markdown("**", types.Bold, false),
	markdown("__", types.Italic, false),
	markdown("~~", types.Strikethrough, false),
	markdown("||", types.Spoiler, false),
	markdown("*", types.Italic, false),
	markdown("_", types.Italic, false),

	tag("b", types.Bold),
	tag("strong", types.Bold),
	tag("i", types.Italic),
	tag("em", types.Italic),
	tag("u", types.Underline),
	tag("ins", types.Underline),
	tag("s", types.Strikethrough),
	tag("strike", types.Strikethrough),
	tag("del", types.Strikethrough),

	attrTag("code", types.Code, true),
	attrTag("pre", types.Pre, true),
	attrTag("blockquote", types.Blockquote, false),
	attrTag("span", "", false),
	attrTag("a", "", false),

	{Symbol: "<img", Kind: Void},
}

// Table maps first characters to candidate markers, longest first.
type Table struct {
	byFirst map[byte][]Marker
	// closings 标签型标记的闭合标签，都以 '>' 结尾，互不为前缀
	closings []string
}

var defaultTable = newTable(markers)

// Default returns the shared, read-only table.
func Default() *Table {
	return defaultTable
}

func newTable(ms []Marker) *Table {
	t := &Table{byFirst: make(map[byte][]Marker)}
	for _, m := range ms {
		t.byFirst[m.Symbol[0]] = append(t.byFirst[m.Symbol[0]], m)
		if m.Kind != Markdown && m.Closing != "" {
			t.closings = append(t.closings, m.Closing)
		}
	}
	for _, list := range t.byFirst {
		sort.SliceStable(list, func(i, j int) bool {
			return len(list[i].Symbol) > len(list[j].Symbol)
		})
	}
	return t
}

// Candidates returns every marker whose symbol matches input at pos,
// longest symbol first.
func (t *Table) Candidates(input string, pos int) []Marker {
	if pos >= len(input) {
		return nil
	}
	list := t.byFirst[input[pos]]
	if len(list) == 0 {
		return nil
	}
	var out []Marker
	for _, m := range list {
		if MatchesAt(input, pos, m) {
			out = append(out, m)
		}
	}
	return out
}

// ByFirst returns the markers starting with c, longest first. The slice is
// shared and must not be modified.
func (t *Table) ByFirst(c byte) []Marker {
	return t.byFirst[c]
}

// Lookup returns the longest marker matching at pos.
func (t *Table) Lookup(input string, pos int) (Marker, bool) {
	if pos >= len(input) {
		return Marker{}, false
	}
	for _, m := range t.byFirst[input[pos]] {
		if MatchesAt(input, pos, m) {
			return m, true
		}
	}
	return Marker{}, false
}

// CloseAt returns the closing tag of a tag-style marker found at pos.
func (t *Table) CloseAt(input string, pos int) (string, bool) {
	for _, c := range t.closings {
		if strings.HasPrefix(input[pos:], c) {
			return c, true
		}
	}
	return "", false
}

// Markers returns a copy of the registry.
func (t *Table) Markers() []Marker {
	var out []Marker
	for _, list := range t.byFirst {
		out = append(out, list...)
	}
	return out
}

// MatchesAt reports whether m opens at pos in input.
func MatchesAt(input string, pos int, m Marker) bool {
	if !strings.HasPrefix(input[pos:], m.Symbol) {
		return false
	}
	if m.Kind != AttrTag && m.Kind != Void {
		return true
	}
	// "<a" must not match "<abbr"
	next := pos + len(m.Symbol)
	if next >= len(input) {
		return false
	}
	switch input[next] {
	case '>', ' ', '\t', '\n', '\r', '/':
		return true
	}
	return false
}
