package converter

import (
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/riverfjs/formattext/internal/logging"
	"github.com/riverfjs/formattext/internal/types"
)

// AstNode 规范化文本的语法树节点
//
// Entity 为 false 时是文本节点；Entity 为 true 且 Type 为空时是透明容器，
// 只贡献子节点文本。
type AstNode struct {
	Text     string
	Entity   bool
	Type     types.EntityType
	Extra    types.Extra
	Children []*AstNode
}

// TextNode creates a text leaf.
func TextNode(text string) *AstNode {
	return &AstNode{Text: text}
}

// EntityNode creates an entity node. An empty type makes a transparent container.
func EntityNode(t types.EntityType, extra types.Extra, children ...*AstNode) *AstNode {
	return &AstNode{Entity: true, Type: t, Extra: extra, Children: children}
}

type treeBuilder struct {
	input    string
	maxDepth int
	// hidden 被丢弃的标签型 span 的开闭标签字节，输出文本时跳过
	hidden []bool
}

// BuildTree 将排好序的 span 构建为嵌套树
//
// 完全包含的 span 成为子节点；与前一个 span 交叉（未被包含）的 span 被丢弃：
// Markdown 标记作为普通文本保留，标签则从文本中去掉。超过 maxDepth 层实体的
// 内容压平为文本，透明容器不计入层数。
func BuildTree(normalized string, spans []Span, maxDepth int) []*AstNode {
	if maxDepth < 1 {
		maxDepth = types.DefaultMaxDepth
	}
	b := &treeBuilder{input: normalized, maxDepth: maxDepth}
	return b.build(0, len(normalized), spans, 0)
}

func (b *treeBuilder) build(lo, hi int, spans []Span, depth int) []*AstNode {
	var nodes []*AstNode
	pos := lo

	for i := 0; i < len(spans); {
		sp := spans[i]
		if sp.Start > pos {
			nodes = append(nodes, b.text(pos, sp.Start))
		}

		j := i + 1
		var nested []Span
		for ; j < len(spans) && spans[j].Start < sp.End; j++ {
			if sp.Contains(spans[j]) {
				nested = append(nested, spans[j])
				continue
			}
			logging.Logger().Debug().
				Int("start", spans[j].Start).
				Int("end", spans[j].End).
				Str("marker", spans[j].Symbol).
				Msg("overlapping span dropped")
			b.hide(spans[j])
		}

		nodes = append(nodes, b.node(sp, nested, depth))
		pos = sp.End
		i = j
	}

	if pos < hi {
		nodes = append(nodes, b.text(pos, hi))
	}
	return nodes
}

func (b *treeBuilder) node(sp Span, nested []Span, depth int) *AstNode {
	if sp.Void {
		if sp.Type == "" || depth >= b.maxDepth {
			return TextNode(sp.Content)
		}
		return EntityNode(sp.Type, sp.Extra, TextNode(sp.Content))
	}

	if sp.Type == "" {
		return EntityNode("", sp.Extra, b.build(sp.InnerStart, sp.InnerEnd, nested, depth)...)
	}
	if depth >= b.maxDepth {
		logging.Logger().Debug().Int("depth", depth).Str("marker", sp.Symbol).Msg("nesting flattened to text")
		return TextNode(b.flatten(sp.InnerStart, sp.InnerEnd, nested))
	}

	if sp.Opaque {
		return EntityNode(sp.Type, sp.Extra, b.text(sp.InnerStart, sp.InnerEnd))
	}
	return EntityNode(sp.Type, sp.Extra, b.build(sp.InnerStart, sp.InnerEnd, nested, depth+1)...)
}

func (b *treeBuilder) text(lo, hi int) *AstNode {
	return TextNode(b.plain(lo, hi))
}

// hide 标记被丢弃的标签 span 的开闭标签；Markdown 标记和图片不处理
func (b *treeBuilder) hide(sp Span) {
	if sp.Void || !sp.Tagged() {
		return
	}
	if b.hidden == nil {
		b.hidden = make([]bool, len(b.input))
	}
	for k := sp.Start; k < sp.InnerStart; k++ {
		b.hidden[k] = true
	}
	for k := sp.InnerEnd; k < sp.End; k++ {
		b.hidden[k] = true
	}
}

// plain 返回 [lo, hi) 解码后的文本，跳过 hidden 字节
func (b *treeBuilder) plain(lo, hi int) string {
	if b.hidden == nil {
		return html.UnescapeString(b.input[lo:hi])
	}
	var sb strings.Builder
	for k := lo; k < hi; {
		if b.hidden[k] {
			k++
			continue
		}
		e := k
		for e < hi && !b.hidden[e] {
			e++
		}
		sb.WriteString(html.UnescapeString(b.input[k:e]))
		k = e
	}
	return sb.String()
}

// flatten 去掉 [lo, hi) 内所有嵌套标记，返回纯文本（不递归）
func (b *treeBuilder) flatten(lo, hi int, spans []Span) string {
	type cut struct {
		from, to int
		repl     string
	}
	cuts := make([]cut, 0, 2*len(spans))
	for _, sp := range spans {
		if sp.Void {
			cuts = append(cuts, cut{sp.Start, sp.End, sp.Content})
			continue
		}
		cuts = append(cuts, cut{sp.Start, sp.InnerStart, ""}, cut{sp.InnerEnd, sp.End, ""})
	}
	sort.SliceStable(cuts, func(i, j int) bool { return cuts[i].from < cuts[j].from })

	var sb strings.Builder
	pos := lo
	for _, c := range cuts {
		if c.from < pos || c.to > hi {
			continue
		}
		sb.WriteString(b.plain(pos, c.from))
		sb.WriteString(c.repl)
		pos = c.to
	}
	sb.WriteString(b.plain(pos, hi))
	return sb.String()
}

// PlainText 返回子树的全部文本，用显式栈遍历
func PlainText(n *AstNode) string {
	var sb strings.Builder
	stack := []*AstNode{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !cur.Entity {
			sb.WriteString(cur.Text)
			continue
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return sb.String()
}
