package converter

import (
	"strings"

	"github.com/riverfjs/formattext/internal/logging"
	"github.com/riverfjs/formattext/internal/types"
)

// EntityTypeByTag 固定的标签 → 实体类型表
var EntityTypeByTag = map[string]types.EntityType{
	"b":          types.Bold,
	"strong":     types.Bold,
	"i":          types.Italic,
	"em":         types.Italic,
	"u":          types.Underline,
	"ins":        types.Underline,
	"s":          types.Strikethrough,
	"strike":     types.Strikethrough,
	"del":        types.Strikethrough,
	"code":       types.Code,
	"pre":        types.Pre,
	"blockquote": types.Blockquote,
	"tg-spoiler": types.Spoiler,
}

// 不产生实体但有特殊处理的标签
var knownTags = map[string]bool{
	"a": true, "img": true, "br": true, "span": true, "div": true, "p": true,
}

var blockTags = map[string]bool{"div": true, "p": true}

// nodeConverter 将外部节点树转换为 AstNode 树
type nodeConverter struct {
	maxDepth    int
	customEmoji bool
	empty       bool
	endsNL      bool
}

// FromNodeTree 将编辑器提供的节点树映射为 AstNode 树
//
// 块级标签（div、p）在已有文本之后另起一行，br 为换行，
// 带 data-document-id 的 img 在 customEmoji 为 true 时为自定义 emoji，
// 否则只贡献 alt 文本；其余未知标签只贡献文本。
func FromNodeTree(root *types.Node, maxDepth int, customEmoji bool) []*AstNode {
	if root == nil {
		return nil
	}
	if maxDepth < 1 {
		maxDepth = types.DefaultMaxDepth
	}
	c := &nodeConverter{maxDepth: maxDepth, customEmoji: customEmoji, empty: true}
	return []*AstNode{c.convert(root, 0, false)}
}

func (c *nodeConverter) convert(n *types.Node, depth int, inPre bool) *AstNode {
	if n.IsText() {
		return c.text(n.Text)
	}

	tag := strings.ToLower(n.Tag)
	switch tag {
	case "br":
		return c.text("\n")
	case "img":
		alt := n.Attr("alt")
		if id := n.Attr("data-document-id"); c.customEmoji && id != "" && alt != "" && depth < c.maxDepth {
			return EntityNode(types.CustomEmoji, types.Extra{CustomEmojiID: id}, c.text(alt))
		}
		return c.text(alt)
	}

	var prefix *AstNode
	if blockTags[tag] && !c.empty && !c.endsNL {
		prefix = c.text("\n")
	}

	typ, extra := c.resolve(tag, n, inPre)
	if typ == types.CustomEmoji && !c.customEmoji {
		typ, extra = "", types.Extra{}
	}
	if typ == "" && EntityTypeByTag[tag] == "" && !knownTags[tag] {
		logging.Logger().Debug().Str("tag", tag).Msg("unknown node tag contributes text only")
	}

	var node *AstNode
	if typ != "" && depth >= c.maxDepth {
		node = c.text(NodeText(n))
	} else {
		next := depth
		if typ != "" {
			next++
		}
		children := make([]*AstNode, 0, len(n.Children))
		for _, child := range n.Children {
			if child == nil {
				continue
			}
			children = append(children, c.convert(child, next, inPre || tag == "pre"))
		}
		node = EntityNode(typ, extra, children...)
	}

	if prefix != nil {
		return EntityNode("", types.Extra{}, prefix, node)
	}
	return node
}

func (c *nodeConverter) resolve(tag string, n *types.Node, inPre bool) (types.EntityType, types.Extra) {
	// <pre><code> 只产生一个 pre 实体
	if tag == "code" && inPre {
		return "", types.Extra{}
	}
	text := ""
	if tag == "a" {
		text = NodeText(n)
	}
	typ, extra := resolveAttrType(EntityTypeByTag[tag], tag, n.Attrs, text)
	if typ == types.Pre && extra.Language == "" {
		extra.Language = codeChildLanguage(n)
	}
	return typ, extra
}

func (c *nodeConverter) text(s string) *AstNode {
	if s != "" {
		c.empty = false
		c.endsNL = s[len(s)-1] == '\n'
	}
	return TextNode(s)
}

func codeChildLanguage(n *types.Node) string {
	for _, child := range n.Children {
		if child != nil && strings.EqualFold(child.Tag, "code") {
			if lang := languageFromClass(child.Attr("class")); lang != "" {
				return lang
			}
			return child.Attr("data-language")
		}
	}
	return ""
}

// NodeText 返回节点树的纯文本（br 为换行，img 为 alt），用显式栈遍历
func NodeText(n *types.Node) string {
	var sb strings.Builder
	stack := []*types.Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == nil {
			continue
		}
		if cur.IsText() {
			sb.WriteString(cur.Text)
			continue
		}
		switch strings.ToLower(cur.Tag) {
		case "br":
			sb.WriteByte('\n')
			continue
		case "img":
			sb.WriteString(cur.Attr("alt"))
			continue
		}
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
	return sb.String()
}
