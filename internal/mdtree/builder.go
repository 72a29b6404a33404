// Package mdtree converts CommonMark/GFM into the editor node tree using
// goldmark, so Markdown documents share the tree walker with editor input.
package mdtree

import (
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/riverfjs/formattext/internal/converter"
	"github.com/riverfjs/formattext/internal/types"
)

// StandardOptions goldmark 扩展配置
var StandardOptions = []goldmark.Option{
	goldmark.WithExtensions(
		extension.GFM, // tables, strikethrough, tasklists, linkify
	),
}

// Symbol 定义 Markdown 元素的显示符号
type Symbol struct {
	HeadingLevel1   string
	HeadingLevel2   string
	HeadingLevel3   string
	HeadingLevel4   string
	HeadingLevel5   string
	HeadingLevel6   string
	Image           string
	Bullet          string
	Rule            string
	TaskCompleted   string
	TaskUncompleted string
}

// DefaultSymbol 返回默认符号配置
func DefaultSymbol() *Symbol {
	return &Symbol{
		HeadingLevel1:   "📌",
		HeadingLevel2:   "📝",
		HeadingLevel3:   "📋",
		HeadingLevel4:   "📄",
		HeadingLevel5:   "📃",
		HeadingLevel6:   "🔖",
		Image:           "🖼",
		Bullet:          "⦁",
		Rule:            "————————",
		TaskCompleted:   "✅",
		TaskUncompleted: "☑️",
	}
}

func (s *Symbol) heading(level int) string {
	switch level {
	case 1:
		return s.HeadingLevel1
	case 2:
		return s.HeadingLevel2
	case 3:
		return s.HeadingLevel3
	case 4:
		return s.HeadingLevel4
	case 5:
		return s.HeadingLevel5
	default:
		return s.HeadingLevel6
	}
}

var headingTags = map[int][]string{
	1: {"b", "u"},
	2: {"b", "u"},
	3: {"b"},
	4: {"b"},
	5: {"i"},
	6: {"i"},
}

// Build 解析 Markdown 并返回节点树
func Build(markdown string, symbol *Symbol) *types.Node {
	if symbol == nil {
		symbol = DefaultSymbol()
	}
	source := []byte(PreprocessSpoilers(markdown))
	md := goldmark.New(StandardOptions...)
	doc := md.Parser().Parse(text.NewReader(source))

	b := newBuilder(source, symbol)
	_ = ast.Walk(doc, b.Walk)
	return b.root
}

// listState 当前列表的编号状态，ordered 为 false 时使用 bullet
type listState struct {
	ordered bool
	next    int
}

// builder 遍历 goldmark AST 并构建节点树
type builder struct {
	source []byte
	symbol *Symbol
	root   *types.Node
	stack  []*types.Node

	listStack []*listState
	bullets   map[*types.Node]*types.Node // list item → bullet 文本节点

	// open goldmark 节点 → 它压入的节点；owned 为这些节点的集合，
	// 内联 HTML 的闭合标签不会越过它们
	open  map[ast.Node]*types.Node
	owned map[*types.Node]bool

	// Table state
	inTable    bool
	tableRows  [][]string
	currentRow []string
	cellParts  []string
}

func newBuilder(source []byte, symbol *Symbol) *builder {
	root := &types.Node{Tag: "div"}
	return &builder{
		source:  source,
		symbol:  symbol,
		root:    root,
		stack:   []*types.Node{root},
		bullets: make(map[*types.Node]*types.Node),
		open:    make(map[ast.Node]*types.Node),
		owned:   make(map[*types.Node]bool),
	}
}

// Walk 遍历 AST 节点
func (b *builder) Walk(node ast.Node, entering bool) (ast.WalkStatus, error) {
	if b.inTable {
		return b.walkTable(node, entering)
	}

	switch n := node.(type) {
	case *ast.Document, *ast.TextBlock:

	// --- Inline elements ---
	case *ast.Text:
		if entering {
			b.onText(n)
		}

	case *ast.String:
		if entering {
			b.appendText(string(n.Value))
		}

	case *ast.CodeSpan:
		if entering {
			b.appendElement("code", nil, b.inlineText(n))
			return ast.WalkSkipChildren, nil
		}

	case *ast.Emphasis:
		tag := "i"
		if n.Level == 2 {
			tag = "b"
		}
		b.pushOrPop(entering, n, tag, nil)

	case *east.Strikethrough:
		b.pushOrPop(entering, n, "s", nil)

	// --- Links & Images ---
	case *ast.Link:
		b.pushOrPop(entering, n, "a", map[string]string{"href": string(n.Destination)})

	case *ast.AutoLink:
		if entering {
			url := string(n.URL(b.source))
			b.appendElement("a", map[string]string{"href": url}, string(n.Label(b.source)))
			return ast.WalkSkipChildren, nil
		}

	case *ast.Image:
		if entering {
			b.onImage(n)
			return ast.WalkSkipChildren, nil
		}

	case *ast.RawHTML:
		if entering {
			b.onInlineHTML(n)
		}

	// --- Block elements ---
	case *ast.Paragraph:
		b.blockOrPop(entering, n, "p", nil)

	case *ast.Heading:
		if entering {
			b.onStartHeading(n)
		} else {
			b.exit(n)
		}

	case *ast.Blockquote:
		b.blockOrPop(entering, n, "blockquote", nil)

	case *ast.List:
		if entering {
			b.openBlock("div", nil)
			b.enter(n)
			b.listStack = append(b.listStack, &listState{ordered: n.IsOrdered(), next: n.Start})
		} else {
			b.listStack = b.listStack[:len(b.listStack)-1]
			b.exit(n)
		}

	case *ast.ListItem:
		if entering {
			b.onStartItem()
			b.enter(n)
		} else {
			b.exit(n)
		}

	case *east.TaskCheckBox:
		if entering {
			b.onTaskCheckBox(n.IsChecked)
		}

	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			b.onCodeBlock(n)
			return ast.WalkSkipChildren, nil
		}

	case *ast.ThematicBreak:
		if entering {
			b.openBlock("p", nil)
			b.appendText(b.symbol.Rule)
			b.pop()
		}

	case *ast.HTMLBlock:
		return ast.WalkSkipChildren, nil

	case *east.Table:
		if entering {
			b.inTable = true
			b.tableRows = nil
		}
	}

	return ast.WalkContinue, nil
}

// --- Text handling ---

func (b *builder) onText(n *ast.Text) {
	content := string(n.Segment.Value(b.source))
	if n.SoftLineBreak() || n.HardLineBreak() {
		content += "\n"
	}
	b.appendText(content)
}

func (b *builder) onInlineHTML(n *ast.RawHTML) {
	var sb strings.Builder
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		sb.Write(seg.Value(b.source))
	}
	raw := strings.TrimSpace(strings.ToLower(sb.String()))
	if !strings.HasPrefix(raw, "<") || !strings.HasSuffix(raw, ">") {
		return
	}
	name := strings.Trim(raw, "<>/ ")
	if name == "br" {
		b.appendElement("br", nil, "")
		return
	}
	if _, ok := converter.EntityTypeByTag[name]; !ok {
		return
	}
	if strings.HasPrefix(raw, "</") {
		b.closeTag(name)
		return
	}
	b.push(name, nil)
}

// --- Headings / blocks ---

func (b *builder) onStartHeading(n *ast.Heading) {
	b.openBlock("p", nil)
	b.enter(n)
	if s := b.symbol.heading(n.Level); s != "" {
		b.appendText(s + " ")
	}
	for _, tag := range headingTags[n.Level] {
		b.push(tag, nil)
	}
}

func (b *builder) onCodeBlock(n ast.Node) {
	var lang string
	if fenced, ok := n.(*ast.FencedCodeBlock); ok {
		lang = strings.TrimSpace(strings.Split(string(fenced.Language(b.source)), ",")[0])
	}

	var sb strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		sb.Write(line.Value(b.source))
	}
	raw := strings.TrimSuffix(sb.String(), "\n")

	var attrs map[string]string
	if lang != "" {
		attrs = map[string]string{"data-language": lang}
	}
	b.openBlock("pre", attrs)
	b.appendText(raw)
	b.pop()
}

func (b *builder) onImage(n *ast.Image) {
	dest := string(n.Destination)
	alt := b.inlineText(n)
	if id := validateEmojiURL(dest); id != "" {
		b.appendElement("img", map[string]string{"alt": alt, "data-document-id": id}, "")
		return
	}
	b.appendText(b.symbol.Image)
	b.appendElement("a", map[string]string{"href": dest}, alt)
}

func validateEmojiURL(url string) string {
	typ, extra := converter.ClassifyLink(url, "")
	if typ == types.CustomEmoji {
		return extra.CustomEmojiID
	}
	return ""
}

// --- Lists ---

func (b *builder) onStartItem() {
	depth := len(b.listStack)
	indent := strings.Repeat("  ", max(depth-1, 0))

	b.openBlock("div", nil)
	item := b.top()

	prefix := indent + b.symbol.Bullet + " "
	if depth > 0 {
		if list := b.listStack[depth-1]; list.ordered {
			prefix = fmt.Sprintf("%s%d. ", indent, list.next)
			list.next++
		}
	}
	bullet := &types.Node{Text: prefix}
	item.Children = append(item.Children, bullet)
	b.bullets[item] = bullet
}

// onTaskCheckBox 用任务标记替换 onStartItem 写入的 bullet
func (b *builder) onTaskCheckBox(checked bool) {
	for i := len(b.stack) - 1; i >= 0; i-- {
		bullet, ok := b.bullets[b.stack[i]]
		if !ok {
			continue
		}
		indent := strings.Repeat("  ", max(len(b.listStack)-1, 0))
		symbol := b.symbol.TaskUncompleted
		if checked {
			symbol = b.symbol.TaskCompleted
		}
		bullet.Text = indent + symbol + " "
		return
	}
}

// --- Tables ---

func (b *builder) walkTable(node ast.Node, entering bool) (ast.WalkStatus, error) {
	switch n := node.(type) {
	case *east.Table:
		if !entering {
			b.inTable = false
			b.openBlock("pre", nil)
			b.appendText(formatTable(b.tableRows))
			b.pop()
			b.tableRows = nil
		}
	case *east.TableHeader, *east.TableRow:
		if entering {
			b.currentRow = nil
		} else {
			b.tableRows = append(b.tableRows, b.currentRow)
		}
	case *east.TableCell:
		if entering {
			b.cellParts = nil
		} else {
			b.currentRow = append(b.currentRow, strings.Join(b.cellParts, ""))
		}
	case *ast.Text:
		if entering {
			b.cellParts = append(b.cellParts, string(n.Segment.Value(b.source)))
			if n.SoftLineBreak() {
				b.cellParts = append(b.cellParts, " ")
			}
		}
	case *ast.String:
		if entering {
			b.cellParts = append(b.cellParts, string(n.Value))
		}
	case *ast.CodeSpan:
		if entering {
			b.cellParts = append(b.cellParts, b.inlineText(n))
			return ast.WalkSkipChildren, nil
		}
	}
	return ast.WalkContinue, nil
}

func formatTable(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	numCols := 0
	for _, row := range rows {
		numCols = max(numCols, len(row))
	}
	colWidths := make([]int, numCols)
	for _, row := range rows {
		for i, cell := range row {
			colWidths[i] = max(colWidths[i], len([]rune(cell)))
		}
	}

	var lines []string
	for rowIdx, row := range rows {
		cells := make([]string, numCols)
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = cell + strings.Repeat(" ", colWidths[i]-len([]rune(cell)))
		}
		lines = append(lines, strings.TrimRight(strings.Join(cells, " | "), " "))

		if rowIdx == 0 && len(rows) > 1 {
			sepCells := make([]string, numCols)
			for i := 0; i < numCols; i++ {
				sepCells[i] = strings.Repeat("-", colWidths[i])
			}
			lines = append(lines, strings.Join(sepCells, "-+-"))
		}
	}
	return strings.Join(lines, "\n")
}

// --- Tree helpers ---

func (b *builder) top() *types.Node {
	return b.stack[len(b.stack)-1]
}

func (b *builder) push(tag string, attrs map[string]string) {
	n := &types.Node{Tag: tag, Attrs: attrs}
	parent := b.top()
	parent.Children = append(parent.Children, n)
	b.stack = append(b.stack, n)
}

func (b *builder) pop() {
	if len(b.stack) > 1 {
		b.stack = b.stack[:len(b.stack)-1]
	}
}

// enter 记录 n 压入的栈顶节点
func (b *builder) enter(n ast.Node) {
	node := b.top()
	b.open[n] = node
	b.owned[node] = true
}

// exit 弹出 n 压入的节点及其上方所有节点（包括未闭合的内联 HTML 标签）
func (b *builder) exit(n ast.Node) {
	node, ok := b.open[n]
	if !ok {
		return
	}
	delete(b.open, n)
	delete(b.owned, node)
	for i := len(b.stack) - 1; i > 0; i-- {
		if b.stack[i] == node {
			b.stack = b.stack[:i]
			return
		}
	}
}

// closeTag 关闭最近的同名内联 HTML 标签，不越过 Markdown 元素
func (b *builder) closeTag(name string) {
	for i := len(b.stack) - 1; i > 0; i-- {
		n := b.stack[i]
		if b.owned[n] {
			return
		}
		if n.Tag == name {
			b.stack = b.stack[:i]
			return
		}
	}
}

func (b *builder) pushOrPop(entering bool, n ast.Node, tag string, attrs map[string]string) {
	if entering {
		b.push(tag, attrs)
		b.enter(n)
	} else {
		b.exit(n)
	}
}

func (b *builder) blockOrPop(entering bool, n ast.Node, tag string, attrs map[string]string) {
	if entering {
		b.openBlock(tag, attrs)
		b.enter(n)
	} else {
		b.exit(n)
	}
}

// openBlock 在已有内容的父节点中插入块间距后压入新块：
// 列表内一个换行，其余一个空行
func (b *builder) openBlock(tag string, attrs map[string]string) {
	parent := b.top()
	if b.hasContent(parent) {
		sep := "\n\n"
		if len(b.listStack) > 0 {
			sep = "\n"
		}
		parent.Children = append(parent.Children, &types.Node{Text: sep})
	}
	b.push(tag, attrs)
}

func (b *builder) hasContent(n *types.Node) bool {
	if len(n.Children) == 0 {
		return false
	}
	if bullet, ok := b.bullets[n]; ok && len(n.Children) == 1 && n.Children[0] == bullet {
		return false
	}
	return true
}

func (b *builder) appendText(s string) {
	if s == "" {
		return
	}
	parent := b.top()
	parent.Children = append(parent.Children, &types.Node{Text: s})
}

func (b *builder) appendElement(tag string, attrs map[string]string, content string) {
	n := &types.Node{Tag: tag, Attrs: attrs}
	if content != "" {
		n.Children = []*types.Node{{Text: content}}
	}
	parent := b.top()
	parent.Children = append(parent.Children, n)
}

// inlineText 收集内联节点的纯文本
func (b *builder) inlineText(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(b.source))
			if t.SoftLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}
