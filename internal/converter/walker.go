package converter

import (
	"github.com/riverfjs/formattext/internal/buffer"
	"github.com/riverfjs/formattext/internal/types"
)

// TreeWalker 遍历 AstNode 树，生成 (text, entities)
//
// 偏移量由 TextBuffer 累积（UTF-16 code units），每层递归返回
// (写入长度, 实体列表)，不依赖共享的计数变量。
type TreeWalker struct {
	buf      *buffer.TextBuffer
	maxDepth int
}

// NewTreeWalker 创建新的 TreeWalker
func NewTreeWalker(maxDepth int) *TreeWalker {
	if maxDepth < 1 {
		maxDepth = types.DefaultMaxDepth
	}
	return &TreeWalker{
		buf:      buffer.New(),
		maxDepth: maxDepth,
	}
}

// Walk 先序遍历树，外层实体排在内层实体之前
func (w *TreeWalker) Walk(nodes []*AstNode) (string, []types.MessageEntity) {
	w.buf.Reset()
	_, entities := w.walk(nodes, 0)
	return w.buf.String(), entities
}

func (w *TreeWalker) walk(nodes []*AstNode, depth int) (int, []types.MessageEntity) {
	length := 0
	var entities []types.MessageEntity

	for _, n := range nodes {
		if !n.Entity {
			length += w.buf.Write(n.Text)
			continue
		}

		if n.Type == "" {
			childLen, inner := w.walk(n.Children, depth)
			length += childLen
			entities = append(entities, inner...)
			continue
		}
		if depth >= w.maxDepth {
			length += w.buf.Write(PlainText(n))
			continue
		}

		offset := w.buf.UTF16Offset()
		childLen, inner := w.walk(n.Children, depth+1)
		length += childLen

		if childLen > 0 {
			entities = append(entities, types.NewEntity(n.Type, offset, childLen, n.Extra))
		}
		entities = append(entities, inner...)
	}

	return length, entities
}
