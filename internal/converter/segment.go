package converter

import (
	"sort"
	"strings"

	"github.com/riverfjs/formattext/internal/types"
)

// Span 扫描得到的一对开闭标记（偏移为规范化字符串的字节下标）
//
// [Start, End) 包含开闭标记本身，[InnerStart, InnerEnd) 是内部内容。
// Void 标记（<img>）没有内部内容，显示文本在 Content 中。
type Span struct {
	Start      int
	End        int
	InnerStart int
	InnerEnd   int
	Type       types.EntityType
	Extra      types.Extra
	Symbol     string
	Content    string
	Void       bool
	Opaque     bool
}

// Contains reports whether other lies entirely within s's interior.
func (s Span) Contains(other Span) bool {
	return other.Start >= s.InnerStart && other.End <= s.InnerEnd
}

// Tagged reports whether the span comes from a tag rather than a markdown symbol.
func (s Span) Tagged() bool {
	return strings.HasPrefix(s.Symbol, "<")
}

// StripCustomEmoji 平台不支持自定义 emoji 时去掉该类型：图片只保留 alt 文本，
// data-entity-type 标出的 span 成为透明容器
func StripCustomEmoji(spans []Span) {
	for i := range spans {
		if spans[i].Type == types.CustomEmoji {
			spans[i].Type = ""
			spans[i].Extra = types.Extra{}
		}
	}
}

// SpanSet 按标记符号分组的扫描结果
type SpanSet map[string][]Span

// Flatten 合并所有分组，按 Start 升序、End 降序排序
func (ss SpanSet) Flatten() []Span {
	var all []Span
	for _, list := range ss {
		all = append(all, list...)
	}
	SortSpans(all)
	return all
}

// SortSpans orders spans outer-before-inner. Starts are unique per scan, the
// symbol comparison only keeps hand-built inputs deterministic.
func SortSpans(spans []Span) {
	sort.SliceStable(spans, func(i, j int) bool {
		a, b := spans[i], spans[j]
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End > b.End
		}
		return a.Symbol < b.Symbol
	})
}
