package converter

import (
	"sort"
	"strings"

	"golang.org/x/net/html"

	"github.com/riverfjs/formattext/internal/logging"
	"github.com/riverfjs/formattext/internal/symbols"
	"github.com/riverfjs/formattext/internal/types"
)

// scanner 从左到右扫描规范化字符串，匹配开闭标记
type scanner struct {
	input    string
	table    *symbols.Table
	consumed []bool
	// failedFrom 记录对称标记从某位置起找不到闭合；之后更靠后的查找同样失败
	failedFrom map[string]int

	// 以下由 pairTags 一次遍历得到
	nextGT    []int       // nextGT[i] 为 i 及之后第一个 '>' 的位置，没有则为 -1
	closeAt   map[int]int // 标签型开标记位置 → 配对的闭合标签位置
	opaqueEnd map[int]int // code/pre 开标签位置 → 整个区域的结束位置
	openEnd   map[int]int // 带属性的开标签（含 img）位置 → 开标签结束位置
}

// Scan 扫描规范化字符串，返回按标记符号分组的 span
//
// 匹配成功后只越过开标记（code/pre 除外，其内部不再扫描），
// 嵌套在内部的标记由后续位置发现；重叠关系交给 BuildTree 处理。
// 标签型标记在扫描前一次性配对，整体为线性时间。
func Scan(normalized string) SpanSet {
	sc := &scanner{
		input:      normalized,
		table:      symbols.Default(),
		consumed:   make([]bool, len(normalized)),
		failedFrom: make(map[string]int),
		closeAt:    make(map[int]int),
		opaqueEnd:  make(map[int]int),
		openEnd:    make(map[int]int),
	}
	sc.pairTags()
	set := make(SpanSet)

	for i := 0; i < len(normalized); i++ {
		if sc.consumed[i] {
			continue
		}
		for _, m := range sc.table.ByFirst(normalized[i]) {
			if !symbols.MatchesAt(normalized, i, m) {
				continue
			}
			sp, next, ok := sc.match(i, m)
			if !ok {
				continue
			}
			set[m.Symbol] = append(set[m.Symbol], sp)
			i = next - 1
			break
		}
	}
	return set
}

// pairTags 为所有标签型开标记找到闭合位置
//
// 同一闭合标签用一个栈配对，最近的开标记先闭合；code/pre 区域到第一个
// 闭合标签为止，其内部的标签不参与配对。
func (sc *scanner) pairTags() {
	s := sc.input

	sc.nextGT = make([]int, len(s)+1)
	sc.nextGT[len(s)] = -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '>' {
			sc.nextGT[i] = i
		} else {
			sc.nextGT[i] = sc.nextGT[i+1]
		}
	}

	stacks := make(map[string][]int)
	closings := make(map[string][]int)
	for j := 0; j < len(s); {
		if s[j] != '<' {
			j++
			continue
		}

		if closing, ok := sc.table.CloseAt(s, j); ok {
			if st := stacks[closing]; len(st) > 0 {
				sc.closeAt[st[len(st)-1]] = j
				stacks[closing] = st[:len(st)-1]
			}
			j += len(closing)
			continue
		}

		m, ok := sc.table.Lookup(s, j)
		if !ok {
			j++
			continue
		}
		if m.Kind == symbols.Tag {
			stacks[m.Closing] = append(stacks[m.Closing], j)
			j += len(m.Symbol)
			continue
		}

		gt := sc.nextGT[j]
		if gt < 0 {
			j++
			continue
		}
		openEnd := gt + 1
		switch {
		case m.Opaque:
			if c := indexAfter(s, m.Closing, openEnd, closings); c >= 0 {
				sc.closeAt[j] = c
				sc.opaqueEnd[j] = c + len(m.Closing)
				j = c + len(m.Closing)
				continue
			}
		case m.Kind == symbols.AttrTag:
			stacks[m.Closing] = append(stacks[m.Closing], j)
			sc.openEnd[j] = openEnd
		default:
			sc.openEnd[j] = openEnd
		}
		j = openEnd
	}
}

// indexAfter 返回 sub 在 from 及之后第一次出现的位置；各位置按需收集一次
func indexAfter(s, sub string, from int, cache map[string][]int) int {
	positions, ok := cache[sub]
	if !ok {
		for off := 0; ; {
			k := strings.Index(s[off:], sub)
			if k < 0 {
				break
			}
			positions = append(positions, off+k)
			off += k + len(sub)
		}
		cache[sub] = positions
	}
	if k := sort.SearchInts(positions, from); k < len(positions) {
		return positions[k]
	}
	return -1
}

func (sc *scanner) match(i int, m symbols.Marker) (Span, int, bool) {
	switch m.Kind {
	case symbols.Markdown:
		return sc.matchMarkdown(i, m)
	case symbols.Tag:
		return sc.matchTag(i, m)
	case symbols.AttrTag:
		return sc.matchAttrTag(i, m)
	case symbols.Void:
		return sc.matchVoid(i, m)
	}
	return Span{}, 0, false
}

func (sc *scanner) matchMarkdown(i int, m symbols.Marker) (Span, int, bool) {
	from := i + len(m.Symbol)
	closeIdx := sc.findClose(m, from)
	// 空内容（** 紧跟 **）不构成 span
	if closeIdx <= from {
		return Span{}, 0, false
	}
	sc.consume(closeIdx, len(m.Closing))
	sp := Span{
		Start:      i,
		End:        closeIdx + len(m.Closing),
		InnerStart: from,
		InnerEnd:   closeIdx,
		Type:       m.Type,
		Symbol:     m.Symbol,
		Opaque:     m.Opaque,
	}
	if m.Opaque {
		return sp, sp.End, true
	}
	return sp, from, true
}

func (sc *scanner) matchTag(i int, m symbols.Marker) (Span, int, bool) {
	from := i + len(m.Symbol)
	closeIdx, ok := sc.closeAt[i]
	if !ok {
		logging.Logger().Debug().Str("marker", m.Symbol).Int("pos", i).Msg("unterminated tag left as text")
		return Span{}, 0, false
	}
	sc.consume(closeIdx, len(m.Closing))
	sp := Span{
		Start:      i,
		End:        closeIdx + len(m.Closing),
		InnerStart: from,
		InnerEnd:   closeIdx,
		Type:       m.Type,
		Symbol:     m.Symbol,
	}
	if closeIdx == from {
		sp.Type = ""
	}
	return sp, from, true
}

func (sc *scanner) matchAttrTag(i int, m symbols.Marker) (Span, int, bool) {
	gt := sc.nextGT[i]
	if gt < 0 {
		return Span{}, 0, false
	}
	from := gt + 1
	closeIdx, ok := sc.closeAt[i]
	if !ok {
		logging.Logger().Debug().Str("marker", m.Symbol).Int("pos", i).Msg("unterminated tag left as text")
		return Span{}, 0, false
	}
	sc.consume(closeIdx, len(m.Closing))

	tagName, attrs := parseOpenTag(sc.input[i:from])
	inner := sc.input[from:closeIdx]
	typ, extra := resolveAttrType(m.Type, tagName, attrs, html.UnescapeString(inner))
	if closeIdx == from {
		typ = ""
	}
	sp := Span{
		Start:      i,
		End:        closeIdx + len(m.Closing),
		InnerStart: from,
		InnerEnd:   closeIdx,
		Type:       typ,
		Extra:      extra,
		Symbol:     m.Symbol,
		Opaque:     m.Opaque,
	}
	// <pre><code class="language-x">…</code></pre> 只产生一个 pre 实体，code 标签不进入文本
	if typ == types.Pre {
		if lo, hi, codeAttrs, ok := innerCode(sc.input, from, closeIdx); ok {
			sp.InnerStart, sp.InnerEnd = lo, hi
			if sp.Extra.Language == "" {
				sp.Extra.Language = extraFromAttrs(types.Pre, codeAttrs).Language
			}
		}
	}
	if m.Opaque {
		return sp, sp.End, true
	}
	return sp, from, true
}

// innerCode 判断 s[lo:hi] 是否恰好是一个 <code…>…</code>，返回 code 内部范围和属性
func innerCode(s string, lo, hi int) (int, int, map[string]string, bool) {
	const closing = "</code>"
	inner := s[lo:hi]
	if !strings.HasPrefix(inner, "<code") || !strings.HasSuffix(inner, closing) {
		return 0, 0, nil, false
	}
	switch inner[len("<code")] {
	case '>', ' ', '\t', '\n', '\r', '/':
	default:
		return 0, 0, nil, false
	}
	gt := strings.IndexByte(inner, '>')
	bodyStart := lo + gt + 1
	bodyEnd := hi - len(closing)
	if bodyStart > bodyEnd || strings.Contains(s[bodyStart:bodyEnd], closing) {
		return 0, 0, nil, false
	}
	_, attrs := parseOpenTag(inner[:gt+1])
	return bodyStart, bodyEnd, attrs, true
}

func (sc *scanner) matchVoid(i int, m symbols.Marker) (Span, int, bool) {
	gt := sc.nextGT[i]
	if gt < 0 {
		return Span{}, 0, false
	}
	end := gt + 1
	sc.consume(i, end-i)

	_, attrs := parseOpenTag(sc.input[i:end])
	sp := Span{
		Start:      i,
		End:        end,
		InnerStart: end,
		InnerEnd:   end,
		Symbol:     m.Symbol,
		Content:    attrs["alt"],
		Void:       true,
	}
	// 没有 document id 的图片只贡献 alt 文本
	if id := attrs["data-document-id"]; id != "" && sp.Content != "" {
		sp.Type = types.CustomEmoji
		sp.Extra = types.Extra{CustomEmojiID: id}
	}
	return sp, end, true
}

// findClose 查找对称标记的闭合位置，跳过 code/pre 区域和带属性的开标签
func (sc *scanner) findClose(m symbols.Marker, from int) int {
	if f, ok := sc.failedFrom[m.Symbol]; ok && from >= f {
		return -1
	}

	s := sc.input
	for j := from; j < len(s); {
		if !m.Opaque && s[j] == '<' {
			if end, ok := sc.opaqueEnd[j]; ok {
				j = end
				continue
			}
			if end, ok := sc.openEnd[j]; ok {
				j = end
				continue
			}
		}
		if strings.HasPrefix(s[j:], m.Closing) && !sc.consumed[j] {
			return j
		}
		j++
	}

	if f, ok := sc.failedFrom[m.Symbol]; !ok || from < f {
		sc.failedFrom[m.Symbol] = from
	}
	return -1
}

func (sc *scanner) consume(pos, n int) {
	for k := pos; k < pos+n && k < len(sc.consumed); k++ {
		sc.consumed[k] = true
	}
}

// parseOpenTag 用 html tokenizer 解析开标签的名称和属性
func parseOpenTag(tag string) (string, map[string]string) {
	z := html.NewTokenizer(strings.NewReader(tag))
	switch z.Next() {
	case html.StartTagToken, html.SelfClosingTagToken:
	default:
		return "", map[string]string{}
	}
	tok := z.Token()
	attrs := make(map[string]string, len(tok.Attr))
	for _, a := range tok.Attr {
		attrs[a.Key] = a.Val
	}
	return tok.Data, attrs
}
