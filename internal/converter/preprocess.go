package converter

import (
	"regexp"
	"strings"
)

// NormalizeOptions 控制 Markdown 规范化
type NormalizeOptions struct {
	AllowMarkdownLinks   bool
	SkipMarkdown         bool
	CustomEmojiSupported bool
}

var (
	nbspReplacer = strings.NewReplacer("&nbsp;", " ", "\u00a0", " ")

	// 编辑器的换行结构
	divBrRe   = regexp.MustCompile(`<div[^>]*><br[^>]*></div>`)
	brRe      = regexp.MustCompile(`<br[^>]*>`)
	divJoinRe = regexp.MustCompile(`</div>\s*<div[^>]*>`)
	divOpenRe = regexp.MustCompile(`<div[^>]*>`)

	// 围栏代码块：带语言、不带语言、单行
	fenceLangRe   = regexp.MustCompile("(?m)^```([^\\s`\"<>]+)[ \\t]*\\r?\\n([\\s\\S]*?)\\r?\\n?```")
	fenceRe       = regexp.MustCompile("(?m)^```\\r?\\n?([\\s\\S]*?)\\r?\\n?```")
	fenceInlineRe = regexp.MustCompile("```([^`]+)```")

	inlineCodeRe = regexp.MustCompile("`([^`\\n]+)`")

	customEmojiRe    = regexp.MustCompile(`\[([^\]\n]+)\]\(customEmoji:(\d+)\)`)
	bracketedImageRe = regexp.MustCompile(`\[<img[^>]+alt="([^"]+)"[^>]*>\]`)

	markdownLinkRe = regexp.MustCompile(`\[([^\]\n]+?)\]\(([^\s()<>"]+)\)`)
	// 行内代码在前：从左到右先遇到的代码片段原样保留，其中的链接语法不转换
	linkOrCodeRe = regexp.MustCompile("`[^`\\n]+`|" + markdownLinkRe.String())

	boldRe    = regexp.MustCompile(`\*\*([^*\n]+)\*\*`)
	italicRe  = regexp.MustCompile(`__([^_\n]+)__`)
	strikeRe  = regexp.MustCompile(`~~([^~\n]+)~~`)
	spoilerRe = regexp.MustCompile(`\|\|([^|\n]+)\|\|`)

)

// Normalize 将 Markdown 快捷语法改写为规范标签形式
//
// 规则顺序固定：空格 → 换行 → 围栏代码 → 链接（可选）→ 行内代码 →
// 自定义 emoji → 粗体/斜体/删除线/剧透。每条规则只作用于尚未受保护的区域，
// 链接先转换，标签内的文字不再被后续规则改写。格式错误的 Markdown 原样保留。
func Normalize(input string, opts NormalizeOptions) string {
	if opts.SkipMarkdown {
		return input
	}

	text := nbspReplacer.Replace(input)

	text = divBrRe.ReplaceAllString(text, "\n")
	text = brRe.ReplaceAllString(text, "\n")
	text = divJoinRe.ReplaceAllString(text, "\n")
	text = divOpenRe.ReplaceAllString(text, "\n")
	text = strings.ReplaceAll(text, "</div>", "")

	text = replaceOutsideProtected(text, func(part string) string {
		part = fenceLangRe.ReplaceAllString(part, `<pre data-language="${1}">${2}</pre>`)
		part = fenceRe.ReplaceAllString(part, "<pre>${1}</pre>")
		return fenceInlineRe.ReplaceAllString(part, "<pre>${1}</pre>")
	})

	if opts.AllowMarkdownLinks {
		text = replaceOutsideProtected(text, convertLinks)
	}

	text = replaceOutsideProtected(text, func(part string) string {
		return inlineCodeRe.ReplaceAllString(part, "<code>${1}</code>")
	})

	text = normalizeCustomEmoji(text, opts.CustomEmojiSupported)

	return replaceOutsideProtected(text, func(part string) string {
		part = boldRe.ReplaceAllString(part, "<b>${1}</b>")
		part = italicRe.ReplaceAllString(part, "<i>${1}</i>")
		part = strikeRe.ReplaceAllString(part, "<s>${1}</s>")
		return spoilerRe.ReplaceAllString(part, `<span data-entity-type="spoiler">${1}</span>`)
	})
}

// convertLinks 将 [label](url) 转换为 <a>；行内代码中的和 customEmoji: 目标不转换
func convertLinks(part string) string {
	return linkOrCodeRe.ReplaceAllStringFunc(part, func(m string) string {
		if m[0] == '`' {
			return m
		}
		sub := markdownLinkRe.FindStringSubmatch(m)
		if sub == nil || strings.HasPrefix(sub[2], "customEmoji:") {
			return m
		}
		return `<a href="` + WithScheme(sub[2]) + `">` + sub[1] + `</a>`
	})
}

func normalizeCustomEmoji(text string, supported bool) string {
	if !supported {
		text = bracketedImageRe.ReplaceAllString(text, "[${1}]")
		return replaceOutsideProtected(text, func(part string) string {
			return customEmojiRe.ReplaceAllString(part, "[${1}]")
		})
	}
	return replaceOutsideProtected(text, func(part string) string {
		return customEmojiRe.ReplaceAllStringFunc(part, func(m string) string {
			sub := customEmojiRe.FindStringSubmatch(m)
			alt := strings.ReplaceAll(sub[1], `"`, "&quot;")
			return `<img alt="` + alt + `" data-document-id="` + sub[2] + `">`
		})
	})
}

// WithScheme 为裸域名补 https://，为 user@host 补 mailto:
func WithScheme(link string) string {
	switch {
	case strings.Contains(link, "://"):
		return link
	case hasSchemePrefix(link, "mailto:", "tel:", "tg:"):
		return link
	case strings.Contains(link, "@"):
		return "mailto:" + link
	default:
		return "https://" + link
	}
}

func hasSchemePrefix(link string, schemes ...string) bool {
	lower := strings.ToLower(link)
	for _, s := range schemes {
		if strings.HasPrefix(lower, s) {
			return true
		}
	}
	return false
}

// replaceOutsideProtected 只对受保护区域之外的片段调用 fn
func replaceOutsideProtected(text string, fn func(string) string) string {
	locs := protectedRegions(text)
	if len(locs) == 0 {
		return fn(text)
	}

	var result strings.Builder
	result.Grow(len(text))
	last := 0
	for _, loc := range locs {
		result.WriteString(fn(text[last:loc[0]]))
		result.WriteString(text[loc[0]:loc[1]])
		last = loc[1]
	}
	result.WriteString(fn(text[last:]))
	return result.String()
}

// 受保护区域的标签名 → 闭合标签；区域内的文字不再被改写
var protectedClosings = map[string]string{
	"pre":  "</pre>",
	"code": "</code>",
	"a":    "</a>",
}

// protectedRegions 返回已转换的 pre/code/a 区域和其余标签本身的位置
//
// 一次从左到右扫描；每种闭合标签的查找结果会被复用，
// 大量未闭合的 <pre>、<code> 不会导致重复扫描到文本末尾。
func protectedRegions(text string) [][2]int {
	var locs [][2]int
	next := make(map[string]int)
	for j := 0; j < len(text); {
		lt := strings.IndexByte(text[j:], '<')
		if lt < 0 {
			break
		}
		j += lt
		k := strings.IndexAny(text[j+1:], "<>")
		if k < 0 {
			break
		}
		end := j + 1 + k
		if k == 0 || text[end] == '<' {
			j = end
			continue
		}

		name := text[j+1 : end]
		if cut := strings.IndexAny(name, " \t\r\n/"); cut >= 0 {
			name = name[:cut]
		}
		if closing, ok := protectedClosings[name]; ok {
			if c := nextIndex(text, closing, end+1, next); c >= 0 {
				locs = append(locs, [2]int{j, c + len(closing)})
				j = c + len(closing)
				continue
			}
		}
		locs = append(locs, [2]int{j, end + 1})
		j = end + 1
	}
	return locs
}

// nextIndex 返回 sub 在 from 及之后第一次出现的位置；from 只增不减，
// 上一次的结果仍在 from 之后时直接复用
func nextIndex(text, sub string, from int, cache map[string]int) int {
	if c, ok := cache[sub]; ok && (c < 0 || c >= from) {
		return c
	}
	c := strings.Index(text[from:], sub)
	if c >= 0 {
		c += from
	}
	cache[sub] = c
	return c
}
