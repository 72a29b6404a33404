package mdtree

import (
	"regexp"
	"strings"
)

// codeRegionRe 匹配代码块和行内代码
var codeRegionRe = regexp.MustCompile("(```[\\s\\S]*?```|`[^`\\n]+`)")

// PreprocessSpoilers 将 ||spoiler|| 替换为 <tg-spoiler>spoiler</tg-spoiler>
// 跳过代码块和行内代码中的内容
func PreprocessSpoilers(text string) string {
	parts := codeRegionRe.Split(text, -1)
	matches := codeRegionRe.FindAllString(text, -1)

	var result strings.Builder
	for i, part := range parts {
		result.WriteString(replaceSpoilerTags(part))
		if i < len(matches) {
			result.WriteString(matches[i])
		}
	}
	return result.String()
}

// replaceSpoilerTags 将成对的 || 替换为 <tg-spoiler>...</tg-spoiler>
//
// 使用状态机手动处理；转义的 \|| 保持原样，落单的 || 也保持原样。
func replaceSpoilerTags(text string) string {
	var result strings.Builder
	openAt := -1 // 未闭合 <tg-spoiler> 在 result 中的位置
	i := 0

	for i < len(text) {
		if i > 0 && text[i-1] == '\\' && i+1 < len(text) && text[i] == '|' && text[i+1] == '|' {
			result.WriteString("||")
			i += 2
			continue
		}

		if i+1 < len(text) && text[i] == '|' && text[i+1] == '|' {
			if openAt >= 0 {
				result.WriteString("</tg-spoiler>")
				openAt = -1
			} else {
				openAt = result.Len()
				result.WriteString("<tg-spoiler>")
			}
			i += 2
			continue
		}

		result.WriteByte(text[i])
		i++
	}

	out := result.String()
	if openAt >= 0 {
		out = out[:openAt] + "||" + out[openAt+len("<tg-spoiler>"):]
	}
	return out
}
