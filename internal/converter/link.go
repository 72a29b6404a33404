package converter

import (
	"strings"

	"github.com/riverfjs/formattext/internal/types"
)

// validateTelegramEmoji 如果 URL 是 tg://emoji?id=<数字>，返回 id，否则返回空
func validateTelegramEmoji(url string) string {
	const prefix = "tg://emoji?id="
	if !strings.HasPrefix(url, prefix) {
		return ""
	}
	emojiID := strings.TrimPrefix(url, prefix)
	if isDigits(emojiID) {
		return emojiID
	}
	return ""
}

// isDigits 检查字符串是否全为数字
func isDigits(s string) bool {
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return len(s) > 0
}

// ClassifyLink 根据 href 和显示文本决定链接实体类型
//
//   - mailto: → email，tel: → phone_number
//   - tg://emoji?id= → custom_emoji
//   - 文本与 href 相同 → url
//   - 其余 → text_link（携带 URL）
//
// href 为空时返回空类型，链接仅贡献文本。
func ClassifyLink(href, text string) (types.EntityType, types.Extra) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", types.Extra{}
	}
	lower := strings.ToLower(href)
	switch {
	case strings.HasPrefix(lower, "mailto:"):
		return types.Email, types.Extra{}
	case strings.HasPrefix(lower, "tel:"):
		return types.PhoneNumber, types.Extra{}
	}
	if id := validateTelegramEmoji(href); id != "" {
		return types.CustomEmoji, types.Extra{CustomEmojiID: id}
	}
	if href == strings.TrimSpace(text) {
		return types.URL, types.Extra{}
	}
	return types.TextLink, types.Extra{URL: href}
}

// resolveAttrType 解析带属性标签的实体类型
//
// data-entity-type 显式指定时优先；否则使用标记表中的类型，
// span 只有 spoiler class 才成为剧透，a 按 href 分类。
func resolveAttrType(base types.EntityType, tag string, attrs map[string]string, text string) (types.EntityType, types.Extra) {
	if explicit, ok := types.ParseEntityType(attrs["data-entity-type"]); ok {
		if explicit == types.TextLink && attrs["href"] == "" {
			return "", types.Extra{}
		}
		return explicit, extraFromAttrs(explicit, attrs)
	}
	switch {
	case base != "":
		return base, extraFromAttrs(base, attrs)
	case tag == "a":
		return ClassifyLink(attrs["href"], text)
	case tag == "span" && hasClass(attrs["class"], "spoiler"):
		return types.Spoiler, types.Extra{}
	case tag == "tg-spoiler":
		return types.Spoiler, types.Extra{}
	}
	return "", types.Extra{}
}

func extraFromAttrs(t types.EntityType, attrs map[string]string) types.Extra {
	switch t {
	case types.TextLink:
		return types.Extra{URL: attrs["href"]}
	case types.Pre:
		lang := attrs["data-language"]
		if lang == "" {
			lang = languageFromClass(attrs["class"])
		}
		return types.Extra{Language: lang}
	case types.CustomEmoji:
		return types.Extra{CustomEmojiID: attrs["data-document-id"]}
	case types.TextMention:
		return types.Extra{UserID: attrs["data-user-id"]}
	}
	return types.Extra{}
}

func hasClass(class, name string) bool {
	for _, c := range strings.Fields(class) {
		if c == name {
			return true
		}
	}
	return false
}

func languageFromClass(class string) string {
	for _, c := range strings.Fields(class) {
		if lang, ok := strings.CutPrefix(c, "language-"); ok {
			return lang
		}
	}
	return ""
}
