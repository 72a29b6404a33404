package types

// EntityType 消息实体类型（与 Telegram Bot API 的 type 字段一致）
type EntityType string

const (
	Bold          EntityType = "bold"
	Italic        EntityType = "italic"
	Underline     EntityType = "underline"
	Strikethrough EntityType = "strikethrough"
	Code          EntityType = "code"
	Pre           EntityType = "pre"
	Blockquote    EntityType = "blockquote"
	Spoiler       EntityType = "spoiler"
	TextLink      EntityType = "text_link"
	URL           EntityType = "url"
	Email         EntityType = "email"
	PhoneNumber   EntityType = "phone_number"
	Mention       EntityType = "mention"
	TextMention   EntityType = "text_mention"
	CustomEmoji   EntityType = "custom_emoji"
)

// AllEntityTypes 返回全部已声明的实体类型，顺序固定
func AllEntityTypes() []EntityType {
	return []EntityType{
		Bold, Italic, Underline, Strikethrough, Code, Pre, Blockquote, Spoiler,
		TextLink, URL, Email, PhoneNumber, Mention, TextMention, CustomEmoji,
	}
}

// ParseEntityType 将 data-entity-type 属性值映射为实体类型
func ParseEntityType(s string) (EntityType, bool) {
	for _, t := range AllEntityTypes() {
		if string(t) == s {
			return t, true
		}
	}
	return "", false
}

// Extra 实体附加字段，每种类型最多使用其中一个
type Extra struct {
	URL           string
	Language      string
	CustomEmojiID string
	UserID        string
}

// MessageEntity 表示 Telegram 消息实体
//
// Offset 和 Length 以 UTF-16 code units 计。
type MessageEntity struct {
	Type          EntityType `json:"type"`
	Offset        int        `json:"offset"`
	Length        int        `json:"length"`
	URL           string     `json:"url,omitempty"`
	Language      string     `json:"language,omitempty"`
	CustomEmojiID string     `json:"custom_emoji_id,omitempty"`
	UserID        string     `json:"user_id,omitempty"`
}

// NewEntity builds an entity carrying the extra field its type needs.
func NewEntity(t EntityType, offset, length int, extra Extra) MessageEntity {
	e := MessageEntity{Type: t, Offset: offset, Length: length}
	switch t {
	case TextLink:
		e.URL = extra.URL
	case Pre:
		e.Language = extra.Language
	case CustomEmoji:
		e.CustomEmojiID = extra.CustomEmojiID
	case TextMention:
		e.UserID = extra.UserID
	}
	return e
}

// Extra returns the entity's payload as an Extra value.
func (e MessageEntity) Extra() Extra {
	return Extra{URL: e.URL, Language: e.Language, CustomEmojiID: e.CustomEmojiID, UserID: e.UserID}
}

// ToDict 将 MessageEntity 转换为 map
func (e MessageEntity) ToDict() map[string]interface{} {
	result := map[string]interface{}{
		"type":   string(e.Type),
		"offset": e.Offset,
		"length": e.Length,
	}
	if e.URL != "" {
		result["url"] = e.URL
	}
	if e.Language != "" {
		result["language"] = e.Language
	}
	if e.CustomEmojiID != "" {
		result["custom_emoji_id"] = e.CustomEmojiID
	}
	if e.UserID != "" {
		result["user_id"] = e.UserID
	}
	return result
}

// Node 外部编辑器提供的节点树
//
// Tag 为空表示文本节点，此时只有 Text 有意义。Tag 统一为小写。
type Node struct {
	Tag      string
	Text     string
	Attrs    map[string]string
	Children []*Node
}

// Attr returns the attribute value or "".
func (n *Node) Attr(name string) string {
	if n == nil || n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// IsText reports whether n is a text node.
func (n *Node) IsText() bool {
	return n != nil && n.Tag == ""
}

// Config 转换配置
type Config struct {
	AllowMarkdownLinks   bool
	SkipMarkdown         bool
	CustomEmojiSupported bool
	MaxDepth             int `validate:"min=1,max=16"`
}

// DefaultMaxDepth 默认最大嵌套层数
const DefaultMaxDepth = 3

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		CustomEmojiSupported: true,
		MaxDepth:             DefaultMaxDepth,
	}
}
