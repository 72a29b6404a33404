package parser

import (
	"github.com/riverfjs/formattext/internal/converter"
	"github.com/riverfjs/formattext/internal/types"
)

// Parse 解析规范标签/Markdown 字符串，返回 (text, entities)
//
// 流程：Normalize → Scan → BuildTree → Walk → TrimEntities
func Parse(input string, config *types.Config) (string, []types.MessageEntity) {
	if config == nil {
		config = types.DefaultConfig()
	}

	normalized := converter.Normalize(input, converter.NormalizeOptions{
		AllowMarkdownLinks:   config.AllowMarkdownLinks,
		SkipMarkdown:         config.SkipMarkdown,
		CustomEmojiSupported: config.CustomEmojiSupported,
	})
	spans := converter.Scan(normalized).Flatten()
	if !config.CustomEmojiSupported {
		converter.StripCustomEmoji(spans)
	}
	tree := converter.BuildTree(normalized, spans, config.MaxDepth)

	return walk(tree, config)
}

// ParseTree 直接遍历外部节点树，跳过规范化和扫描
func ParseTree(root *types.Node, config *types.Config) (string, []types.MessageEntity) {
	if config == nil {
		config = types.DefaultConfig()
	}
	tree := converter.FromNodeTree(root, config.MaxDepth, config.CustomEmojiSupported)
	return walk(tree, config)
}

func walk(tree []*converter.AstNode, config *types.Config) (string, []types.MessageEntity) {
	walker := converter.NewTreeWalker(config.MaxDepth)
	text, entities := walker.Walk(tree)
	return converter.TrimEntities(text, entities)
}
