package converter

import (
	"github.com/riverfjs/formattext/internal/types"
	"github.com/riverfjs/formattext/internal/util"
)

// TrimEntities 去除首尾空白并调整实体偏移量
//
// 开头去掉的字符使所有实体左移；结尾去掉的字符只截短跨过结尾的实体。
// 截短后长度为 0 的实体被丢弃。
func TrimEntities(text string, entities []types.MessageEntity) (string, []types.MessageEntity) {
	start, end := util.TrimSpaceBounds(text)
	if start == 0 && end == len(text) {
		return text, entities
	}
	trimmed := text[start:end]
	if trimmed == "" {
		return "", nil
	}

	lead := util.UTF16Len(text[:start])
	size := util.UTF16Len(trimmed)

	var adjusted []types.MessageEntity
	for _, ent := range entities {
		newOffset := max(ent.Offset-lead, 0)
		newEnd := min(ent.Offset+ent.Length-lead, size)
		if newEnd <= newOffset {
			continue
		}
		ent.Offset = newOffset
		ent.Length = newEnd - newOffset
		adjusted = append(adjusted, ent)
	}
	return trimmed, adjusted
}
