package formattext

import (
	"strings"
	"unicode/utf8"

	"github.com/riverfjs/formattext/internal/converter"
	"github.com/riverfjs/formattext/internal/types"
	"github.com/riverfjs/formattext/internal/util"
)

// Entity is one formatting instruction over the flat text. Offset and Length
// are in UTF-16 code units.
type Entity = types.MessageEntity

// MessageEntity is an alias of Entity.
type MessageEntity = types.MessageEntity

// EntityType names the kind of formatting an entity applies.
type EntityType = types.EntityType

// Extra carries the type-specific payload of an entity.
type Extra = types.Extra

const (
	Bold          = types.Bold
	Italic        = types.Italic
	Underline     = types.Underline
	Strikethrough = types.Strikethrough
	Code          = types.Code
	Pre           = types.Pre
	Blockquote    = types.Blockquote
	Spoiler       = types.Spoiler
	TextLink      = types.TextLink
	URL           = types.URL
	Email         = types.Email
	PhoneNumber   = types.PhoneNumber
	Mention       = types.Mention
	TextMention   = types.TextMention
	CustomEmoji   = types.CustomEmoji
)

// AllEntityTypes returns every entity type in a fixed order.
func AllEntityTypes() []EntityType {
	return types.AllEntityTypes()
}

// NewEntity builds an entity that carries only the extra field its type uses.
func NewEntity(t EntityType, offset, length int, extra Extra) Entity {
	return types.NewEntity(t, offset, length, extra)
}

// UTF16Len returns the length of text measured in UTF-16 code units.
//
// Entity offsets and lengths are measured in UTF-16 code units, not Go
// string bytes or runes. Characters outside the BMP take 2 units.
func UTF16Len(text string) int {
	return util.UTF16Len(text)
}

// EntityText returns the part of text covered by e. Offsets inside a
// surrogate pair snap to the start of that character.
func EntityText(text string, e Entity) string {
	start := util.ByteOffsetAtUTF16(text, e.Offset)
	end := util.ByteOffsetAtUTF16(text, e.Offset+e.Length)
	if end < start {
		return ""
	}
	return text[start:end]
}

// TextChunk represents a chunk of text with its entities.
type TextChunk struct {
	Text     string
	Entities []Entity
}

// buildUTF16OffsetTable returns a slice where result[i] is the UTF-16 offset
// at byte position i. Positions inside a multi-byte rune hold the offset of
// that rune's start.
func buildUTF16OffsetTable(text string) []int {
	offsets := make([]int, len(text)+1)
	cum := 0
	for i, r := range text {
		n := len(string(r))
		for j := 0; j < n; j++ {
			offsets[i+j] = cum
		}
		cum += util.RuneUTF16Len(r)
	}
	offsets[len(text)] = cum
	return offsets
}

// newlineSplitPoints returns the byte index right after every newline.
func newlineSplitPoints(text string) []int {
	var points []int
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			points = append(points, i+1)
		}
	}
	return points
}

// hardSplit returns the largest rune boundary in (start, len(text)] whose
// UTF-16 offset is within budget, or the next rune boundary when none fits.
func hardSplit(text string, offsets []int, start, budget int) int {
	best := start
	for i, r := range text[start:] {
		end := start + i + len(string(r))
		if offsets[end] > budget {
			break
		}
		best = end
	}
	if best == start {
		_, size := utf8.DecodeRuneInString(text[start:])
		best = start + size
	}
	return best
}

// SplitEntities splits (text, entities) into chunks not exceeding maxUTF16Len
// UTF-16 code units.
//
// Tries to split at newline boundaries. Entities that span a split boundary
// are clipped into both chunks; their extra fields are kept.
func SplitEntities(text string, entities []Entity, maxUTF16Len int) []TextChunk {
	total := UTF16Len(text)
	if maxUTF16Len <= 0 || total <= maxUTF16Len {
		return []TextChunk{{Text: text, Entities: entities}}
	}

	offsets := buildUTF16OffsetTable(text)
	splitPoints := newlineSplitPoints(text)

	var ranges [][2]int
	byteStart := 0
	for byteStart < len(text) {
		budget := offsets[byteStart] + maxUTF16Len
		if offsets[len(text)] <= budget {
			ranges = append(ranges, [2]int{byteStart, len(text)})
			break
		}

		best := -1
		for _, sp := range splitPoints {
			if sp <= byteStart {
				continue
			}
			if offsets[sp] > budget {
				break
			}
			best = sp
		}
		if best == -1 {
			best = hardSplit(text, offsets, byteStart, budget)
		}

		ranges = append(ranges, [2]int{byteStart, best})
		byteStart = best
	}

	result := make([]TextChunk, 0, len(ranges))
	for _, r := range ranges {
		chunkStart, chunkEnd := offsets[r[0]], offsets[r[1]]
		var chunkEntities []Entity
		for _, ent := range entities {
			start := max(ent.Offset, chunkStart)
			end := min(ent.Offset+ent.Length, chunkEnd)
			if end <= start {
				continue
			}
			ent.Offset = start - chunkStart
			ent.Length = end - start
			chunkEntities = append(chunkEntities, ent)
		}
		result = append(result, TextChunk{
			Text:     text[r[0]:r[1]],
			Entities: chunkEntities,
		})
	}
	return result
}

// TrimSpace removes leading and trailing whitespace while adjusting entities.
// Entities left empty are dropped.
func TrimSpace(text string, entities []Entity) (string, []Entity) {
	return converter.TrimEntities(text, entities)
}

// TrimNewlines strips only leading and trailing newlines, keeping other
// whitespace, and adjusts entities the same way TrimSpace does.
func TrimNewlines(text string, entities []Entity) (string, []Entity) {
	stripped := strings.TrimLeft(text, "\n")
	lead := len(text) - len(stripped)
	stripped = strings.TrimRight(stripped, "\n")
	if lead == 0 && len(stripped) == len(text) {
		return text, entities
	}
	if stripped == "" {
		return "", nil
	}

	size := UTF16Len(stripped)
	var adjusted []Entity
	for _, ent := range entities {
		start := max(ent.Offset-lead, 0)
		end := min(ent.Offset+ent.Length-lead, size)
		if end <= start {
			continue
		}
		ent.Offset = start
		ent.Length = end - start
		adjusted = append(adjusted, ent)
	}
	return stripped, adjusted
}
