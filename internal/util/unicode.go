package util

import (
	"unicode"
	"unicode/utf8"
)

// ZeroWidth 编辑器插入的零宽字符。
// ZWJ/ZWNJ 不在其中：它们参与 emoji 序列和文字连写。
var ZeroWidth = &unicode.RangeTable{
	R16: []unicode.Range16{
		{Lo: 0x200B, Hi: 0x200B, Stride: 1},
		{Lo: 0x2060, Hi: 0x2060, Stride: 1},
		{Lo: 0xFEFF, Hi: 0xFEFF, Stride: 1},
	},
}

// IsZeroWidth reports whether r is stripped from the flat text.
func IsZeroWidth(r rune) bool {
	return unicode.Is(ZeroWidth, r)
}

// RuneUTF16Len returns the number of UTF-16 code units r occupies.
func RuneUTF16Len(r rune) int {
	if r > 0xFFFF {
		return 2
	}
	return 1
}

// UTF16Len returns the length of text measured in UTF-16 code units.
//
// Characters outside the BMP (codepoint > 0xFFFF) take 2 UTF-16 code units
// (a surrogate pair); all others take 1.
func UTF16Len(text string) int {
	count := 0
	for _, r := range text {
		count += RuneUTF16Len(r)
	}
	return count
}

// ByteOffsetAtUTF16 returns the byte index in text that corresponds to the
// given UTF-16 offset. Offsets that fall inside a surrogate pair snap to the
// start of the rune; offsets past the end return len(text).
func ByteOffsetAtUTF16(text string, offset int) int {
	units := 0
	for i, r := range text {
		if units >= offset {
			return i
		}
		units += RuneUTF16Len(r)
		if units > offset {
			return i
		}
	}
	return len(text)
}

// TrimSpaceBounds returns the byte bounds of text without leading and
// trailing white space, using the same predicate as unicode.IsSpace.
func TrimSpaceBounds(text string) (start, end int) {
	start = 0
	for start < len(text) {
		r, size := utf8.DecodeRuneInString(text[start:])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	end = len(text)
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end
}
