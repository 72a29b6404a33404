package buffer

import (
	"strings"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/riverfjs/formattext/internal/util"
)

var zeroWidthRemover = runes.Remove(runes.In(util.ZeroWidth))

// TextBuffer accumulates plain text and tracks the current UTF-16 offset.
//
// Zero-width characters are dropped on write, so every offset read from the
// buffer already indexes the final flat text.
type TextBuffer struct {
	sb          strings.Builder
	utf16Offset int
}

// New creates a new TextBuffer.
func New() *TextBuffer {
	return &TextBuffer{}
}

// Write appends text to the buffer and returns the number of UTF-16 code
// units actually written.
func (tb *TextBuffer) Write(text string) int {
	if text == "" {
		return 0
	}
	if strings.ContainsFunc(text, util.IsZeroWidth) {
		stripped, _, err := transform.String(zeroWidthRemover, text)
		if err == nil {
			text = stripped
		}
	}
	n := util.UTF16Len(text)
	tb.sb.WriteString(text)
	tb.utf16Offset += n
	return n
}

// UTF16Offset returns the current UTF-16 offset.
func (tb *TextBuffer) UTF16Offset() int {
	return tb.utf16Offset
}

// String returns the accumulated text.
func (tb *TextBuffer) String() string {
	return tb.sb.String()
}

// Reset clears the buffer.
func (tb *TextBuffer) Reset() {
	tb.sb.Reset()
	tb.utf16Offset = 0
}
