package formattext

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/riverfjs/formattext/internal/htmltree"
	"github.com/riverfjs/formattext/internal/mdtree"
	"github.com/riverfjs/formattext/internal/parser"
)

// ErrInvalidConfig is returned by NewConverter when an option is out of range.
var ErrInvalidConfig = errors.New("formattext: invalid config")

var validate = validator.New(validator.WithRequiredStructEnabled())

// Converter is a validated, immutable configuration. It is safe for
// concurrent use.
type Converter struct {
	config Config
}

// NewConverter validates the options and returns a Converter.
func NewConverter(opts ...Option) (*Converter, error) {
	config := applyOptions(opts...)
	if err := validate.Struct(config); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return &Converter{config: *config}, nil
}

// Config returns a copy of the converter's configuration.
func (c *Converter) Config() Config {
	return c.config
}

// Parse converts editor markup (canonical tags mixed with markdown shortcuts)
// into plain text and entities.
func (c *Converter) Parse(markup string) FormattedText {
	config := c.config
	return newFormattedText(parser.Parse(markup, &config))
}

// ParseTree walks a node tree supplied by the editor directly.
func (c *Converter) ParseTree(root *Node) FormattedText {
	config := c.config
	return newFormattedText(parser.ParseTree(root, &config))
}

// ParseHTML parses editor HTML into a node tree and walks it.
func (c *Converter) ParseHTML(markup string) (FormattedText, error) {
	root, err := htmltree.Parse(markup)
	if err != nil {
		return FormattedText{}, err
	}
	return c.ParseTree(root), nil
}

// ParseMarkdown parses CommonMark/GFM (headings, lists, tables, fenced code,
// ||spoilers||) into a node tree and walks it.
func (c *Converter) ParseMarkdown(markdown string) FormattedText {
	return c.ParseTree(mdtree.Build(markdown, nil))
}
