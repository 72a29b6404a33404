package formattext

// Option is a function that configures a Config.
type Option func(*Config)

// WithAllowMarkdownLinks enables [label](url) conversion into links.
func WithAllowMarkdownLinks(enable bool) Option {
	return func(c *Config) {
		c.AllowMarkdownLinks = enable
	}
}

// WithSkipMarkdown passes string input to the scanner unchanged; the caller
// asserts it is already in canonical tagged form.
func WithSkipMarkdown(skip bool) Option {
	return func(c *Config) {
		c.SkipMarkdown = skip
	}
}

// WithCustomEmojiSupport tells the converter whether the platform can render
// custom emoji images. Without it [label](customEmoji:id) degrades to [label]
// and <img> elements, in strings or node trees, contribute only their alt text.
func WithCustomEmojiSupport(supported bool) Option {
	return func(c *Config) {
		c.CustomEmojiSupported = supported
	}
}

// WithMaxDepth sets how many nested entity levels are kept; deeper content
// is flattened to plain text.
func WithMaxDepth(depth int) Option {
	return func(c *Config) {
		c.MaxDepth = depth
	}
}

// applyOptions applies the given options to the default config.
func applyOptions(opts ...Option) *Config {
	config := DefaultConfig()
	for _, opt := range opts {
		opt(config)
	}
	return config
}

// sanitize resets settings that fail validation so the package-level
// helpers never fail.
func sanitize(config *Config) *Config {
	if err := validate.Struct(config); err != nil {
		Logger().Warn().Err(err).Int("max_depth", config.MaxDepth).Msg("invalid config, using default depth")
		config.MaxDepth = DefaultMaxDepth
	}
	return config
}
