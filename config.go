package formattext

import (
	"sync"

	"github.com/riverfjs/formattext/internal/types"
)

// Config holds the conversion settings. See the With* options.
type Config = types.Config

// DefaultMaxDepth is the default number of nested entity levels kept.
const DefaultMaxDepth = types.DefaultMaxDepth

var (
	defaultConfig     *Config
	defaultConfigOnce sync.Once
)

// DefaultConfig returns a copy of the default configuration.
func DefaultConfig() *Config {
	defaultConfigOnce.Do(func() {
		defaultConfig = types.DefaultConfig()
	})
	c := *defaultConfig
	return &c
}
