package logging

import (
	"os"
	"sync/atomic"

	"github.com/rs/zerolog"
)

var current atomic.Pointer[zerolog.Logger]

func init() {
	l := zerolog.New(os.Stderr).
		Level(zerolog.WarnLevel).
		With().Timestamp().Str("component", "formattext").
		Logger()
	current.Store(&l)
}

// Logger returns the logger shared by all packages of the module.
func Logger() *zerolog.Logger {
	return current.Load()
}

// Set replaces the shared logger.
func Set(l zerolog.Logger) {
	current.Store(&l)
}
