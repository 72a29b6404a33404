package formattext

import (
	"github.com/rs/zerolog"

	"github.com/riverfjs/formattext/internal/logging"
)

// Logger returns the logger used by the converter. By default it writes
// warnings and above to stderr.
func Logger() *zerolog.Logger {
	return logging.Logger()
}

// SetLogger sets a custom logger. Pass a logger at debug level to trace
// dropped overlapping spans, unterminated markers and depth flattening.
func SetLogger(logger zerolog.Logger) {
	logging.Set(logger)
}
