package cli

import (
	"errors"
	"fmt"

	"github.com/netresearch/watchdogd/logging"
)

// ErrInvalidLogLevel indicates an invalid log level string was provided.
var ErrInvalidLogLevel = errors.New("invalid log level")

// ApplyLogLevel applies the --log-level flag value to the access logger.
// An empty level leaves the logger at its default. The same names the
// component logger accepts are valid here.
func ApplyLogLevel(level string, l *logging.StructuredLogger) error {
	if level == "" {
		return nil
	}

	parsed, err := logging.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("%w: %q (valid levels are debug, info, warn, error)", ErrInvalidLogLevel, level)
	}

	if l != nil {
		l.SetLevel(parsed)
	}
	return nil
}
