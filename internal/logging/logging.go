// Package logging builds the process logger.
//
// vibectx serves MCP over stdio, so stdout belongs to the transport.
// Everything the server has to say goes to stderr.
package logging

import (
	"os"

	"github.com/charmbracelet/log"
)

// EnvLogLevel overrides the configured log level when set.
const EnvLogLevel = "VIBECTX_LOG_LEVEL"

// New returns a structured stderr logger at the given level.
// $VIBECTX_LOG_LEVEL wins over the argument; an unknown level falls
// back to info.
func New(level string) *log.Logger {
	if env := os.Getenv(EnvLogLevel); env != "" {
		level = env
	}
	parsed, err := log.ParseLevel(level)
	if err != nil {
		parsed = log.InfoLevel
	}
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "vibectx",
		Level:           parsed,
		ReportTimestamp: true,
	})
}
