// Package logging wires the process-wide zerolog logger used by every binary.
package logging

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init configures the global zerolog logger from a level string (trace, debug,
// info, warn, error). An empty or unrecognized level defaults to info.
func Init(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	var w io.Writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
	stdlog.SetFlags(0)
	stdlog.SetOutput(log.Logger)
}

// Info writes the CLI-facing "[INFO] ..." line spec.md's worker contract
// requires, in addition to the structured zerolog record.
func Info(format string, args ...any) {
	msg := sprintf(format, args...)
	stdlog.Println("[INFO] " + msg)
	log.Info().Msg(msg)
}

// Err writes the CLI-facing "[ERR] ..." line spec.md's worker contract
// requires, in addition to the structured zerolog record.
func Err(format string, args ...any) {
	msg := sprintf(format, args...)
	stdlog.Println("[ERR] " + msg)
	log.Error().Msg(msg)
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
