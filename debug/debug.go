// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go: Cold-path structured logging helpers
//
// Purpose:
//   - Logs infrequent events: thread start/exit, affinity and name changes,
//     configuration loading, run loop state transitions.
//   - Keeps call sites one-liners so hot paths never build log records.
//
// Notes:
//   - Backed by github.com/phuslu/log; DefaultLogger is swapped by Configure.
//   - Component loggers copy the default logger and add a "component" field.
//
// ⚠️ Never invoke in hot loops; use only in failure diagnostics.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"
)

// DropError logs an error under prefix. A nil err logs prefix alone as a
// warning, which callers use as a cheap trace tag.
func DropError(prefix string, err error) {
	if err != nil {
		log.Error().Err(err).Msg(prefix)
		return
	}
	log.Warn().Msg(prefix)
}

// DropMessage logs an informational message under prefix.
func DropMessage(prefix, message string) {
	log.Info().Str("detail", message).Msg(prefix)
}

// ParseLevel converts a textual level to log.Level, defaulting to info.
func ParseLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "fatal":
		return log.FatalLevel
	default:
		return log.InfoLevel
	}
}

// Configure replaces the global default logger. A nil w writes to stderr
// through a console writer.
func Configure(level string, w io.Writer) {
	var writer log.Writer
	if w == nil {
		writer = &log.ConsoleWriter{
			ColorOutput:    false,
			QuoteString:    true,
			EndWithMessage: true,
			Writer:         os.Stderr,
		}
	} else {
		writer = &log.IOWriter{Writer: w}
	}
	log.DefaultLogger = log.Logger{
		Level:      ParseLevel(level),
		TimeField:  "time",
		TimeFormat: log.TimeFormatUnixMs,
		Writer:     writer,
	}
}

// Component returns a copy of the default logger tagged with component.
func Component(component string) log.Logger {
	bl := &log.DefaultLogger
	return log.Logger{
		Level:        bl.Level,
		TimeField:    bl.TimeField,
		TimeFormat:   bl.TimeFormat,
		TimeLocation: bl.TimeLocation,
		Writer:       bl.Writer,
		Context:      log.NewContext(bl.Context).Str("component", component).Value(),
	}
}
