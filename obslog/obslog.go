// Package obslog constructs the process-wide zerolog.Logger and the small
// per-stage helpers used to log suspension-boundary outcomes (spec.md §5).
// There is no package-level logger singleton: New returns a value that
// callers thread through their own constructors, same as config.Config.
package obslog

import (
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New builds a console-friendly logger when pretty is true and a plain JSON
// logger otherwise (cmd/drugsearchd sets pretty from its -pretty-log flag).
func New(service string, pretty bool) zerolog.Logger {
	var writer = os.Stderr
	base := zerolog.New(writer).With().Timestamp().Str("service", service).Logger()
	if pretty {
		base = base.Output(zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339})
	}
	return base
}

// StageOutcome logs a single pipeline stage's latency and, on failure, the
// degrade path taken. Call sites pass the error observed for that stage (nil
// on success).
func StageOutcome(log zerolog.Logger, stage string, latency time.Duration, err error, degradedTo string) {
	evt := log.Debug()
	if err != nil {
		evt = log.Warn().Err(err).Str("degraded_to", degradedTo)
	}
	evt.Str("stage", stage).Dur("latency", latency).Msg("stage complete")
}
