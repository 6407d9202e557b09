// Package monitoring - logging.go configures the process logger.
//
// DESIGN: zerolog's global logger is the side channel for everything that must
// not go into the audit stream: corruption recovery warnings, watcher errors,
// debug traces. Level "off" silences it entirely, which agents embedding the
// watcher use to keep their terminal clean.
package monitoring

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/docsmith/docsmith/internal/config"
)

// SetupLogging configures the global zerolog logger from the monitoring
// config. out defaults to stderr so stdout stays reserved for command output.
func SetupLogging(cfg config.MonitoringConfig, out io.Writer) {
	if out == nil {
		out = os.Stderr
	}

	level := zerolog.WarnLevel
	switch cfg.LogLevel {
	case "debug":
		level = zerolog.DebugLevel
	case "info":
		level = zerolog.InfoLevel
	case "warn":
		level = zerolog.WarnLevel
	case "error":
		level = zerolog.ErrorLevel
	case "off":
		level = zerolog.Disabled
	}
	zerolog.SetGlobalLevel(level)

	if cfg.LogFormat == "console" {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}
	log.Logger = zerolog.New(out).With().Timestamp().Logger()
}
