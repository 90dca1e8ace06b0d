// warehouse-go/pkg/logger/logger.go

// Package logger configures the process-wide zerolog output. Most of
// the repo logs through github.com/rs/zerolog/log; this package owns
// the format and level of that global logger.
package logger

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// Log is the configured root logger, for call sites that attach
// fields once and keep the derived logger around.
var Log zerolog.Logger

func init() {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339

	Log = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: "2006-01-02 15:04:05",
	}).Level(zerolog.InfoLevel).With().Timestamp().Caller().Logger()
	log.Logger = Log
}

// SetLevel accepts either a gin server mode (debug/release) or an
// explicit zerolog level name.
func SetLevel(mode string) {
	var level zerolog.Level
	switch mode {
	case "debug":
		level = zerolog.DebugLevel
	case "release", "test", "":
		level = zerolog.InfoLevel
	default:
		parsed, err := zerolog.ParseLevel(mode)
		if err != nil {
			Log.Warn().Str("level", mode).Msg("unknown log level, keeping info")
			parsed = zerolog.InfoLevel
		}
		level = parsed
	}
	zerolog.SetGlobalLevel(level)
	Log = Log.Level(level)
	log.Logger = Log
}
