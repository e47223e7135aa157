package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// LevelEnvVar names the environment variable holding the log level.
const LevelEnvVar = "LOG_LEVEL"

// Init configures the global zerolog logger.
// LOG_LEVEL selects debug, info, warn or error (default: info). Inside Lambda
// the output stays as one JSON object per line so CloudWatch Logs Insights can
// query fields; everywhere else a console writer on stderr is used.
func Init() {
	zerolog.SetGlobalLevel(ParseLevel(os.Getenv(LevelEnvVar)))

	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
		return
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
}

// InitWriter points the global logger at w at the given level. The CLI uses it
// for --verbose, tests use it to capture output.
func InitWriter(w io.Writer, level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
	log.Logger = zerolog.New(w).With().Timestamp().Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
