package cliutil

import (
	"os"

	log "log/slog"

	"github.com/lmittmann/tint"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// SetupLogging installs the tinted slog handler shared by every entry point.
func SetupLogging(level string) {
	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[level],
	})))
}

// Fatal logs and exits non-zero.
func Fatal(msg string, args ...any) {
	log.Error(msg, args...)
	os.Exit(1)
}
