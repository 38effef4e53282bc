// Package logging sets up the logrus logger shared by the commands.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// LevelEnv names the variable read when no level is given.
const LevelEnv = "LOG_LEVEL"

// New creates a logger writing to out. An empty level falls back to
// LOG_LEVEL, then to info.
func New(level string, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	if level == "" {
		level = os.Getenv(LevelEnv)
	}

	switch strings.ToLower(level) {
	case "trace":
		logger.SetLevel(logrus.TraceLevel)
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info", "":
		logger.SetLevel(logrus.InfoLevel)
	case "warn", "warning":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
		logger.Warnf("Invalid log level '%s'; Using INFO", level)
	}

	return logger
}
