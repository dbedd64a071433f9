// Package logging builds the logrus.Logger the orchestrator and CLI
// share, the way the teacher's setupLogger does.
package logging

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is the minimal surface internal/p2 needs, letting tests pass nil
// or a stub instead of pulling in logrus.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
}

// New builds a logrus.Logger configured the way the teacher's
// setupLogger does: full timestamps, level parsed from a string with a
// verbose fallback.
func New(level string, verbose bool) *logrus.Logger {
	logger := logrus.New()

	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	switch strings.ToLower(level) {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}
	}

	return logger
}
