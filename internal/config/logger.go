package config

import (
	"io"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. Debug mode forces debug level and text output.
func NewLogger(c Log, out io.Writer, debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)

	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	if debug || c.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	if debug {
		level = logrus.DebugLevel
	}
	logger.SetLevel(level)
	return logger
}
