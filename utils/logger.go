package utils

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// NewLogger returns a text logger writing to w with the given level name
// ("debug", "info", "warning", "error").
func NewLogger(w io.Writer, level string) (*logrus.Logger, error) {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})

	if level == "" {
		level = "info"
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "Unknown log level %q", level)
	}
	l.SetLevel(lvl)
	return l, nil
}

// DiscardLogger swallows everything, used when the caller passes no logger
func DiscardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func StderrLogger() *logrus.Logger {
	l, _ := NewLogger(os.Stderr, "info")
	return l
}
