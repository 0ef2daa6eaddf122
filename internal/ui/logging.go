package ui

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Logger struct {
	*logrus.Entry
}

func NewLogger(debug bool) *Logger {
	return newLogger(os.Stdout, debug)
}

func newLogger(w io.Writer, debug bool) *Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		PadLevelText:     true,
	})
	if debug {
		l.SetLevel(logrus.DebugLevel)
	}

	return &Logger{Entry: logrus.NewEntry(l)}
}

// Discard returns a logger that drops everything, for tests and library use.
func Discard() *Logger {
	return newLogger(io.Discard, false)
}

func (l *Logger) With(key string, value any) *Logger {
	return &Logger{Entry: l.Entry.WithField(key, value)}
}
