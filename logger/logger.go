// Package logger provides the leveled logger shared by the store, the scan
// driver and the backends.
package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger is a leveled, printf-style logger.
type Logger interface {
	Printf(format string, v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
	// WithPrefix returns a Logger writing to the same destination with
	// prefix prepended to every message.
	WithPrefix(prefix string) Logger
}

var _ Logger = nopLogger{}

// NopLogger discards everything.
var NopLogger Logger = nopLogger{}

type nopLogger struct{}

func (nopLogger) Printf(format string, v ...any) {}
func (nopLogger) Debugf(format string, v ...any) {}
func (nopLogger) Infof(format string, v ...any)  {}
func (nopLogger) Warnf(format string, v ...any)  {}
func (nopLogger) Errorf(format string, v ...any) {}
func (n nopLogger) WithPrefix(string) Logger     { return n }

// ParseLevel maps a level name to a logrus level. Unknown names map to info.
func ParseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	}
	return logrus.InfoLevel
}

// New returns a Logger writing text lines to w at the named level.
func New(w io.Writer, level string) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(ParseLevel(level))
	l.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		TimestampFormat:  "2006-01-02T15:04:05.000000Z07:00",
		DisableQuote:     true,
		QuoteEmptyFields: true,
	})
	return Wrap(l)
}

// Wrap adapts a logrus logger.
func Wrap(l *logrus.Logger) Logger {
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

type logrusLogger struct {
	entry  *logrus.Entry
	prefix string
}

func (l *logrusLogger) Printf(format string, v ...any) {
	l.entry.Info(l.prefix + fmt.Sprintf(format, v...))
}

func (l *logrusLogger) Debugf(format string, v ...any) {
	if l.entry.Logger.IsLevelEnabled(logrus.DebugLevel) {
		l.entry.Debug(l.prefix + fmt.Sprintf(format, v...))
	}
}

func (l *logrusLogger) Infof(format string, v ...any) {
	l.entry.Info(l.prefix + fmt.Sprintf(format, v...))
}

func (l *logrusLogger) Warnf(format string, v ...any) {
	l.entry.Warn(l.prefix + fmt.Sprintf(format, v...))
}

func (l *logrusLogger) Errorf(format string, v ...any) {
	l.entry.Error(l.prefix + fmt.Sprintf(format, v...))
}

func (l *logrusLogger) WithPrefix(prefix string) Logger {
	return &logrusLogger{entry: l.entry, prefix: l.prefix + prefix}
}
