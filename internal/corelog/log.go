// Package corelog provides the small logging interface used across the
// core's internal packages. Components never import a concrete logging
// library directly; they take a Logger, so a headless host can supply a
// no-op implementation and a GUI host can supply a structured one.
package corelog

import "github.com/sirupsen/logrus"

// Logger is the interface every subsystem logs through.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Nop discards everything. It is the default for core.New when no logger is
// supplied, so the hot loop never pays for formatting it doesn't need.
type Nop struct{}

func (Nop) Debugf(string, ...interface{}) {}
func (Nop) Infof(string, ...interface{})  {}
func (Nop) Warnf(string, ...interface{})  {}
func (Nop) Errorf(string, ...interface{}) {}

// logrusLogger adapts a *logrus.Logger to the Logger interface.
type logrusLogger struct {
	l *logrus.Logger
}

// NewLogrus returns a Logger backed by logrus, for hosts that want
// structured, leveled output (e.g. to surface mapper/RTC anomalies).
func NewLogrus() Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return &logrusLogger{l: l}
}

func (r *logrusLogger) Debugf(format string, args ...interface{}) { r.l.Debugf(format, args...) }
func (r *logrusLogger) Infof(format string, args ...interface{})  { r.l.Infof(format, args...) }
func (r *logrusLogger) Warnf(format string, args ...interface{})  { r.l.Warnf(format, args...) }
func (r *logrusLogger) Errorf(format string, args ...interface{}) { r.l.Errorf(format, args...) }
