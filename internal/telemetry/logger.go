// Package telemetry provides a structured-logging helper (Logger, a logrus
// wrapper) and a bounded trace ring buffer (Tracer). The compressor and
// decompressor endpoints do not use this package: they send trace lines
// directly to their caller-supplied interfaces.TraceSink.
package telemetry

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus with the package/component/cid fields every log line
// from this module carries, mirroring the structured-field convention this
// codebase's cryptographic layer established for its own diagnostics.
type Logger struct {
	component string
	fields    logrus.Fields
}

// NewLogger creates a Logger tagged with component (e.g. "comp", "decomp").
func NewLogger(component string) *Logger {
	return &Logger{
		component: component,
		fields: logrus.Fields{
			"component": component,
		},
	}
}

// WithCID returns a derived Logger with the given CID attached to every
// subsequent line.
func (l *Logger) WithCID(cid uint16) *Logger {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields["cid"] = cid
	return &Logger{component: l.component, fields: fields}
}

// WithField returns a derived Logger with one extra field attached.
func (l *Logger) WithField(key string, value interface{}) *Logger {
	fields := make(logrus.Fields, len(l.fields)+1)
	for k, v := range l.fields {
		fields[k] = v
	}
	fields[key] = value
	return &Logger{component: l.component, fields: fields}
}

func (l *Logger) Debug(msg string) { logrus.WithFields(l.fields).Debug(msg) }
func (l *Logger) Info(msg string)  { logrus.WithFields(l.fields).Info(msg) }
func (l *Logger) Warn(msg string)  { logrus.WithFields(l.fields).Warn(msg) }
func (l *Logger) Error(msg string) { logrus.WithFields(l.fields).Error(msg) }

// Debugf, Infof, Warnf, Errorf apply fmt.Sprintf before logging, for the
// call sites that build a message from several values.
func (l *Logger) Debugf(format string, args ...interface{}) {
	logrus.WithFields(l.fields).Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	logrus.WithFields(l.fields).Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	logrus.WithFields(l.fields).Error(fmt.Sprintf(format, args...))
}
