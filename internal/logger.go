package internal

import (
	commonlog "github.com/prometheus/common/log"
)

// Logger is implemented by the client, so its own logging backend can
// be provided. If none is supplied DefaultLogger is used. Shaped after
// the teacher's own hand-rolled Logger interface
// (pkg/mcast/logger.go), but the default implementation below is
// backed by a real ecosystem logger instead of the bare stdlib one.
type Logger interface {
	Info(v ...interface{})
	Infof(format string, v ...interface{})

	Warn(v ...interface{})
	Warnf(format string, v ...interface{})

	Error(v ...interface{})
	Errorf(format string, v ...interface{})

	Debug(v ...interface{})
	Debugf(format string, v ...interface{})

	Fatal(v ...interface{})
	Fatalf(format string, v ...interface{})

	Panic(v ...interface{})
	Panicf(format string, v ...interface{})
}

// DefaultLogger wraps github.com/prometheus/common/log, the same
// logging package the teacher repo's go.mod already depends on
// directly and which internal/transport.go (in the teacher) imports
// for its own logging. That package itself wraps logrus, which is why
// logrus rides along as an indirect dependency here too.
type DefaultLogger struct {
	backend commonlog.Logger
}

func NewDefaultLogger() *DefaultLogger {
	return &DefaultLogger{backend: commonlog.Base()}
}

func (l *DefaultLogger) Info(v ...interface{})                 { l.backend.Info(v...) }
func (l *DefaultLogger) Infof(format string, v ...interface{}) { l.backend.Infof(format, v...) }
func (l *DefaultLogger) Warn(v ...interface{})                 { l.backend.Warn(v...) }
func (l *DefaultLogger) Warnf(format string, v ...interface{}) { l.backend.Warnf(format, v...) }
func (l *DefaultLogger) Error(v ...interface{})                { l.backend.Error(v...) }
func (l *DefaultLogger) Errorf(format string, v ...interface{}) {
	l.backend.Errorf(format, v...)
}
func (l *DefaultLogger) Debug(v ...interface{})                 { l.backend.Debug(v...) }
func (l *DefaultLogger) Debugf(format string, v ...interface{}) { l.backend.Debugf(format, v...) }
func (l *DefaultLogger) Fatal(v ...interface{})                 { l.backend.Fatal(v...) }
func (l *DefaultLogger) Fatalf(format string, v ...interface{}) { l.backend.Fatalf(format, v...) }

// Panic and Panicf have no prometheus/common/log equivalent, so they
// log at error level and then panic, same net effect as the stdlib
// log.Logger.Panic the teacher's DefaultLogger delegated to.
func (l *DefaultLogger) Panic(v ...interface{}) {
	l.backend.Error(v...)
	panic(v)
}

func (l *DefaultLogger) Panicf(format string, v ...interface{}) {
	l.backend.Errorf(format, v...)
	panic(v)
}
