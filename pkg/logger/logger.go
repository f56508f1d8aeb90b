// Package logger wraps logrus with context-aware helpers.
package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/inkbin/inkbin/pkg/ctxutil"
)

// InitLogging configures the logger. It sets the log level from the LOG_LEVEL environment variable if present.
func InitLogging() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "debug" // default if not set
	}
	setLogLevel(logLevel)
	logFormat := os.Getenv("LOG_FORMAT")
	if strings.ToLower(logFormat) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

func setLogLevel(level string) {
	switch strings.ToLower(level) {
	case "trace":
		logrus.SetLevel(logrus.TraceLevel)
	case "debug":
		logrus.SetLevel(logrus.DebugLevel)
	case "info":
		logrus.SetLevel(logrus.InfoLevel)
	case "warn":
		logrus.SetLevel(logrus.WarnLevel)
	case "error":
		logrus.SetLevel(logrus.ErrorLevel)
	case "fatal":
		logrus.SetLevel(logrus.FatalLevel)
	case "panic":
		logrus.SetLevel(logrus.PanicLevel)
	default:
		logrus.Infof("NO/Invalid LOG_LEVEL provided, defaulting logging level to DEBUG, provided level=[%s]", level)
		logrus.SetLevel(logrus.DebugLevel)
		return
	}
	logrus.Infof("Setting logging level to %s", level)
}

// ctxFields pulls tracing identifiers out of the context, if present.
func ctxFields(ctx context.Context) logrus.Fields {
	fields := logrus.Fields{}
	if id := ctxutil.RequestID(ctx); id != "" {
		fields["request_id"] = id
	}
	if id := ctxutil.ClientID(ctx); id != "" {
		fields["client_id"] = id
	}
	return fields
}

// With returns a logrus entry carrying the given fields plus any request
// identifiers found in the context.
func With(ctx context.Context, fields map[string]any) *logrus.Entry {
	merged := ctxFields(ctx)
	for k, v := range fields {
		merged[k] = v
	}
	return logrus.WithFields(merged)
}

// WithField is a single-field convenience wrapper around With.
func WithField(ctx context.Context, key string, value any) *logrus.Entry {
	return With(ctx, map[string]any{key: value})
}

// Sprintf formats as fmt.Sprintf. Exists so callers can build messages without
// importing fmt alongside this package.
func Sprintf(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}

func Info(ctx context.Context, msg string, args ...any) {
	logrus.WithFields(ctxFields(ctx)).Infof(msg, args...)
}

func Debug(ctx context.Context, msg string, args ...any) {
	logrus.WithFields(ctxFields(ctx)).Debugf(msg, args...)
}

func Error(ctx context.Context, msg string, args ...any) {
	logrus.WithFields(ctxFields(ctx)).Errorf(msg, args...)
}

func Trace(ctx context.Context, msg string, args ...any) {
	logrus.WithFields(ctxFields(ctx)).Tracef(msg, args...)
}

func Warn(ctx context.Context, msg string, args ...any) {
	logrus.WithFields(ctxFields(ctx)).Warnf(msg, args...)
}

func Fatal(ctx context.Context, msg string, args ...any) {
	logrus.WithFields(ctxFields(ctx)).Fatalf(msg, args...)
}
