// Package logger builds the zap loggers used by nerve-tracer.
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Standard field names for consistent structured logging.
const (
	FieldComponent  = "component"
	FieldStage      = "stage"
	FieldCount      = "count"
	FieldPixels     = "pixels"
	FieldNodes      = "nodes"
	FieldEdges      = "edges"
	FieldIterations = "iterations"
	FieldDurationMS = "duration_ms"
	FieldError      = "error"
	FieldFile       = "file"
)

// Options configures logger construction.
type Options struct {
	Level       string // debug, info, warn, error
	Development bool   // human-readable console output
}

// New builds a zap logger from options. Unknown levels fall back to info.
func New(opts Options) (*zap.Logger, error) {
	level := parseLevel(opts.Level)

	var cfg zap.Config
	if opts.Development {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "ts"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	return cfg.Build()
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}

func parseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
