// Package logging builds the zap logger shared by the coursesync run.
//
// Log output goes to stderr; stdout is reserved for the per-module lines.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"coursesync/model"
)

const DefaultLevel = "info"

// New returns a console logger writing to stderr at the given level
// (debug, info, warn or error; empty means info).
func New(level string) (*zap.SugaredLogger, error) {
	return NewWithSink(level, zapcore.Lock(os.Stderr))
}

// NewWithSink is New with an explicit destination.
func NewWithSink(level string, sink zapcore.WriteSyncer) (*zap.SugaredLogger, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), sink, lvl)
	return zap.New(core).Sugar(), nil
}

func ParseLevel(level string) (zapcore.Level, error) {
	level = strings.TrimSpace(level)
	if level == "" {
		level = DefaultLevel
	}
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w: invalid log level %q, choose one of debug, info, warn, error", model.ErrInvalidConfig, level)
	}
	if strings.EqualFold(level, "warning") {
		level = "warn"
	}
	return zapcore.ParseLevel(strings.ToLower(level))
}
