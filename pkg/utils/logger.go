package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogOptions configures NewLogger.
type LogOptions struct {
	Debug bool
	// File, when set, receives JSON logs through a rotating writer in
	// addition to stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	return NewLoggerWithOptions(LogOptions{Debug: debug})
}

// NewLoggerWithOptions returns a zap logger that writes to stderr and, when
// opts.File is set, tees JSON entries into a lumberjack-rotated file.
func NewLoggerWithOptions(opts LogOptions) (*zap.Logger, error) {
	var (
		base *zap.Logger
		err  error
	)
	if opts.Debug {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	if opts.File == "" {
		return base, nil
	}

	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(newRotatingWriter(opts)),
		level,
	)
	return base.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, fileCore)
	})), nil
}

func newRotatingWriter(opts LogOptions) *lumberjack.Logger {
	w := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    100, // megabytes
		MaxBackups: 5,
		MaxAge:     7, // days
		Compress:   true,
	}
	if opts.MaxSizeMB > 0 {
		w.MaxSize = opts.MaxSizeMB
	}
	if opts.MaxBackups > 0 {
		w.MaxBackups = opts.MaxBackups
	}
	if opts.MaxAgeDays > 0 {
		w.MaxAge = opts.MaxAgeDays
	}
	return w
}
