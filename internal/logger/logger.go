// Package logger builds the zap loggers shared by the server, worker and configure binaries
// and carries request-scoped log fields through a context.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the logger flavour
type Options struct {
	// Service is attached to every entry as "service"
	Service string
	Debug   bool
	// Console switches to zap's human readable development encoder
	Console bool
}

// New builds a logger from opts
func New(opts Options) (*zap.Logger, error) {
	var config zap.Config
	if opts.Console {
		config = zap.NewDevelopmentConfig()
	} else {
		config = zap.NewProductionConfig()
		config.Encoding = "json"
		config.EncoderConfig = zapcore.EncoderConfig{
			TimeKey:        "ts",
			LevelKey:       "level",
			NameKey:        "logger",
			CallerKey:      "caller",
			FunctionKey:    zapcore.OmitKey,
			MessageKey:     "msg",
			StacktraceKey:  "stacktrace",
			LineEnding:     zapcore.DefaultLineEnding,
			EncodeLevel:    zapcore.LowercaseLevelEncoder,
			EncodeTime:     zapcore.ISO8601TimeEncoder,
			EncodeDuration: zapcore.SecondsDurationEncoder,
			EncodeCaller:   zapcore.ShortCallerEncoder,
		}
		// stack traces for error level and above
		config.DisableStacktrace = false
	}

	config.Level = zap.NewAtomicLevelAt(level(opts.Debug))
	if opts.Service != "" {
		config.InitialFields = map[string]interface{}{"service": opts.Service}
	}
	return config.Build()
}

// NewProductionLogger creates a JSON logger for the named service
func NewProductionLogger(service string, debugMode bool) (*zap.Logger, error) {
	return New(Options{Service: service, Debug: debugMode})
}

// NewDevelopmentLogger creates a console logger, used by the configure CLI
func NewDevelopmentLogger(debugMode bool) (*zap.Logger, error) {
	return New(Options{Debug: debugMode, Console: true})
}

// Sync flushes buffered entries. Safe on a nil logger and safe to call more than once.
func Sync(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}
	return logger.Sync()
}

func level(debug bool) zapcore.Level {
	if debug {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
