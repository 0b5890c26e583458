package aura

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level mirrors the source's slog(level, ...) severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

var (
	logMu  sync.Mutex
	logger = zap.NewNop().Sugar()
)

// InitLogging configures the process-wide structured logger, mirroring
// slog_init(path, level) from the source. path == "" or "-" logs to stderr.
// The core never calls this itself; until a host calls it, all log calls
// are no-ops.
func InitLogging(path string, level Level) error {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())
	cfg.Encoding = "console"
	cfg.EncoderConfig.TimeKey = "ts"
	if path == "" || path == "-" {
		cfg.OutputPaths = []string{"stderr"}
	} else {
		cfg.OutputPaths = []string{path}
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	logMu.Lock()
	logger = l.Sugar()
	logMu.Unlock()
	return nil
}

func log() *zap.SugaredLogger {
	logMu.Lock()
	defer logMu.Unlock()
	return logger
}
