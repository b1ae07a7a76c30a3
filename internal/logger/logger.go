package logger

import (
	"io"
	stdlog "log"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/sitesentry/sitesentry/internal/common"
)

// New creates a zerolog logger from the given configuration. Console output
// is always enabled; file output is enabled when LogFile is set and rotates
// via lumberjack.
func New(cfg LogConfig) (zerolog.Logger, error) {
	writers := []io.Writer{consoleWriter(cfg.LogFormat)}

	if cfg.LogFile != "" {
		fileWriter, err := fileWriter(cfg)
		if err != nil {
			return zerolog.Logger{}, common.WrapError(err, "failed to create log file writer")
		}
		writers = append(writers, fileWriter)
	}

	level := parseLevel(cfg.LogLevel)
	multiWriter := zerolog.MultiLevelWriter(writers...)
	logger := zerolog.New(multiWriter).
		Level(level).
		With().
		Timestamp().
		Logger()

	zerolog.SetGlobalLevel(level)
	stdlog.SetOutput(logger)
	stdlog.SetFlags(0)

	return logger, nil
}

func consoleWriter(format string) io.Writer {
	switch format {
	case "json":
		return os.Stderr
	case "text":
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339, NoColor: true}
	default:
		return zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	}
}

func fileWriter(cfg LogConfig) (io.Writer, error) {
	logDir := filepath.Dir(cfg.LogFile)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, common.WrapErrorf(err, "creating log directory %s", logDir)
	}

	maxSize := cfg.MaxLogSizeMB
	if maxSize <= 0 {
		maxSize = 100
	}

	return &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    maxSize,
		MaxBackups: cfg.MaxLogBackups,
		Compress:   true,
	}, nil
}
