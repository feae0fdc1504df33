package events

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
)

const (
	DefaultMaxSize    = 100 // MB
	DefaultMaxAge     = 30  // days
	DefaultMaxBackups = 10  // files
)

// FileEmitter writes events to a log file with rotation support.
type FileEmitter struct {
	writer    *lumberjack.Logger
	formatter Formatter
	logger    *zap.Logger
}

// NewFileEmitter creates a file-based event emitter. An empty template
// selects JSON lines.
func NewFileEmitter(config configtypes.EventFileConfig, logger *zap.Logger) (*FileEmitter, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("event log path is required")
	}

	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	var formatter Formatter = JSONFormatter{}
	if config.Template != "" {
		tf, err := NewTemplateFormatter(config.Template)
		if err != nil {
			return nil, fmt.Errorf("invalid template for event log %s: %w", config.Path, err)
		}
		formatter = tf
	}

	maxSize := config.Rotation.MaxSize
	if maxSize == 0 {
		maxSize = DefaultMaxSize
	}

	maxAge := config.Rotation.MaxAge
	if maxAge == 0 {
		maxAge = DefaultMaxAge
	}

	maxBackups := config.Rotation.MaxBackups
	if maxBackups == 0 {
		maxBackups = DefaultMaxBackups
	}

	writer := &lumberjack.Logger{
		Filename:   config.Path,
		MaxSize:    maxSize,
		MaxAge:     maxAge,
		MaxBackups: maxBackups,
		Compress:   config.Rotation.Compress,
	}

	return &FileEmitter{
		writer:    writer,
		formatter: formatter,
		logger:    logger,
	}, nil
}

// Emit formats the event and writes it to the log file.
// Fire-and-forget: errors are logged but not returned.
func (f *FileEmitter) Emit(event *RequestEvent) {
	if event == nil {
		return
	}
	line := f.formatter.Format(event)
	if _, err := f.writer.Write([]byte(line + "\n")); err != nil {
		f.logger.Warn("failed to write event to log file",
			zap.Error(err),
			zap.String("request_id", event.RequestID),
		)
	}
}

// Close closes the underlying file handle.
func (f *FileEmitter) Close() error {
	return f.writer.Close()
}

// NewFromConfig builds the emitter set for cfg. Disabled or missing
// config yields a NoopEmitter.
func NewFromConfig(cfg *configtypes.EventLoggingConfig, logger *zap.Logger) (EventEmitter, error) {
	if cfg == nil || !cfg.File.Enabled {
		return &NoopEmitter{}, nil
	}

	fileEmitter, err := NewFileEmitter(cfg.File, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Event logging enabled", zap.String("path", cfg.File.Path))
	return NewMultiEmitter([]EventEmitter{fileEmitter}, logger), nil
}
