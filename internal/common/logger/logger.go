package logger

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/educationmalaysia/seo-server/internal/common/configtypes"
)

// DynamicLogger wraps zap.Logger with per-output levels that can change at runtime.
// Startup and shutdown are logged at INFO even when the configured level is higher.
type DynamicLogger struct {
	*zap.Logger
	consoleLevel     *zap.AtomicLevel
	fileLevel        *zap.AtomicLevel
	configuredConfig configtypes.LogConfig
}

// SwitchToConfiguredLevel switches logger to the originally configured level
func (dl *DynamicLogger) SwitchToConfiguredLevel() {
	globalLevel := parseLogLevel(dl.configuredConfig.Level)

	dl.Info("Switching logger to configured level", zap.String("level", dl.configuredConfig.Level))

	if dl.consoleLevel != nil {
		dl.consoleLevel.SetLevel(resolveLogLevel(dl.configuredConfig.Console.Level, globalLevel))
	}
	if dl.fileLevel != nil {
		dl.fileLevel.SetLevel(resolveLogLevel(dl.configuredConfig.File.Level, globalLevel))
	}
}

// EnsureInfoLevelForShutdown lowers every output to INFO so the shutdown
// sequence is always visible
func (dl *DynamicLogger) EnsureInfoLevelForShutdown() {
	changed := false
	for _, lvl := range []*zap.AtomicLevel{dl.consoleLevel, dl.fileLevel} {
		if lvl != nil && lvl.Level() > zap.InfoLevel {
			lvl.SetLevel(zap.InfoLevel)
			changed = true
		}
	}
	if changed {
		dl.Info("Switched to INFO level for shutdown visibility")
	}
}

// NewLogger builds a logger with a console core, a rotated file core, or both
func NewLogger(config configtypes.LogConfig) (*DynamicLogger, error) {
	return newLogger(config, os.Stdout)
}

func newLogger(config configtypes.LogConfig, console io.Writer) (*DynamicLogger, error) {
	globalLevel := parseLogLevel(config.Level)
	dl := &DynamicLogger{configuredConfig: config}

	var cores []zapcore.Core

	if config.Console.Enabled {
		level := zap.NewAtomicLevelAt(resolveLogLevel(config.Console.Level, globalLevel))
		dl.consoleLevel = &level
		cores = append(cores, zapcore.NewCore(createEncoder(config.Console.Format), zapcore.Lock(zapcore.AddSync(console)), level))
	}

	if config.File.Enabled {
		if config.File.Path == "" {
			return nil, fmt.Errorf("file.path must be specified when file logging is enabled")
		}
		level := zap.NewAtomicLevelAt(resolveLogLevel(config.File.Level, globalLevel))
		dl.fileLevel = &level
		cores = append(cores, zapcore.NewCore(createEncoder(config.File.Format), createFileWriter(config.File.Path, config.File.Rotation), level))
	}

	switch len(cores) {
	case 0:
		return nil, fmt.Errorf("at least one log output (console or file) must be enabled")
	case 1:
		dl.Logger = zap.New(cores[0])
	default:
		dl.Logger = zap.New(zapcore.NewTee(cores...))
	}

	return dl, nil
}

// NewLoggerWithStartupOverride creates a logger that starts at INFO when the
// configured level is higher; call SwitchToConfiguredLevel once startup is done.
func NewLoggerWithStartupOverride(config configtypes.LogConfig) (*DynamicLogger, error) {
	if parseLogLevel(config.Level) <= zap.InfoLevel {
		return NewLogger(config)
	}

	startup := config
	startup.Level = configtypes.LogLevelInfo
	if startup.Console.Enabled && startup.Console.Level == "" {
		startup.Console.Level = configtypes.LogLevelInfo
	}
	if startup.File.Enabled && startup.File.Level == "" {
		startup.File.Level = configtypes.LogLevelInfo
	}

	dl, err := NewLogger(startup)
	if err != nil {
		return nil, err
	}
	dl.configuredConfig = config
	return dl, nil
}

// NewDefaultLogger creates the bootstrap logger used before config is loaded
func NewDefaultLogger() (*DynamicLogger, error) {
	return NewLogger(configtypes.LogConfig{
		Level: configtypes.LogLevelDebug,
		Console: configtypes.ConsoleLogConfig{
			Enabled: true,
			Format:  configtypes.LogFormatConsole,
		},
	})
}

func parseLogLevel(level string) zapcore.Level {
	switch level {
	case configtypes.LogLevelDebug:
		return zap.DebugLevel
	case configtypes.LogLevelWarn:
		return zap.WarnLevel
	case configtypes.LogLevelError:
		return zap.ErrorLevel
	case configtypes.LogLevelDPanic:
		return zap.DPanicLevel
	case configtypes.LogLevelPanic:
		return zap.PanicLevel
	case configtypes.LogLevelFatal:
		return zap.FatalLevel
	default:
		return zap.InfoLevel
	}
}

// resolveLogLevel prefers the per-output level over the global one
func resolveLogLevel(outputLevel string, globalLevel zapcore.Level) zapcore.Level {
	if outputLevel != "" {
		return parseLogLevel(outputLevel)
	}
	return globalLevel
}

// createEncoder returns a JSON encoder, a colored console encoder, or a
// plain text encoder for files
func createEncoder(format string) zapcore.Encoder {
	if format == configtypes.LogFormatJSON {
		return zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	}

	encoderConfig := zap.NewDevelopmentEncoderConfig()
	if format == configtypes.LogFormatText {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func createFileWriter(path string, rotation configtypes.RotationConfig) zapcore.WriteSyncer {
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    rotation.MaxSize,
		MaxAge:     rotation.MaxAge,
		MaxBackups: rotation.MaxBackups,
		Compress:   rotation.Compress,
	})
}
