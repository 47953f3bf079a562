package common

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lni/dragonboat/v4/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// --------------------------------------------------------------------------
// Custom Logger (implements dragonboats logger.ILogger)
// --------------------------------------------------------------------------

// bridgeLogger implements the ILogger interface on top of a named zap logger
type bridgeLogger struct {
	level atomic.Int32
	sugar *zap.SugaredLogger
}

func (l *bridgeLogger) SetLevel(level logger.LogLevel) {
	l.level.Store(int32(level))
}

func (l *bridgeLogger) enabled(level logger.LogLevel) bool {
	return logger.LogLevel(l.level.Load()) >= level
}

func (l *bridgeLogger) Debugf(format string, args ...interface{}) {
	if l.enabled(logger.DEBUG) {
		l.sugar.Debugf(format, args...)
	}
}

func (l *bridgeLogger) Infof(format string, args ...interface{}) {
	if l.enabled(logger.INFO) {
		l.sugar.Infof(format, args...)
	}
}

func (l *bridgeLogger) Warningf(format string, args ...interface{}) {
	if l.enabled(logger.WARNING) {
		l.sugar.Warnf(format, args...)
	}
}

func (l *bridgeLogger) Errorf(format string, args ...interface{}) {
	if l.enabled(logger.ERROR) {
		l.sugar.Errorf(format, args...)
	}
}

func (l *bridgeLogger) Panicf(format string, args ...interface{}) {
	if l.enabled(logger.CRITICAL) {
		panic(fmt.Sprintf(format, args...))
	}
}

// --------------------------------------------------------------------------
// Logger Factory
// --------------------------------------------------------------------------

var (
	baseOnce   sync.Once
	baseLogger *zap.Logger
)

// base returns the process wide zap logger all named loggers derive from.
// Filtering happens in bridgeLogger, so the core itself accepts everything.
func base() *zap.Logger {
	baseOnce.Do(func() {
		encCfg := zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		core := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			zapcore.DebugLevel,
		)
		baseLogger = zap.New(core)
	})
	return baseLogger
}

// CreateLogger implements the dragonboat logger.Factory
func CreateLogger(pkgName string) logger.ILogger {
	l := &bridgeLogger{sugar: base().Named(pkgName).Sugar()}
	l.level.Store(int32(logger.INFO))
	return l
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// ParseLogLevel converts a string level to logger.LogLevel
func ParseLogLevel(level string) (logger.LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return logger.DEBUG, nil
	case "info", "":
		return logger.INFO, nil
	case "warning", "warn":
		return logger.WARNING, nil
	case "error":
		return logger.ERROR, nil
	default:
		return logger.INFO, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}
}

// --------------------------------------------------------------------------
// Logger initialization
// --------------------------------------------------------------------------

// loggerNames are the named loggers used by the bridge packages
var loggerNames = []string{
	"bridge",
	"dispatch",
	"buffer",
	"cache",
	"db",
	"rpc",
	"transport/rpc",
}

var factoryOnce sync.Once

// InitLoggers installs the zap backed factory and applies the configured level.
// It can be called more than once, later calls only change the level.
func InitLoggers(config BridgeConfig) {
	factoryOnce.Do(func() {
		logger.SetLoggerFactory(CreateLogger)
	})

	level, err := ParseLogLevel(config.LogLevel)
	setLevel(level)
	if err != nil {
		logger.GetLogger("bridge").Warningf("%v, falling back to info", err)
	}
}

// SetLogLevel changes the level of all bridge loggers at runtime. Unlike
// InitLoggers it rejects unknown levels and leaves the current one in place.
func SetLogLevel(level string) error {
	parsed, err := ParseLogLevel(level)
	if err != nil {
		return err
	}
	setLevel(parsed)
	return nil
}

func setLevel(level logger.LogLevel) {
	for _, name := range loggerNames {
		logger.GetLogger(name).SetLevel(level)
	}
}
