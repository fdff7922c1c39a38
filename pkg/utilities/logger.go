package utilities

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level string
	Dev   bool

	// File enables a daily-rotated log file next to stdout when non-empty.
	File   string
	MaxAge time.Duration
	Rotate time.Duration
}

// ConfigFromEnv reads minimal config from env vars.
func ConfigFromEnv() Config {
	dev := os.Getenv("LOG_DEV") == "1"
	lvl := os.Getenv("LOG_LEVEL")
	if lvl == "" {
		if dev {
			lvl = "debug"
		} else {
			lvl = "info"
		}
	}
	return Config{
		Level:  lvl,
		Dev:    dev,
		File:   os.Getenv("LOG_FILE"),
		MaxAge: 7 * 24 * time.Hour,
		Rotate: 24 * time.Hour,
	}
}

func levelFromString(l string) zapcore.Level {
	switch strings.ToLower(l) {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init initializes and returns a *zap.Logger
func Init(cfg Config) (*zap.Logger, error) {
	lvl := levelFromString(cfg.Level)
	if cfg.Dev && cfg.File == "" {
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(lvl)
		return c.Build()
	}

	sink, err := logSink(cfg)
	if err != nil {
		return nil, err
	}
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), sink, lvl)
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Dev {
		opts = append(opts, zap.Development())
	}
	return zap.New(core, opts...), nil
}

// NewNop is used by tests and tools that don't care about output.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

func logSink(cfg Config) (zapcore.WriteSyncer, error) {
	if cfg.File == "" {
		return zapcore.AddSync(os.Stdout), nil
	}
	rotator, err := newRotator(cfg)
	if err != nil {
		return nil, err
	}
	return zapcore.AddSync(io.MultiWriter(os.Stdout, rotator)), nil
}

func newRotator(cfg Config) (*rotatelogs.RotateLogs, error) {
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 7 * 24 * time.Hour
	}
	rotate := cfg.Rotate
	if rotate <= 0 {
		rotate = 24 * time.Hour
	}
	ext := filepath.Ext(cfg.File)
	base := strings.TrimSuffix(cfg.File, ext)
	return rotatelogs.New(
		base+".%Y%m%d"+ext,
		rotatelogs.WithLinkName(cfg.File),
		rotatelogs.WithMaxAge(maxAge),
		rotatelogs.WithRotationTime(rotate),
	)
}
