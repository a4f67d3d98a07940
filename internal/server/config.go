package server

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvLogLevel      = "CORNER_MCP_LOG_LEVEL"
	EnvMaxDimension  = "CORNER_MCP_MAX_DIMENSION"
	EnvQueueCapacity = "CORNER_MCP_QUEUE_CAPACITY"
)

// MaxQueueCapacity bounds QueueCapacity. Every pooled detector allocates its
// corner slots up front, so a huge value would be paid per detector.
const MaxQueueCapacity = 1 << 20

// Config holds server-wide settings.
type Config struct {
	// LogLevel is the minimum level written to stderr.
	LogLevel logrus.Level

	// MaxDimension downscales images before detection when a tool call does
	// not pass its own max_dimension. Zero disables downscaling.
	MaxDimension int

	// QueueCapacity is the number of corner slots each pooled detector
	// allocates up front.
	QueueCapacity int
}

// DefaultConfig returns the settings used when no environment overrides are set.
func DefaultConfig() Config {
	return Config{
		LogLevel:      logrus.InfoLevel,
		MaxDimension:  2048,
		QueueCapacity: 1000,
	}
}

// ConfigFromEnv reads the server settings from the process environment.
func ConfigFromEnv(logger logrus.FieldLogger) Config {
	return LoadConfig(os.Getenv, logger)
}

// LoadConfig reads settings through getenv. Unset variables keep their
// defaults; unparsable ones are logged and ignored.
func LoadConfig(getenv func(string) string, logger logrus.FieldLogger) Config {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cfg := DefaultConfig()

	if v := getenv(EnvLogLevel); v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			logger.WithField("value", v).Warnf("ignoring %s: %v", EnvLogLevel, err)
		} else {
			cfg.LogLevel = level
		}
	}

	cfg.MaxDimension = envInt(getenv, EnvMaxDimension, cfg.MaxDimension, logger)
	cfg.QueueCapacity = envInt(getenv, EnvQueueCapacity, cfg.QueueCapacity, logger)
	if cfg.QueueCapacity > MaxQueueCapacity {
		logger.WithFields(logrus.Fields{"value": cfg.QueueCapacity, "max": MaxQueueCapacity}).
			Warnf("clamping %s", EnvQueueCapacity)
		cfg.QueueCapacity = MaxQueueCapacity
	}
	return cfg
}

func envInt(getenv func(string) string, name string, def int, logger logrus.FieldLogger) int {
	v := getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		logger.WithFields(logrus.Fields{"value": v, "default": def}).
			Warnf("ignoring %s: expected a non-negative integer", name)
		return def
	}
	return n
}
