package config

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// SetupLogging configures the standard logrus logger from LOG_LEVEL and
// LOG_FORMAT. Unknown levels fall back to info.
func SetupLogging(cfg *Config) {
	if strings.EqualFold(cfg.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}
