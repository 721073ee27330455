// Package logging builds the one *logrus.Logger each process constructs
// in main and threads through every component by explicit injection.
package logging

import (
	"github.com/sirupsen/logrus"

	"github.com/paaavkata/coinwatch/internal/config"
)

func New(cfg *config.Config) *logrus.Logger {
	logger := logrus.New()

	switch cfg.LogLevel {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.Environment == "production" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	return logger.WithField("service", cfg.ServiceName).Logger
}
