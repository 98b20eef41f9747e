package main

import (
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var defaultLogger = logrus.WithField("component", "clustermap")

// GetLogger returns the command-level logger.
func GetLogger() *logrus.Entry {
	return defaultLogger
}

// SetLogrus configures the global logrus level and formatter.
func SetLogrus(c LogConfig) error {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return errors.Wrapf(err, "invalid log level %q", c.Level)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
		ForceColors:   c.Color,
		DisableColors: !c.Color,
	})
	return nil
}
