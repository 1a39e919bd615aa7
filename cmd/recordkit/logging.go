package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/recordkit"
	"github.com/wippyai/recordkit/accessor"
	"github.com/wippyai/recordkit/arena"
)

// newLogger builds a development logger for the console format and a
// production logger for json. Both write to stderr.
func newLogger(c LogConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, usageError{fmt.Errorf("log.level: %w", err)}
	}

	var zc zap.Config
	switch c.Format {
	case "", "console":
		zc = zap.NewDevelopmentConfig()
	case "json":
		zc = zap.NewProductionConfig()
	default:
		return nil, usageError{fmt.Errorf("log.format: unknown format %q", c.Format)}
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}

func installLogger(c LogConfig) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	recordkit.SetLogger(l)
	arena.SetLogger(l.Named("arena"))
	accessor.SetLogger(l.Named("accessor"))
	return nil
}
