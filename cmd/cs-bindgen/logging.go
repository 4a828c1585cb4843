package main

import (
	"go.uber.org/zap"

	"github.com/wippyai/cs-bindgen/config"
)

// newLogger builds the process logger. Console output uses the development
// encoder, json output the production one. Logs go to stderr so generated
// code on stdout stays clean.
func newLogger(c config.LoggingConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(c.Level)
	if err != nil {
		return nil, err
	}

	var zc zap.Config
	if c.Format == "json" {
		zc = zap.NewProductionConfig()
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.DisableStacktrace = true
	}
	zc.Level = level
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}
	return zc.Build()
}
