// Package logging constructs the zap logger used across the agent and
// CLI, standing in for the original source's trace.h IMSG/EMSG/DMSG
// macros with a real structured-logging dependency.
package logging

import "go.uber.org/zap"

// New returns a production zap logger, or a development logger when
// verbose is set (human-readable, debug level enabled).
func New(verbose bool) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if verbose {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
