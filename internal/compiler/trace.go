package compiler

import (
	"go.uber.org/zap"
)

// newTraceLogger builds the job's structured progress logger: a real
// development logger under --verbose (one line per scan/import/cmod-load
// event), or a no-op otherwise so the pipeline's zap.* calls cost nothing
// by default.
func newTraceLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
