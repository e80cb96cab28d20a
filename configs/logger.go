package configs

import "go.uber.org/zap"

// Logger is the process-wide structured logger. Hot paths should gate their
// calls on the Show* knobs; the logger itself is always safe to use.
var Logger = NewLogger()

func NewLogger() *zap.SugaredLogger {
	var base *zap.Logger
	var err error
	if ShowDebugInfo {
		base, err = zap.NewDevelopment()
	} else {
		base, err = zap.NewProduction()
	}
	CheckError(err)
	return base.Sugar()
}
