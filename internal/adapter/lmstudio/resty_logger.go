package lmstudio

import (
	"fmt"

	"github.com/thushan/lmsgate/internal/logger"
)

// restyLogger routes resty's own diagnostics through slog at debug level,
// failures are already reported by the handlers
type restyLogger struct {
	log logger.StyledLogger
}

func newRestyLogger(log logger.StyledLogger) *restyLogger {
	return &restyLogger{log: log}
}

func (l *restyLogger) Errorf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...), "source", "resty")
}

func (l *restyLogger) Warnf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...), "source", "resty")
}

func (l *restyLogger) Debugf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...), "source", "resty")
}
