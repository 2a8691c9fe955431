package logging

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrorSourceField is the field reporting where a logged error was created
const ErrorSourceField = "errorSource"

type stackTracer interface {
	StackTrace() errors.StackTrace
}

// ErrorLocationHook adds the origin of errors created or wrapped with github.com/pkg/errors to log entries
type ErrorLocationHook struct{}

// Levels implements logrus.Hook
func (h *ErrorLocationHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook
func (h *ErrorLocationHook) Fire(entry *logrus.Entry) error {
	err, ok := entry.Data[logrus.ErrorKey].(error)
	if !ok {
		return nil
	}
	var tracer stackTracer
	if !errors.As(err, &tracer) {
		return nil
	}
	trace := tracer.StackTrace()
	if len(trace) == 0 {
		return nil
	}
	entry.Data[ErrorSourceField] = fmt.Sprintf("%s:%d", trace[0], trace[0])
	return nil
}
