package logging

import "github.com/rs/zerolog"

// SchedulerLogger writes frame loop events through zerolog.
type SchedulerLogger struct {
	logger zerolog.Logger
}

func NewSchedulerLogger(logger zerolog.Logger) *SchedulerLogger {
	return &SchedulerLogger{logger: logger}
}

func (l *SchedulerLogger) Debug(msg string, keysAndValues ...any) {
	emit(l.logger.Debug(), msg, keysAndValues)
}

func (l *SchedulerLogger) Info(msg string, keysAndValues ...any) {
	emit(l.logger.Info(), msg, keysAndValues)
}

func (l *SchedulerLogger) Error(msg string, keysAndValues ...any) {
	emit(l.logger.Error(), msg, keysAndValues)
}

// emit attaches alternating key/value pairs to ev. Non-string keys and a
// trailing key without a value are dropped.
func emit(ev *zerolog.Event, msg string, keysAndValues []any) {
	if ev == nil {
		return
	}
	ev.Fields(toFields(keysAndValues)).Msg(msg)
}

func toFields(keysAndValues []any) map[string]any {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 1; i < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i-1].(string); ok {
			fields[key] = keysAndValues[i]
		}
	}
	return fields
}
