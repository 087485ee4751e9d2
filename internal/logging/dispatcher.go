package logging

import "github.com/rs/zerolog"

// DispatcherLogger adapts the zerolog pipeline to the dispatcher.Logger
// interface. Debug rides the burst-sampled trace logger because logged
// dispatches fire per event and a scripted feed can deliver thousands
// per second; Info and Error always reach the primary logger.
type DispatcherLogger struct {
	logger zerolog.Logger
	trace  zerolog.Logger
}

// NewDispatcherLogger creates a DispatcherLogger over the primary and
// trace loggers, typically Manager.Logger and Manager.Trace.
func NewDispatcherLogger(logger, trace zerolog.Logger) *DispatcherLogger {
	return &DispatcherLogger{logger: logger, trace: trace}
}

// Debug logs a sampled debug message with optional key-value pairs.
func (l *DispatcherLogger) Debug(msg string, keysAndValues ...any) {
	l.trace.Debug().Fields(fieldMap(keysAndValues)).Msg(msg)
}

// Info logs an info message with optional key-value pairs.
func (l *DispatcherLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Info().Fields(fieldMap(keysAndValues)).Msg(msg)
}

// Error logs an error message with optional key-value pairs.
func (l *DispatcherLogger) Error(msg string, keysAndValues ...any) {
	l.logger.Error().Fields(fieldMap(keysAndValues)).Msg(msg)
}

// fieldMap converts key-value pairs to a map for zerolog. Keys that are
// not strings are dropped along with their values.
func fieldMap(keysAndValues []any) map[string]any {
	fields := make(map[string]any, len(keysAndValues)/2)
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		if key, ok := keysAndValues[i].(string); ok {
			fields[key] = keysAndValues[i+1]
		}
	}
	return fields
}
