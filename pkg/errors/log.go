package errors

import "go.uber.org/zap"

// LogHandler is an ErrorHandler that writes errors to a zap logger.
// A nil Logger discards everything.
type LogHandler struct {
	Logger *zap.Logger
	// Verbose adds stack traces to the log entries.
	Verbose bool
}

func (h *LogHandler) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}

// HandleError logs a WidgetError.
func (h *LogHandler) HandleError(err *WidgetError) {
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("op", err.Op),
		zap.Stringer("kind", err.Kind),
		zap.Error(err.Err),
	}
	if err.Widget != "" {
		fields = append(fields, zap.String("widget", err.Widget))
	}
	if err.ElementID != "" {
		fields = append(fields, zap.String("element", err.ElementID))
	}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, zap.String("stack", err.StackTrace))
	}
	h.logger().Error("widget error", fields...)
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("op", err.Op),
		zap.Any("value", err.Value),
	}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, zap.String("stack", err.StackTrace))
	}
	h.logger().Error("widget panic", fields...)
}
