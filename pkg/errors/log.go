package errors

import (
	"log/slog"
)

// LogHandler is an ErrorHandler that logs errors through slog.
type LogHandler struct {
	// Logger receives the records. Nil means slog.Default().
	Logger *slog.Logger
	// Verbose adds stack traces to the records.
	Verbose bool
}

func (h *LogHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

// HandleError logs an EngineError. Hook and invariant failures carry the
// fields of the wrapped HookError or InvariantError.
func (h *LogHandler) HandleError(err *EngineError) {
	if err == nil {
		return
	}
	attrs := []any{"op", err.Op, "kind", err.Kind.String()}
	attrs = append(attrs, causeAttrs(err.Err)...)
	if h.Verbose && err.StackTrace != "" {
		attrs = append(attrs, "stack", err.StackTrace)
	}
	h.logger().Error(message(err.Kind), attrs...)
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	attrs := []any{"value", err.Value}
	if err.Op != "" {
		attrs = append(attrs, "op", err.Op)
	}
	if h.Verbose && err.StackTrace != "" {
		attrs = append(attrs, "stack", err.StackTrace)
	}
	h.logger().Error("ripple panic", attrs...)
}

// HandleRenderError logs an aborted pass or a failed effect. Invariant
// violations always include the stack.
func (h *LogHandler) HandleRenderError(err *RenderError) {
	if err == nil {
		return
	}
	kind := err.Kind()
	attrs := []any{"phase", err.Phase, "component", err.Component, "kind", kind.String()}
	if err.Recovered != nil && kind == KindPanic {
		attrs = append(attrs, "recovered", err.Recovered)
	}
	attrs = append(attrs, causeAttrs(err.Err)...)
	if (h.Verbose || kind == KindInvariant) && err.StackTrace != "" {
		attrs = append(attrs, "stack", err.StackTrace)
	}
	h.logger().Error(message(kind), attrs...)
}

func message(kind ErrorKind) string {
	switch kind {
	case KindHook:
		return "ripple hook misuse"
	case KindInvariant:
		return "ripple invariant violated"
	case KindRender, KindPanic:
		return "ripple render error"
	}
	return "ripple error"
}

// causeAttrs describes err, spelling out hook slots and invariant details.
func causeAttrs(err error) []any {
	var (
		hook *HookError
		inv  *InvariantError
	)
	switch {
	case err == nil:
		return nil
	case As(err, &hook):
		attrs := []any{"hook", hook.Hook}
		if hook.Slot >= 0 {
			attrs = append(attrs, "slot", hook.Slot)
		}
		if hook.Reason != "" {
			attrs = append(attrs, "reason", hook.Reason)
		}
		return append(attrs, "err", hook.Err)
	case As(err, &inv):
		attrs := []any{"invariant", inv.Op, "detail", inv.Detail}
		if inv.Err != nil {
			attrs = append(attrs, "err", inv.Err)
		}
		return attrs
	}
	return []any{"err", err}
}
