package errors

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"sync"
	"time"
)

var (
	// DefaultHandler receives every reported error. It defaults to a
	// LogHandler writing through slog.Default().
	DefaultHandler ErrorHandler = &LogHandler{}

	handlerMu sync.RWMutex
)

// SetHandler replaces the global error handler. Nil restores the default
// LogHandler.
func SetHandler(h ErrorHandler) {
	handlerMu.Lock()
	defer handlerMu.Unlock()
	if h == nil {
		h = &LogHandler{}
	}
	DefaultHandler = h
}

func getHandler() ErrorHandler {
	handlerMu.RLock()
	defer handlerMu.RUnlock()
	return DefaultHandler
}

// KindOf classifies err by the first engine error type found in its tree.
// Hook misuse and invariant violations win over the errors wrapping them.
func KindOf(err error) ErrorKind {
	var (
		hook   *HookError
		inv    *InvariantError
		render *RenderError
		pe     *PanicError
		ee     *EngineError
	)
	switch {
	case err == nil:
		return KindUnknown
	case As(err, &hook):
		return KindHook
	case As(err, &inv):
		return KindInvariant
	case As(err, &render):
		return render.Kind()
	case As(err, &pe):
		return KindPanic
	case As(err, &ee):
		return ee.Kind
	}
	return KindUnknown
}

// Report sends err to the global handler. A zero Timestamp is set to now;
// an unknown Kind is derived from Err.
func Report(err *EngineError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	if err.Kind == KindUnknown {
		err.Kind = KindOf(err.Err)
	}
	getHandler().HandleError(err)
}

// ReportPanic sends a recovered panic to the global handler.
func ReportPanic(err *PanicError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	getHandler().HandlePanic(err)
}

// ReportRenderError sends a failed pass or effect to the global handler.
func ReportRenderError(err *RenderError) {
	if err == nil {
		return
	}
	if err.Timestamp.IsZero() {
		err.Timestamp = time.Now()
	}
	getHandler().HandleRenderError(err)
}

// Recover reports a panic raised below it. Use it deferred:
//
//	defer errors.Recover("engine.Loop.dispatch")
func Recover(op string) {
	if r := recover(); r != nil {
		reportRecovered(op, r)
	}
}

// RecoverWithCallback is Recover that also hands the reported error to
// callback.
func RecoverWithCallback(op string, callback func(err error)) {
	if r := recover(); r != nil {
		err := reportRecovered(op, r)
		if callback != nil {
			callback(err)
		}
	}
}

// reportRecovered reports hook misuse and invariant violations that escaped
// a pass as EngineErrors of their kind, and anything else as a PanicError.
func reportRecovered(op string, r any) error {
	stack := CaptureStack()
	if err, ok := r.(error); ok {
		if kind := KindOf(err); kind == KindHook || kind == KindInvariant {
			ee := &EngineError{Op: op, Kind: kind, Err: err, StackTrace: stack}
			Report(ee)
			return ee
		}
	}
	pe := &PanicError{Op: op, Value: r, StackTrace: stack}
	ReportPanic(pe)
	return pe
}

// CaptureStack returns the calling goroutine's stack, one function and
// file:line pair per frame. Frames of the panic machinery and of the
// recovery helpers in this file are left out.
func CaptureStack() string {
	pcs := make([]uintptr, 48)
	n := runtime.Callers(2, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	var sb strings.Builder
	for {
		frame, more := frames.Next()
		if !recoveryFrame(frame.Function) {
			fmt.Fprintf(&sb, "%s\n\t%s:%d\n", frame.Function, frame.File, frame.Line)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

var recoveryFuncs = []string{"CaptureStack", "Recover", "RecoverWithCallback", "reportRecovered"}

func recoveryFrame(fn string) bool {
	if strings.HasPrefix(fn, "runtime.") {
		return true
	}
	pkg, name, ok := strings.Cut(fn, "/pkg/errors.")
	if !ok || pkg == "" {
		return false
	}
	return slices.Contains(recoveryFuncs, name)
}
