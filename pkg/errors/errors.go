// Package errors provides structured error handling for the ripple engine.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorKind identifies the category of an error.
type ErrorKind int

const (
	// KindUnknown indicates an error of unknown type.
	KindUnknown ErrorKind = iota
	// KindHook indicates a hook was used outside a render pass or out of order.
	KindHook
	// KindInvariant indicates the engine reached a state it cannot handle.
	KindInvariant
	// KindPanic indicates a recovered panic.
	KindPanic
	// KindRender indicates a failed render pass.
	KindRender
	// KindConfig indicates an invalid configuration value.
	KindConfig
)

func (k ErrorKind) String() string {
	switch k {
	case KindHook:
		return "hook"
	case KindInvariant:
		return "invariant"
	case KindPanic:
		return "panic"
	case KindRender:
		return "render"
	case KindConfig:
		return "config"
	default:
		return "unknown"
	}
}

var (
	// ErrNoActivePass is wrapped by HookError when a hook runs outside a
	// function component invocation.
	ErrNoActivePass = stderrors.New("no active render pass")
	// ErrHookOrder is wrapped by HookError when a hook slot holds a record of
	// another kind or value type, which means hook call order changed.
	ErrHookOrder = stderrors.New("hook order changed between renders")
	// ErrUnsupportedNode is wrapped by InvariantError when a child value
	// cannot be turned into a work node.
	ErrUnsupportedNode = stderrors.New("unsupported node value")
)

// EngineError represents a structured error in the ripple engine.
type EngineError struct {
	// Op is the operation that failed (e.g., "config.Load").
	Op string
	// Kind categorizes the error.
	Kind ErrorKind
	// Err is the underlying error.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("%s [%s]: %v", e.Op, e.Kind, e.Err)
}

func (e *EngineError) Unwrap() error {
	return e.Err
}

// PanicError represents a recovered panic.
type PanicError struct {
	// Op is the operation that panicked (e.g., "core.workLoop").
	Op string
	// Value is the value passed to panic().
	Value any
	// StackTrace contains the call stack at the time of the panic.
	StackTrace string
	// Timestamp is when the panic occurred.
	Timestamp time.Time
}

func (e *PanicError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("panic in %s: %v", e.Op, e.Value)
	}
	return fmt.Sprintf("panic: %v", e.Value)
}

// HookError reports misuse of a hook. It is raised with panic and aborts the
// render pass.
type HookError struct {
	// Hook is the hook function name ("UseState", "UseEffect", ...).
	Hook string
	// Slot is the call-order index of the hook, or -1 when unknown.
	Slot int
	// Reason adds detail to Err.
	Reason string
	// Err is ErrNoActivePass or ErrHookOrder.
	Err error
}

func (e *HookError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Hook, e.Err)
	if e.Slot >= 0 {
		msg = fmt.Sprintf("%s (slot %d): %v", e.Hook, e.Slot, e.Err)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *HookError) Unwrap() error {
	return e.Err
}

// InvariantError reports an engine state that should be unreachable.
type InvariantError struct {
	Op     string
	Detail string
	Err    error
}

func (e *InvariantError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invariant violated in %s: %s: %v", e.Op, e.Detail, e.Err)
	}
	return fmt.Sprintf("invariant violated in %s: %s", e.Op, e.Detail)
}

func (e *InvariantError) Unwrap() error {
	return e.Err
}

// Invariant builds an InvariantError with a formatted detail.
func Invariant(op, format string, args ...any) *InvariantError {
	return &InvariantError{Op: op, Detail: fmt.Sprintf(format, args...)}
}

// RenderError represents a failure during a render pass.
type RenderError struct {
	// Component names the function component or host tag being processed.
	Component string
	// Phase is "reconcile" or "commit".
	Phase string
	// Recovered is the panic value (nil for regular errors).
	Recovered any
	// Err is the underlying error. When the recovered value is an error it is
	// stored here as well.
	Err error
	// StackTrace contains the call stack at the time of the error.
	StackTrace string
	// Timestamp is when the error occurred.
	Timestamp time.Time
}

func (e *RenderError) Error() string {
	if e.Recovered != nil {
		return fmt.Sprintf("panic during %s of %s: %v", e.Phase, e.Component, e.Recovered)
	}
	if e.Err != nil {
		return fmt.Sprintf("error during %s of %s: %v", e.Phase, e.Component, e.Err)
	}
	return fmt.Sprintf("unknown error during %s of %s", e.Phase, e.Component)
}

func (e *RenderError) Unwrap() error {
	return e.Err
}

// Kind reports KindHook or KindInvariant when the pass failed on hook misuse
// or an engine invariant, KindPanic for other panics and KindRender
// otherwise.
func (e *RenderError) Kind() ErrorKind {
	switch k := KindOf(e.Err); k {
	case KindHook, KindInvariant:
		return k
	}
	if e.Recovered != nil {
		return KindPanic
	}
	return KindRender
}

// ErrorHandler receives errors reported by the engine.
type ErrorHandler interface {
	// HandleError is called when an error occurs.
	HandleError(err *EngineError)
	// HandlePanic is called when a panic is recovered.
	HandlePanic(err *PanicError)
	// HandleRenderError is called when a render pass is aborted or an effect
	// fails during commit.
	HandleRenderError(err *RenderError)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's tree that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }
