//go:build js && wasm

package core

import (
	"syscall/js"
	"time"
)

// hostScheduler uses requestIdleCallback when the page provides it.
func hostScheduler() Scheduler {
	ric := js.Global().Get("requestIdleCallback")
	if ric.Type() != js.TypeFunction {
		return Synchronous
	}
	return func(callback func(Deadline)) {
		var fn js.Func
		fn = js.FuncOf(func(this js.Value, args []js.Value) any {
			fn.Release()
			callback(idleDeadline{v: args[0]})
			return nil
		})
		ric.Invoke(fn)
	}
}

type idleDeadline struct {
	v js.Value
}

func (d idleDeadline) TimeRemaining() time.Duration {
	ms := d.v.Call("timeRemaining").Float()
	return time.Duration(ms * float64(time.Millisecond))
}

func (d idleDeadline) DidTimeout() bool {
	return d.v.Get("didTimeout").Bool()
}
