//go:build !(js && wasm)

package core

func hostScheduler() Scheduler {
	return Synchronous
}
