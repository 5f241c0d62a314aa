//go:build !wasm

package core

import (
	"sync"

	"github.com/petermattis/goid"
)

// activeSessions holds, per goroutine, the session whose component is running.
var activeSessions sync.Map

func activeSession() *session {
	if s, ok := activeSessions.Load(goid.Get()); ok {
		return s.(*session)
	}
	return nil
}

// activate marks s as activeSessions on the calling goroutine and returns a
// function restoring the previous state.
func activate(s *session) func() {
	gid := goid.Get()
	prev, hadPrev := activeSessions.Load(gid)
	activeSessions.Store(gid, s)
	return func() {
		if hadPrev {
			activeSessions.Store(gid, prev)
		} else {
			activeSessions.Delete(gid)
		}
	}
}
