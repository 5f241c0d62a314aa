//go:build wasm

package core

var active *session

func activeSession() *session {
	return active
}

func activate(s *session) func() {
	prev := active
	active = s
	return func() { active = prev }
}
