package core

import (
	"fmt"

	"github.com/go-drift/ripple/internal/ident"
	"github.com/go-drift/ripple/pkg/errors"
)

// hook is one slot in a function component's hook list.
type hook interface {
	hookName() string
}

type stateHook[T any] struct {
	value   T
	pending []func(T) T
	setter  *Setter[T]
	pass    uint64
}

func (*stateHook[T]) hookName() string { return "state" }

type memoHook[T any] struct {
	value T
	deps  []any
}

func (*memoHook[T]) hookName() string { return "memo" }

type effectHook struct {
	setup   func() func()
	cleanup func()
	// deps the setup last ran with, and deps of the latest pass.
	deps     []any
	nextDeps []any
	ran      bool
	due      bool
}

func (*effectHook) hookName() string { return "effect" }

// Deps builds a dependency list. Deps() is the empty list: the effect or
// memo runs once. A nil list makes UseEffect run after every pass.
func Deps(values ...any) []any {
	if values == nil {
		return []any{}
	}
	return values
}

// nextSlot advances the hook cursor of the component being rendered.
func nextSlot(name string) (*session, *workNode, int) {
	s := activeSession()
	if s == nil || s.rendering == nil {
		panic(&errors.HookError{Hook: name, Slot: -1, Err: errors.ErrNoActivePass})
	}
	s.hookIndex++
	return s, s.rendering, s.hookIndex
}

func slotMismatch(name string, slot int, got hook) *errors.HookError {
	return &errors.HookError{
		Hook:   name,
		Slot:   slot,
		Reason: fmt.Sprintf("slot holds a %s hook (%T)", got.hookName(), got),
		Err:    errors.ErrHookOrder,
	}
}

// Setter updates a state hook and schedules a pass. A Setter stays valid,
// and keeps its identity, for the lifetime of the component.
type Setter[T any] struct {
	hook    *stateHook[T]
	session *session
}

// Set replaces the state value.
func (s *Setter[T]) Set(value T) {
	s.Update(func(T) T { return value })
}

// Update queues fn to derive the next state value from the current one.
// Queued updates are applied in order on the component's next invocation.
func (s *Setter[T]) Update(fn func(T) T) {
	if s.session.closed {
		return
	}
	s.hook.pending = append(s.hook.pending, fn)
	s.session.requestStateUpdate(s.hook.pass)
}

// UseState returns the component's state value for this slot and its
// setter. initial is used on the first invocation only.
func UseState[T any](initial T) (T, *Setter[T]) {
	return useState("UseState", func() T { return initial })
}

// UseStateFunc is UseState with a lazily computed initial value. init runs
// on the first invocation only.
func UseStateFunc[T any](init func() T) (T, *Setter[T]) {
	return useState("UseStateFunc", init)
}

func useState[T any](name string, init func() T) (T, *Setter[T]) {
	s, n, i := nextSlot(name)
	if i == len(n.hooks) {
		h := &stateHook[T]{value: init(), pass: s.pass}
		h.setter = &Setter[T]{hook: h, session: s}
		n.hooks = append(n.hooks, h)
	}
	h, ok := n.hooks[i].(*stateHook[T])
	if !ok {
		panic(slotMismatch(name, i, n.hooks[i]))
	}
	for _, update := range h.pending {
		h.value = update(h.value)
	}
	h.pending = nil
	return h.value, h.setter
}

// UseMemo returns produce's result, recomputing it only when deps differ
// from the previous invocation in length or in the identity of any entry.
func UseMemo[T any](produce func() T, deps []any) T {
	return useMemo("UseMemo", produce, deps)
}

// UseCallback returns fn as it was when deps last changed, so the returned
// function keeps its identity across passes.
func UseCallback[F any](fn F, deps []any) F {
	return useMemo("UseCallback", func() F { return fn }, deps)
}

func useMemo[T any](name string, produce func() T, deps []any) T {
	_, n, i := nextSlot(name)
	if i == len(n.hooks) {
		h := &memoHook[T]{value: produce(), deps: deps}
		n.hooks = append(n.hooks, h)
		return h.value
	}
	h, ok := n.hooks[i].(*memoHook[T])
	if !ok {
		panic(slotMismatch(name, i, n.hooks[i]))
	}
	if !ident.SameSlice(h.deps, deps) {
		h.value = produce()
		h.deps = deps
	}
	return h.value
}

// UseEffect registers setup to run after the pass is committed. It runs
// after the first commit, then again whenever deps change (after running
// the previous cleanup). A nil deps list runs it after every commit;
// Deps() runs it once. The cleanup returned by setup, if any, also runs when
// the component is removed.
func UseEffect(setup func() func(), deps []any) {
	_, n, i := nextSlot("UseEffect")
	if i == len(n.hooks) {
		n.hooks = append(n.hooks, &effectHook{setup: setup, nextDeps: deps, due: true})
		return
	}
	h, ok := n.hooks[i].(*effectHook)
	if !ok {
		panic(slotMismatch("UseEffect", i, n.hooks[i]))
	}
	h.setup = setup
	h.nextDeps = deps
	h.due = !h.ran || deps == nil || !ident.SameSlice(h.deps, deps)
}
