package core

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/go-drift/ripple/pkg/errors"
	"github.com/go-drift/ripple/pkg/host"
)

func counter(initCalls *int) Component {
	return func(Props) Node {
		count, setCount := UseStateFunc(func() int {
			*initCalls++
			return 1
		})
		return h("div", nil,
			h("p", Props{"data-testid": "count"}, count),
			h("button", Props{
				"data-testid": "inc",
				"onClick": func(*host.Event) {
					setCount.Update(func(c int) int { return c + 1 })
				},
			}),
		)
	}
}

func TestUseStateFunc_InitializesLazily(t *testing.T) {
	inits := 0
	root := mount(t, h(counter(&inits), nil))

	if inits != 1 {
		t.Fatalf("init ran %d times, want 1", inits)
	}
	if got := byTestID(t, root, "count").TextContent(); got != "1" {
		t.Errorf("count = %q, want %q", got, "1")
	}

	click(t, root, "inc")
	if inits != 1 {
		t.Errorf("init ran %d times after update, want 1", inits)
	}
	if got := byTestID(t, root, "count").TextContent(); got != "2" {
		t.Errorf("count = %q, want %q", got, "2")
	}
}

func TestUseState_Updates(t *testing.T) {
	StateTest := func(Props) Node {
		count, setCount := UseState(0)
		return h("div", nil,
			h("p", Props{"data-testid": "count"}, count),
			h("button", Props{
				"data-testid": "inc",
				"onClick": func(*host.Event) {
					setCount.Update(func(c int) int { return c + 1 })
				},
			}),
		)
	}
	root := mount(t, h(StateTest, nil))
	if got := byTestID(t, root, "count").TextContent(); got != "0" {
		t.Fatalf("count = %q, want %q", got, "0")
	}
	click(t, root, "inc")
	click(t, root, "inc")
	if got := byTestID(t, root, "count").TextContent(); got != "2" {
		t.Errorf("count = %q, want %q", got, "2")
	}
}

func TestUseState_SetterIdentityIsStable(t *testing.T) {
	var setters []*Setter[string]
	Comp := func(Props) Node {
		v, set := UseState("x")
		setters = append(setters, set)
		return v
	}
	root := mount(t, h(Comp, nil))
	setters[0].Set("y")
	setters[0].Set("z")

	if len(setters) != 3 {
		t.Fatalf("rendered %d times, want 3", len(setters))
	}
	for i, s := range setters {
		if s != setters[0] {
			t.Errorf("setter of pass %d differs from the first", i)
		}
	}
	assertHTML(t, root, "z")
}

func TestUseState_QueuedUpdatesApplyInOrder(t *testing.T) {
	m := &manual{}
	var set *Setter[[]string]
	Comp := func(Props) Node {
		v, s := UseState([]string{})
		set = s
		return len(v)
	}
	container := mountManual(t, m, h(Comp, nil))
	m.flush()

	set.Update(func(v []string) []string { return append(v, "a") })
	set.Update(func(v []string) []string { return append(v, "b") })
	if len(m.queue) != 1 {
		t.Fatalf("queued ticks = %d, want 1", len(m.queue))
	}
	m.flush()
	assertHTML(t, container, "2")
}

func TestSetterAfterUnmountIsNoop(t *testing.T) {
	var set *Setter[int]
	renders := 0
	Comp := func(Props) Node {
		v, s := UseState(0)
		set = s
		renders++
		return v
	}
	container := mount(t, h(Comp, nil))
	Unmount(container)

	set.Set(5)
	if renders != 1 {
		t.Errorf("renders = %d, want 1", renders)
	}
	assertHTML(t, container, "")
}

func TestUseMemo(t *testing.T) {
	computed := 0
	MemoTest := func(Props) Node {
		value, setValue := UseState(0)
		_, setOther := UseState(0)
		double := UseMemo(func() int {
			computed++
			return value * 2
		}, Deps(value))
		return h(Fragment, nil,
			h("p", Props{"data-testid": "double"}, double),
			h("button", Props{"data-testid": "inc-value", "onClick": func(*host.Event) {
				setValue.Update(func(v int) int { return v + 1 })
			}}),
			h("button", Props{"data-testid": "inc-other-value", "onClick": func(*host.Event) {
				setOther.Update(func(v int) int { return v + 1 })
			}}),
		)
	}
	root := mount(t, h(MemoTest, nil))

	steps := []struct {
		click    string
		computed int
		double   string
	}{
		{"", 1, "0"},
		{"inc-value", 2, "2"},
		{"inc-other-value", 2, "2"},
		{"inc-value", 3, "4"},
	}
	for _, step := range steps {
		if step.click != "" {
			click(t, root, step.click)
		}
		if computed != step.computed {
			t.Errorf("after %q: computed %d times, want %d", step.click, computed, step.computed)
		}
		if got := byTestID(t, root, "double").TextContent(); got != step.double {
			t.Errorf("after %q: double = %q, want %q", step.click, got, step.double)
		}
	}
}

func TestUseCallback(t *testing.T) {
	derived := 0
	CallbackTest := func(Props) Node {
		value, setValue := UseState(0)
		_, setOther := UseState(0)
		cb := UseCallback(func() int { return value }, Deps(value))
		UseMemo(func() func() int {
			derived++
			return cb
		}, Deps(cb))
		return h(Fragment, nil,
			h("button", Props{"data-testid": "inc-value", "onClick": func(*host.Event) {
				setValue.Update(func(v int) int { return v + 1 })
			}}),
			h("button", Props{"data-testid": "inc-other-value", "onClick": func(*host.Event) {
				setOther.Update(func(v int) int { return v + 1 })
			}}),
		)
	}
	root := mount(t, h(CallbackTest, nil))

	for _, step := range []struct {
		click string
		want  int
	}{
		{"", 1},
		{"inc-value", 2},
		{"inc-other-value", 2},
		{"inc-value", 3},
	} {
		if step.click != "" {
			click(t, root, step.click)
		}
		if derived != step.want {
			t.Errorf("after %q: derived %d times, want %d", step.click, derived, step.want)
		}
	}
}

func lifecycle(s *spy, deps func(state int) []any) Component {
	return func(Props) Node {
		state, setState := UseState(0)
		UseEffect(func() func() {
			s.record("setup")
			return func() { s.record("cleanup") }
		}, deps(state))
		return h("button", Props{
			"data-testid": "set-state",
			"onClick": func(*host.Event) {
				setState.Update(func(v int) int { return v + 1 })
			},
		})
	}
}

func TestUseEffect(t *testing.T) {
	tests := []struct {
		name string
		deps func(state int) []any
		// calls after: mount, toggle on, force render, set state, toggle off
		want [][]string
	}{
		{
			name: "empty deps run on mount and unmount only",
			deps: func(int) []any { return Deps() },
			want: [][]string{
				nil,
				{"setup"},
				{"setup"},
				{"setup"},
				{"setup", "cleanup"},
			},
		},
		{
			name: "nil deps run after every commit",
			deps: func(int) []any { return nil },
			want: [][]string{
				nil,
				{"setup"},
				{"setup", "cleanup", "setup"},
				{"setup", "cleanup", "setup", "cleanup", "setup"},
				{"setup", "cleanup", "setup", "cleanup", "setup", "cleanup"},
			},
		},
		{
			name: "deps run when they change",
			deps: func(state int) []any { return Deps(state) },
			want: [][]string{
				nil,
				{"setup"},
				{"setup"},
				{"setup", "cleanup", "setup"},
				{"setup", "cleanup", "setup", "cleanup"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &spy{}
			Lifecycle := lifecycle(s, tt.deps)
			EffectTest := func(Props) Node {
				return h(Toggle, nil, h(Lifecycle, nil))
			}
			root := mount(t, h(EffectTest, nil))

			actions := []func(){
				func() {},
				func() { click(t, root, "toggle") },
				func() { click(t, root, "force-render") },
				func() { click(t, root, "set-state") },
				func() { click(t, root, "toggle") },
			}
			for i, act := range actions {
				act()
				if diff := cmp.Diff(tt.want[i], s.calls); diff != "" {
					t.Errorf("step %d calls mismatch (-want +got):\n%s", i, diff)
				}
			}
		})
	}
}

func TestUseEffect_CleanupReplacedByNil(t *testing.T) {
	s := &spy{}
	Comp := func(props Props) Node {
		n := props["n"].(int)
		UseEffect(func() func() {
			s.record("setup %d", n)
			if n == 0 {
				return func() { s.record("cleanup %d", n) }
			}
			return nil
		}, Deps(n))
		return n
	}
	container := mount(t, h(Comp, Props{"n": 0}))
	Render(h(Comp, Props{"n": 1}), container)
	Unmount(container)

	want := []string{"setup 0", "cleanup 0", "setup 1"}
	if diff := cmp.Diff(want, s.calls); diff != "" {
		t.Errorf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestUnmountRunsCleanupsInPreOrder(t *testing.T) {
	s := &spy{}
	Leaf := func(props Props) Node {
		name := props["name"].(string)
		UseEffect(func() func() {
			return func() { s.record("%s", name) }
		}, Deps())
		return nil
	}
	Parent := func(Props) Node {
		UseEffect(func() func() {
			return func() { s.record("parent") }
		}, Deps())
		return h("div", nil, h(Leaf, Props{"name": "first"}), h(Leaf, Props{"name": "second"}))
	}
	container := mount(t, h(Parent, nil))
	Unmount(container)

	if diff := cmp.Diff([]string{"parent", "first", "second"}, s.calls); diff != "" {
		t.Errorf("cleanup order mismatch (-want +got):\n%s", diff)
	}
	if Mounted(container) {
		t.Error("container should have no render state after Unmount")
	}
}

func TestEffectPanicDoesNotStopOtherEffects(t *testing.T) {
	errs := captureErrors(t)
	ran := false
	Comp := func(Props) Node {
		UseEffect(func() func() { panic("effect failed") }, Deps())
		UseEffect(func() func() { ran = true; return nil }, Deps())
		return "ok"
	}
	root := mount(t, h(Comp, nil))

	if !ran {
		t.Error("second effect should run")
	}
	assertHTML(t, root, "ok")
	if len(*errs) != 1 || (*errs)[0].Phase != "commit" {
		t.Fatalf("reported errors = %v, want one commit error", *errs)
	}
}

func TestHookOutsideRenderPanics(t *testing.T) {
	defer func() {
		r := recover()
		err, ok := r.(*errors.HookError)
		if !ok {
			t.Fatalf("recovered %T, want *errors.HookError", r)
		}
		if !errors.Is(err, errors.ErrNoActivePass) {
			t.Errorf("err = %v, want ErrNoActivePass", err)
		}
	}()
	UseState(0)
}

func TestHookOrderChangeAbortsPass(t *testing.T) {
	errs := captureErrors(t)
	rec := &recorder{}
	Comp := func(props Props) Node {
		if props["swap"] == true {
			UseMemo(func() int { return 1 }, Deps())
		} else {
			UseState(0)
		}
		return "content"
	}
	container := mount(t, h(Comp, nil), WithObserver(rec))
	Render(h(Comp, Props{"swap": true}), container)

	if len(*errs) != 1 {
		t.Fatalf("reported %d errors, want 1", len(*errs))
	}
	if !errors.Is((*errs)[0], errors.ErrHookOrder) {
		t.Errorf("err = %v, want ErrHookOrder", (*errs)[0])
	}
	if len(rec.aborted) != 1 {
		t.Errorf("aborted passes = %d, want 1", len(rec.aborted))
	}
	assertHTML(t, container, "content")
}

func TestFewerHooksAbortsPass(t *testing.T) {
	errs := captureErrors(t)
	Comp := func(props Props) Node {
		UseState(0)
		if props["more"] == true {
			UseState(1)
		}
		return nil
	}
	container := mount(t, h(Comp, Props{"more": true}))
	Render(h(Comp, nil), container)

	if len(*errs) != 1 || !errors.Is((*errs)[0], errors.ErrHookOrder) {
		t.Errorf("reported errors = %v, want one ErrHookOrder", *errs)
	}
}

func TestDepsIsNeverNil(t *testing.T) {
	if Deps() == nil {
		t.Error("Deps() should return an empty, non-nil list")
	}
	if got := Deps(1, "a"); len(got) != 2 {
		t.Errorf("len(Deps(1, \"a\")) = %d, want 2", len(got))
	}
}
