// Package core implements ripple's incremental reconciliation engine.
//
// A UI is described by a tree of plain values: host elements ("div", "li"),
// function components, fragments, text, numbers and lists. The engine keeps
// a work tree mirroring the last description it committed, diffs each new
// description against it in small units of work, and then applies the
// minimal set of mutations to a host tree (see package host).
//
// # Describing a UI
//
// CreateElement builds elements. Components are plain functions of their
// props:
//
//	func Greeting(props core.Props) core.Node {
//	    return core.CreateElement("p", nil, "Hello, ", props["name"])
//	}
//
//	core.Render(core.CreateElement(Greeting, core.Props{"name": "Ada"}), container)
//
// Children may be strings, numbers, nil or bools (which render nothing),
// elements, or slices of any of those.
//
// # Hooks
//
// Function components keep state between passes through hooks, called in the
// same order on every invocation:
//
//	func Counter(core.Props) core.Node {
//	    count, setCount := core.UseState(0)
//	    inc := core.UseCallback(func(*host.Event) {
//	        setCount.Update(func(n int) int { return n + 1 })
//	    }, core.Deps())
//	    return core.CreateElement("button", core.Props{"onClick": inc}, count)
//	}
//
// UseMemo caches derived values and UseEffect runs setup functions after the
// pass that produced them has been committed.
//
// # Scheduling
//
// Reconciliation runs in ticks handed out by a Scheduler. Each tick
// processes work nodes while the Deadline reports remaining time and then asks
// for another tick; the mutation pass runs in a single tick once all nodes are
// processed. The default scheduler runs ticks synchronously (or on
// requestIdleCallback under js/wasm). SetScheduler replaces it process-wide
// and WithScheduler per container.
//
// # Threading
//
// The engine is single-threaded per container. Render, Unmount and state
// setters must be called from the goroutine that drives the container's
// scheduler.
package core
