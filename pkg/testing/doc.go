// Package testing provides a component testing harness for Ripple.
//
// # Quick Start
//
// Create a tester, pump a description, and make assertions:
//
//	func TestCounter(t *testing.T) {
//	    tester := rippletest.NewTesterWithT(t)
//	    tester.PumpNode(core.CreateElement(Counter, nil))
//
//	    // Simulate events; each one settles the passes it triggers
//	    tester.Click(rippletest.ByTestID("increment"))
//
//	    // Assert on the host tree
//	    if tester.Find(rippletest.ByText("1")).Count() == 0 {
//	        t.Error("expected count 1")
//	    }
//	}
//
// # Scheduling
//
// The tester installs its own scheduler on the container: ticks are queued
// and only run inside Pump or PumpAndSettle. SetBudget together with
// Clock().AutoAdvance splits a pass across ticks deterministically, which
// makes it possible to observe a half-finished pass or to supersede one.
//
// # Snapshot Testing
//
// Capture and compare host tree snapshots:
//
//	snapshot := tester.CaptureSnapshot()
//	snapshot.MatchesFile(t, "testdata/counter.snapshot.yaml")
//
// Update snapshots with:
//
//	RIPPLE_UPDATE_SNAPSHOTS=1 go test ./...
//
// # Import Alias
//
// Since this package has the same name as the standard library testing
// package, import it with an alias:
//
//	import rippletest "github.com/go-drift/ripple/pkg/testing"
package testing
