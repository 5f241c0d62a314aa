package core

import (
	stderrors "errors"
	"time"

	"github.com/go-drift/ripple/pkg/host"
)

// ErrSuperseded is passed to Observer.PassAborted when an in-flight pass is
// discarded because a newer update arrived.
var ErrSuperseded = stderrors.New("pass superseded by a newer update")

// PassStats summarizes one committed pass.
type PassStats struct {
	// Units is the number of work nodes processed.
	Units int
	// Ticks is the number of scheduler ticks that processed units.
	Ticks int
	// Restarts counts updates that restarted the pass mid-reconcile.
	Restarts int

	Inserts int
	Updates int
	Removes int
	Moves   int

	Effects  int
	Cleanups int

	// Duration runs from the pass start to the end of its commit.
	Duration time.Duration
	// CommitDuration covers the mutation and effect phase only.
	CommitDuration time.Duration
}

// Observer receives pass lifecycle notifications. Methods run on the
// goroutine driving the container and must not block.
type Observer interface {
	PassStarted(container host.Element)
	PassCommitted(container host.Element, stats PassStats)
	PassAborted(container host.Element, err error)
}

// Observers fans notifications out to several observers in order.
type Observers []Observer

func (o Observers) PassStarted(container host.Element) {
	for _, obs := range o {
		obs.PassStarted(container)
	}
}

func (o Observers) PassCommitted(container host.Element, stats PassStats) {
	for _, obs := range o {
		obs.PassCommitted(container, stats)
	}
}

func (o Observers) PassAborted(container host.Element, err error) {
	for _, obs := range o {
		obs.PassAborted(container, err)
	}
}

type nopObserver struct{}

func (nopObserver) PassStarted(host.Element)              {}
func (nopObserver) PassCommitted(host.Element, PassStats) {}
func (nopObserver) PassAborted(host.Element, error)       {}
