// Package testutil holds the shared fakes for orchestration tests: a
// scriptable oracle, a navigation recorder, and an in-memory portal backend
// speaking the real wire protocol.
package testutil

import (
	"context"
	"sync"

	"github.com/communication-ltd/portal-front/internal/session"
)

// FakeOracle returns a scripted outcome and counts probes. When Gate is
// set, Probe blocks until the gate channel is closed, which lets tests
// observe the pending state and race resolutions against Close.
type FakeOracle struct {
	Outcome session.Outcome
	Gate    chan struct{}

	mu    sync.Mutex
	calls int
}

func (o *FakeOracle) Probe(ctx context.Context) session.Outcome {
	o.mu.Lock()
	o.calls++
	o.mu.Unlock()

	if o.Gate != nil {
		select {
		case <-o.Gate:
		case <-ctx.Done():
			return session.Outcome{}
		}
	}
	return o.Outcome
}

// Calls reports how many times Probe ran.
func (o *FakeOracle) Calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.calls
}

// Navigation is one recorded navigation event.
type Navigation struct {
	Route    string
	Replaced bool
}

// NavRecorder records navigations instead of performing them.
type NavRecorder struct {
	mu     sync.Mutex
	events []Navigation
}

func (n *NavRecorder) Push(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, Navigation{Route: route})
}

func (n *NavRecorder) Replace(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, Navigation{Route: route, Replaced: true})
}

// Events returns a copy of everything recorded so far.
func (n *NavRecorder) Events() []Navigation {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]Navigation, len(n.events))
	copy(out, n.events)
	return out
}

// Last returns the most recent navigation, if any.
func (n *NavRecorder) Last() (Navigation, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return Navigation{}, false
	}
	return n.events[len(n.events)-1], true
}
