package refresh

import (
	"time"

	"github.com/jrsteele09/go-auth-client/credentials"
)

type Phase int

const (
	Idle Phase = iota
	Refreshing
)

func (p Phase) String() string {
	if p == Refreshing {
		return "refreshing"
	}
	return "idle"
}

// State is a snapshot of the coordinator. CycleID and Waiters are only set
// while Refreshing.
type State struct {
	Phase   Phase
	CycleID string
	Waiters int
}

// Result is the outcome every waiter of one cycle receives.
type Result struct {
	Credential credentials.Credential
	Err        error
}

// Waiter is a caller blocked on an in-flight refresh.
type Waiter struct {
	ID       string
	Enqueued time.Time
	cycle    *cycle
}

type cycle struct {
	id      string
	epoch   uint64
	started time.Time
	waiters []*Waiter
	done    chan struct{}
	result  Result
}

func (cy *cycle) remove(w *Waiter) {
	for i, queued := range cy.waiters {
		if queued == w {
			cy.waiters = append(cy.waiters[:i], cy.waiters[i+1:]...)
			return
		}
	}
}
