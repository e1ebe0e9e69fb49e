// Package promise implements Dana's eager-resolve async primitive (spec
// §4.10, §5): a Promise wraps a nullary computation that runs off the
// interpreter's goroutine on a small worker pool, grounded on the teacher's
// errgroup-based parallel-agent fan-out
// (workflowagent.runParallel in the retrieval pack), adapted here from
// "run N sub-agents and fan results back through a channel" to "run one
// deferred computation and deliver its single result."
package promise

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"
)

// State is one of the three points in a Promise's one-shot lifecycle.
type State int

const (
	Pending State = iota
	Resolved
	Failed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Promise wraps a nullary computation whose execution has been handed off
// to a Pool. Label is a short human-readable tag ("reason", "chat", ...)
// used by DisplayInfo.
type Promise struct {
	Label string

	mu       sync.Mutex
	state    State
	value    string
	err      error
	done     chan struct{}
	onResolved []func(string)

	group  singleflight.Group
	groupKey string
}

// New constructs a pending Promise around fn and submits it to pool for
// execution. fn runs on the pool's worker goroutine(s), never on the
// caller's goroutine, matching spec §5's "separate cooperative task or
// worker thread" requirement.
func New(pool *Pool, label string, fn func() (string, error)) *Promise {
	p := &Promise{
		Label:    label,
		done:     make(chan struct{}),
		groupKey: label,
	}
	pool.submit(func() {
		v, err := fn()
		p.deliver(v, err)
	})
	return p
}

// NewResolved constructs an already-resolved Promise, used by tests and by
// default methods (§G) that produce a value without a background hop.
func NewResolved(label, value string) *Promise {
	p := &Promise{Label: label, done: make(chan struct{})}
	p.deliver(value, nil)
	return p
}

// NewFailed constructs an already-failed Promise.
func NewFailed(label string, err error) *Promise {
	p := &Promise{Label: label, done: make(chan struct{})}
	p.deliver("", err)
	return p
}

func (p *Promise) deliver(value string, err error) {
	p.mu.Lock()
	if p.state != Pending {
		p.mu.Unlock()
		return // one-shot: a second delivery is a no-op
	}
	p.value = value
	p.err = err
	if err != nil {
		p.state = Failed
	} else {
		p.state = Resolved
	}
	callbacks := p.onResolved
	p.onResolved = nil
	p.mu.Unlock()
	close(p.done)

	if err == nil {
		for _, cb := range callbacks {
			cb(value)
		}
	}
}

// Resolve blocks until the Promise reaches a terminal state and returns its
// value, or the error it failed with. Concurrent callers collapse onto a
// single wait via singleflight, since resolve() and a delivery callback can
// race to force the same pending Promise (spec §5).
func (p *Promise) Resolve() (string, error) {
	_, err, _ := p.group.Do(p.groupKey, func() (any, error) {
		<-p.done
		return nil, nil
	})
	if err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value, p.err
}

// AddOnDeliveryCallback schedules cb(value) to run once the Promise
// resolves successfully. If it has already resolved, cb runs immediately,
// synchronously, on the calling goroutine. Failed promises never invoke cb.
func (p *Promise) AddOnDeliveryCallback(cb func(value string)) {
	p.mu.Lock()
	if p.state == Pending {
		p.onResolved = append(p.onResolved, cb)
		p.mu.Unlock()
		return
	}
	state, value := p.state, p.value
	p.mu.Unlock()
	if state == Resolved {
		cb(value)
	}
}

// GetState reports the Promise's current state without blocking.
func (p *Promise) GetState() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// DisplayInfo is the non-blocking short description the REPL prints for a
// pending Promise, e.g. "<Promise[reason] pending>".
func (p *Promise) DisplayInfo() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return fmt.Sprintf("<Promise[%s] %s>", p.Label, p.state)
}

// String forces resolution, matching __str__'s spec'd behavior of
// resolve-then-string-coerce. Resolution failures render inline rather than
// panicking, since String must satisfy fmt.Stringer.
func (p *Promise) String() string {
	v, err := p.Resolve()
	if err != nil {
		return fmt.Sprintf("<Promise[%s] failed: %s>", p.Label, err)
	}
	return v
}
