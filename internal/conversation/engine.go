// Package conversation keeps per-user multi-step dialogs. State lives only in
// memory and is lost on restart.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bulletin/internal/observability"
)

// ErrNoConversation is returned by Advance when the user has no open dialog.
var ErrNoConversation = errors.New("no open conversation")

// Terminal commits a completed dialog. Its error is the dialog's outcome;
// the state is already discarded when it runs.
type Terminal func(ctx context.Context, st State) error

// Transition describes what one answer did.
type Transition struct {
	Flow Flow
	// Step is the next question; empty when Completed.
	Step      Step
	Completed bool
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

// Engine holds the open dialogs and serializes each user's answers.
type Engine struct {
	mu     sync.Mutex
	states map[int64]*State
	locks  map[int64]*userLock
}

// NewEngine returns an engine with no open dialogs.
func NewEngine() *Engine {
	return &Engine{
		states: make(map[int64]*State),
		locks:  make(map[int64]*userLock),
	}
}

func (e *Engine) lockUser(userID int64) func() {
	e.mu.Lock()
	l, ok := e.locks[userID]
	if !ok {
		l = &userLock{}
		e.locks[userID] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, userID)
		}
		e.mu.Unlock()
	}
}

// Start opens flow for userID, silently discarding any dialog already open.
// preset pre-fills answers, skipping their steps.
func (e *Engine) Start(userID int64, flow Flow, preset map[string]string) (State, error) {
	if !flow.Valid() {
		return State{}, fmt.Errorf("unknown flow %q", flow)
	}
	unlock := e.lockUser(userID)
	defer unlock()

	st := &State{UserID: userID, Flow: flow, Fields: make(map[string]string, len(preset))}
	for k, v := range preset {
		st.Fields[k] = v
	}
	spec, ok := nextStep(flow, st.Fields)
	if !ok {
		return State{}, fmt.Errorf("flow %q has nothing left to ask", flow)
	}
	st.Step = spec.step

	e.mu.Lock()
	_, replaced := e.states[userID]
	e.states[userID] = st
	e.gauge()
	e.mu.Unlock()

	outcome := "started"
	if replaced {
		outcome = "replaced"
	}
	observability.ConversationTransitions.WithLabelValues(string(flow), outcome).Inc()
	return st.clone(), nil
}

// Current returns a copy of the open dialog of userID.
func (e *Engine) Current(userID int64) (State, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	st, ok := e.states[userID]
	if !ok {
		return State{}, false
	}
	return st.clone(), true
}

// Cancel discards the open dialog, reporting whether there was one.
func (e *Engine) Cancel(userID int64) bool {
	unlock := e.lockUser(userID)
	defer unlock()

	e.mu.Lock()
	st, ok := e.states[userID]
	if ok {
		delete(e.states, userID)
		e.gauge()
	}
	e.mu.Unlock()

	if ok {
		observability.ConversationTransitions.WithLabelValues(string(st.Flow), "cancelled").Inc()
	}
	return ok
}

// Advance records input as the answer to the current step. After the last
// step the state is removed and finish runs while the user is still locked,
// so a duplicate answer sees no conversation instead of committing twice.
func (e *Engine) Advance(ctx context.Context, userID int64, input string, finish Terminal) (Transition, error) {
	unlock := e.lockUser(userID)
	defer unlock()

	e.mu.Lock()
	st, ok := e.states[userID]
	if !ok {
		e.mu.Unlock()
		return Transition{}, ErrNoConversation
	}
	field := fieldFor(st.Flow, st.Step)
	st.Fields[field] = capture(st.Step, input)

	spec, more := nextStep(st.Flow, st.Fields)
	if more {
		st.Step = spec.step
		e.mu.Unlock()
		observability.ConversationTransitions.WithLabelValues(string(st.Flow), "advanced").Inc()
		return Transition{Flow: st.Flow, Step: spec.step}, nil
	}

	done := st.clone()
	done.Step = ""
	delete(e.states, userID)
	e.gauge()
	e.mu.Unlock()

	err := finish(ctx, done)
	outcome := "completed"
	if err != nil {
		outcome = "failed"
	}
	observability.ConversationTransitions.WithLabelValues(string(done.Flow), outcome).Inc()
	return Transition{Flow: done.Flow, Completed: true}, err
}

// Open returns the number of open dialogs.
func (e *Engine) Open() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.states)
}

// gauge must be called with e.mu held.
func (e *Engine) gauge() {
	observability.ConversationsOpen.Set(float64(len(e.states)))
}
