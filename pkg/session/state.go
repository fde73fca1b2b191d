// Package session owns the per-call state: the guarded lifecycle state
// machine, the worker that serializes channel events, and the turn pipeline
// that runs transcription, dialogue and synthesis in strict order.
package session

import (
	"fmt"
	"sync"
)

type State int

const (
	StateInit State = iota
	StateListening
	StateProcessing
	StateSpeaking
	StateFinalized
)

// String returns the string representation of a State
func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateListening:
		return "LISTENING"
	case StateProcessing:
		return "PROCESSING"
	case StateSpeaking:
		return "SPEAKING"
	case StateFinalized:
		return "FINALIZED"
	default:
		return "UNKNOWN"
	}
}

// InvalidTransitionError represents an invalid state transition attempt
type InvalidTransitionError struct {
	From State
	To   State
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid state transition from %s to %s", e.From, e.To)
}

// stateMachine is the lifecycle guard shared between the worker and the
// in-flight turn goroutine. Entering PROCESSING is only legal from
// LISTENING, which makes a second concurrent turn structurally impossible.
type stateMachine struct {
	mu      sync.RWMutex
	current State
}

func newStateMachine() *stateMachine {
	return &stateMachine{current: StateInit}
}

func (sm *stateMachine) State() State {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current
}

// transitionValid checks if a state transition is valid (must be called with lock held).
func (sm *stateMachine) transitionValid(from, to State) bool {
	validTransitions := map[State][]State{
		StateInit:       {StateListening, StateFinalized},
		StateListening:  {StateProcessing, StateFinalized},
		StateProcessing: {StateSpeaking, StateListening, StateFinalized},
		StateSpeaking:   {StateListening, StateFinalized},
		StateFinalized:  {},
	}
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Transition moves to a new state with validation.
func (sm *stateMachine) Transition(to State) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	if !sm.transitionValid(sm.current, to) {
		return &InvalidTransitionError{From: sm.current, To: to}
	}
	sm.current = to
	return nil
}
