package navigator

import (
	"context"
	"fmt"
	"slices"
)

// State is a position in the application flow.
type State string

const (
	AwaitingEntry State = "awaiting_entry"
	FillingStep   State = "filling_step"
	Advancing     State = "advancing"
	Submitted     State = "submitted"
	Aborted       State = "aborted"
)

func (s State) String() string {
	return string(s)
}

// Terminal reports whether no further transitions are possible from s.
func (s State) Terminal() bool {
	return s == Submitted || s == Aborted
}

var allowed = map[State][]State{
	AwaitingEntry: {FillingStep, Aborted},
	FillingStep:   {Advancing, Aborted},
	Advancing:     {FillingStep, Submitted, Aborted},
}

// GuardFunc runs before every transition except into Aborted.
type GuardFunc func(ctx context.Context) error

// Machine tracks the state of one application attempt.
type Machine struct {
	state    State
	history  []State
	steps    int
	maxSteps int
	guard    GuardFunc
}

// NewMachine starts in AwaitingEntry. maxSteps bounds how many times FillingStep
// may be entered; zero or less means unbounded. guard may be nil.
func NewMachine(maxSteps int, guard GuardFunc) *Machine {
	return &Machine{state: AwaitingEntry, history: []State{AwaitingEntry}, maxSteps: maxSteps, guard: guard}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Steps returns how many times FillingStep has been entered.
func (m *Machine) Steps() int {
	return m.steps
}

// History returns every state visited, in order.
func (m *Machine) History() []State {
	return append([]State(nil), m.history...)
}

// To moves the machine to next. The guard runs first; a guard failure leaves
// the state unchanged.
func (m *Machine) To(ctx context.Context, next State) error {
	if !slices.Contains(allowed[m.state], next) {
		return &TransitionError{From: m.state, To: next}
	}
	if next == FillingStep && m.maxSteps > 0 && m.steps >= m.maxSteps {
		return fmt.Errorf("%w: limit is %d", ErrTooManySteps, m.maxSteps)
	}
	if next != Aborted && m.guard != nil {
		if err := m.guard(ctx); err != nil {
			return err
		}
	}
	if next == FillingStep {
		m.steps++
	}
	m.state = next
	m.history = append(m.history, next)
	return nil
}

// Abort moves to Aborted from any non-terminal state. It reports whether the
// state changed.
func (m *Machine) Abort() bool {
	if m.state.Terminal() {
		return false
	}
	m.state = Aborted
	m.history = append(m.history, Aborted)
	return true
}
