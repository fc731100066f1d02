package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// State is a node of the machine.
type State interface {
	Name() string
}

// Event triggers a transition.
type Event interface {
	Name() string
}

// Action runs during a transition. Returning an error aborts it.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// StringState is a State backed by its name.
type StringState string

func (s StringState) Name() string { return string(s) }

// StringEvent is an Event backed by its name.
type StringEvent string

func (e StringEvent) Name() string { return string(e) }

type transition struct {
	to      State
	actions []Action
}

// Machine holds the current state and the transition table keyed by
// [from][event].
type Machine struct {
	mu          sync.RWMutex
	current     State
	transitions map[string]map[string]transition
}

func (m *Machine) addTransition(from, to State, event Event, actions []Action) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	byEvent, ok := m.transitions[from.Name()]
	if !ok {
		byEvent = make(map[string]transition)
		m.transitions[from.Name()] = byEvent
	}
	if _, ok := byEvent[event.Name()]; ok {
		return fmt.Errorf("%w: %s on %s", ErrDuplicateTransition, from.Name(), event.Name())
	}
	byEvent[event.Name()] = transition{to: to, actions: actions}
	return nil
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// CanFire reports whether event has a transition from the current state.
func (m *Machine) CanFire(event Event) bool {
	if event == nil {
		return false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.transitions[m.current.Name()][event.Name()]
	return ok
}

// Fire moves the machine along the transition declared for event, running
// its actions first. data is handed to every action.
func (m *Machine) Fire(ctx context.Context, event Event, data any) error {
	if event == nil {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.transitions[m.current.Name()][event.Name()]
	if !ok {
		return NewErrNoTransitionAvailable(m.current.Name(), event.Name())
	}

	for _, action := range t.actions {
		if err := action(ctx, m.current, t.to, event, data); err != nil {
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.current = t.to
	return nil
}
