package statemachine

import "fmt"

// Option configures a machine during construction.
type Option func(*Machine) error

// TransitionOption configures a single transition.
type TransitionOption func(*[]Action)

// New creates a machine in the initial state.
func New(initial State, opts ...Option) (*Machine, error) {
	if initial == nil {
		return nil, fmt.Errorf("%w: initial state cannot be nil", ErrInvalidTransition)
	}

	m := &Machine{
		current:     initial,
		transitions: make(map[string]map[string]transition),
	}
	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// MustNew is New for static transition tables. It panics on an invalid table.
func MustNew(initial State, opts ...Option) *Machine {
	m, err := New(initial, opts...)
	if err != nil {
		panic(fmt.Sprintf("failed to create state machine: %v", err))
	}
	return m
}

// WithTransition declares that event moves the machine from one state to another.
func WithTransition(from, to State, event Event, opts ...TransitionOption) Option {
	return func(m *Machine) error {
		var actions []Action
		for _, opt := range opts {
			opt(&actions)
		}
		return m.addTransition(from, to, event, actions)
	}
}

// WithAction attaches an action to a transition.
func WithAction(action Action) TransitionOption {
	return func(actions *[]Action) {
		if action != nil {
			*actions = append(*actions, action)
		}
	}
}
