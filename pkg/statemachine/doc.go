// Package statemachine is a small finite state machine used to drive
// lifecycles with a fixed set of states, such as a tenant transaction handle
// moving from idle through active to committed or rolled back.
//
// States and events are anything with a Name. Transitions are declared once
// at construction:
//
//	const (
//	    Idle   = statemachine.StringState("idle")
//	    Active = statemachine.StringState("active")
//	    Open   = statemachine.StringEvent("open")
//	)
//
//	m := statemachine.MustNew(Idle,
//	    statemachine.WithTransition(Idle, Active, Open,
//	        statemachine.WithAction(onOpen),
//	    ),
//	)
//	err := m.Fire(ctx, Open, payload)
//
// Actions run in order before the state changes. An action error leaves the
// machine where it was. Firing an event with no transition from the current
// state returns *ErrNoTransitionAvailable.
//
// Machine is safe for concurrent use.
package statemachine
