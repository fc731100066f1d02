package statemachine_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantconn/pkg/statemachine"
)

const (
	idle   = statemachine.StringState("idle")
	active = statemachine.StringState("active")
	closed = statemachine.StringState("closed")

	open   = statemachine.StringEvent("open")
	finish = statemachine.StringEvent("close")
)

func TestFire(t *testing.T) {
	t.Parallel()

	m := statemachine.MustNew(idle,
		statemachine.WithTransition(idle, active, open),
		statemachine.WithTransition(active, closed, finish),
	)
	ctx := context.Background()

	assert.Equal(t, idle, m.Current())
	assert.True(t, m.CanFire(open))
	assert.False(t, m.CanFire(finish))

	require.NoError(t, m.Fire(ctx, open, nil))
	assert.Equal(t, active, m.Current())

	err := m.Fire(ctx, open, nil)
	assert.True(t, statemachine.IsNoTransitionAvailableError(err))
	var noTransition *statemachine.ErrNoTransitionAvailable
	require.ErrorAs(t, err, &noTransition)
	assert.Equal(t, "active", noTransition.StateName)
	assert.Equal(t, "open", noTransition.EventName)
	assert.Equal(t, active, m.Current())

	require.NoError(t, m.Fire(ctx, finish, nil))
	assert.Equal(t, closed, m.Current())
	assert.False(t, m.CanFire(open))

	assert.ErrorIs(t, m.Fire(ctx, nil, nil), statemachine.ErrInvalidEvent)
	assert.False(t, m.CanFire(nil))
}

func TestActions(t *testing.T) {
	t.Parallel()

	var seen []string
	record := func(_ context.Context, from, to statemachine.State, event statemachine.Event, data any) error {
		seen = append(seen, from.Name()+"->"+to.Name()+" on "+event.Name())
		assert.Equal(t, "payload", data)
		return nil
	}

	m := statemachine.MustNew(idle,
		statemachine.WithTransition(idle, active, open,
			statemachine.WithAction(record),
			statemachine.WithAction(nil),
		),
	)
	require.NoError(t, m.Fire(context.Background(), open, "payload"))
	assert.Equal(t, []string{"idle->active on open"}, seen)
}

func TestActionErrorKeepsState(t *testing.T) {
	t.Parallel()

	refused := errors.New("refused")
	m := statemachine.MustNew(idle,
		statemachine.WithTransition(idle, active, open,
			statemachine.WithAction(func(context.Context, statemachine.State, statemachine.State, statemachine.Event, any) error {
				return refused
			}),
		),
	)

	err := m.Fire(context.Background(), open, nil)
	assert.ErrorIs(t, err, refused)
	assert.Equal(t, idle, m.Current())
}

func TestNewValidatesTable(t *testing.T) {
	t.Parallel()

	_, err := statemachine.New(nil)
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

	_, err = statemachine.New(idle, statemachine.WithTransition(idle, nil, open))
	assert.ErrorIs(t, err, statemachine.ErrInvalidTransition)

	_, err = statemachine.New(idle,
		statemachine.WithTransition(idle, active, open),
		statemachine.WithTransition(idle, closed, open),
	)
	assert.ErrorIs(t, err, statemachine.ErrDuplicateTransition)

	assert.Panics(t, func() {
		statemachine.MustNew(idle, statemachine.WithTransition(nil, active, open))
	})
}
