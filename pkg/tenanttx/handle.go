package tenanttx

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrymomot/tenantconn/pkg/datasource"
	"github.com/dmitrymomot/tenantconn/pkg/statemachine"
	"github.com/dmitrymomot/tenantconn/pkg/tenant"
)

// State is the lifecycle stage of a TxHandle.
type State int

const (
	StateIdle State = iota
	StateOpening
	StateActive
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateOpening:
		return "opening"
	case StateActive:
		return "active"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	}
	return "unknown"
}

// Name lets State drive a statemachine.Machine.
func (s State) Name() string { return s.String() }

const (
	eventBegin    = statemachine.StringEvent("begin")
	eventOpen     = statemachine.StringEvent("open")
	eventCommit   = statemachine.StringEvent("commit")
	eventRollback = statemachine.StringEvent("rollback")
)

// TxHandle is a tenant handle bound to an open transaction. The transaction
// is only reachable while the callback that received the handle runs.
type TxHandle struct {
	Handle *tenant.Handle

	lifecycle *statemachine.Machine

	mu sync.Mutex
	tx any
}

func newTxHandle(h *tenant.Handle) *TxHandle {
	t := &TxHandle{Handle: h}
	t.lifecycle = statemachine.MustNew(StateIdle,
		statemachine.WithTransition(StateIdle, StateOpening, eventBegin),
		statemachine.WithTransition(StateOpening, StateActive, eventOpen, statemachine.WithAction(t.bind)),
		statemachine.WithTransition(StateOpening, StateRolledBack, eventRollback),
		statemachine.WithTransition(StateActive, StateCommitted, eventCommit, statemachine.WithAction(t.unbind)),
		statemachine.WithTransition(StateActive, StateRolledBack, eventRollback, statemachine.WithAction(t.unbind)),
	)
	return t
}

// Descriptor returns the descriptor of the underlying handle.
func (t *TxHandle) Descriptor() datasource.Descriptor {
	return t.Handle.Descriptor
}

// Tx returns the engine transaction, or nil outside the active scope.
func (t *TxHandle) Tx() any {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tx
}

// State reports where the handle is in its lifecycle.
func (t *TxHandle) State() State {
	return t.lifecycle.Current().(State)
}

func (t *TxHandle) fire(ctx context.Context, event statemachine.Event, tx any) error {
	if err := t.lifecycle.Fire(ctx, event, tx); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidTransition, err)
	}
	return nil
}

func (t *TxHandle) bind(_ context.Context, _, _ statemachine.State, _ statemachine.Event, tx any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tx = tx
	return nil
}

func (t *TxHandle) unbind(context.Context, statemachine.State, statemachine.State, statemachine.Event, any) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tx = nil
	return nil
}

// TxAs returns the transaction as T, e.g. pgx.Tx, *sql.Tx or *mongo.Tx.
func TxAs[T any](h *TxHandle) (T, bool) {
	tx, ok := h.Tx().(T)
	return tx, ok
}

// ByCode finds the handle for a tenant code.
func ByCode(txs []*TxHandle, code string) (*TxHandle, bool) {
	for _, t := range txs {
		if t.Handle.Descriptor.TenantCode == code {
			return t, true
		}
	}
	return nil, false
}
