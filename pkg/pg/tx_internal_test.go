package pg

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantconn/pkg/datasource"
)

// recordingTx implements the parts of pgx.Tx that InTx drives.
type recordingTx struct {
	pgx.Tx

	mu      sync.Mutex
	entries []string
	closed  bool
}

func (tx *recordingTx) Commit(context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	tx.entries = append(tx.entries, "commit")
	return nil
}

func (tx *recordingTx) Rollback(context.Context) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	if tx.closed {
		return pgx.ErrTxClosed
	}
	tx.closed = true
	tx.entries = append(tx.entries, "rollback")
	return nil
}

func (tx *recordingTx) list() []string {
	tx.mu.Lock()
	defer tx.mu.Unlock()
	return append([]string(nil), tx.entries...)
}

type fakeBeginner struct {
	tx       *recordingTx
	failures int
	err      error

	begins int
	opts   pgx.TxOptions
}

func (b *fakeBeginner) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	b.begins++
	if b.begins <= b.failures {
		return nil, b.err
	}
	b.opts = opts
	return b.tx, nil
}

func TestInTxCommitsOnSuccess(t *testing.T) {
	t.Parallel()

	db := &fakeBeginner{tx: &recordingTx{}}
	opts := datasource.TxOptions{IsolationLevel: datasource.LevelRepeatableRead}

	err := inTx(context.Background(), db, opts, func(_ context.Context, tx any) error {
		assert.Same(t, db.tx, tx)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"commit"}, db.tx.list())
	assert.Equal(t, pgx.RepeatableRead, db.opts.IsoLevel)
}

func TestInTxRollsBackAndReturnsCallbackError(t *testing.T) {
	t.Parallel()

	db := &fakeBeginner{tx: &recordingTx{}}
	boom := errors.New("constraint violated")

	calls := 0
	err := inTx(context.Background(), db, datasource.TxOptions{MaxRetries: 2}, func(context.Context, any) error {
		calls++
		return boom
	})

	assert.Same(t, boom, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, db.begins)
	assert.Equal(t, []string{"rollback"}, db.tx.list())
}

func TestInTxRollsBackOnPanic(t *testing.T) {
	t.Parallel()

	db := &fakeBeginner{tx: &recordingTx{}}

	assert.Panics(t, func() {
		_ = inTx(context.Background(), db, datasource.TxOptions{}, func(context.Context, any) error {
			panic("unexpected state")
		})
	})
	assert.Equal(t, []string{"rollback"}, db.tx.list())
}

func TestInTxRetriesOnlyBegin(t *testing.T) {
	t.Parallel()

	refused := errors.New("too many clients")

	t.Run("begin succeeds within retries", func(t *testing.T) {
		t.Parallel()

		db := &fakeBeginner{tx: &recordingTx{}, failures: 2, err: refused}
		require.NoError(t, inTx(context.Background(), db, datasource.TxOptions{MaxRetries: 2}, func(context.Context, any) error {
			return nil
		}))
		assert.Equal(t, 3, db.begins)
		assert.Equal(t, []string{"commit"}, db.tx.list())
	})

	t.Run("retries exhausted", func(t *testing.T) {
		t.Parallel()

		db := &fakeBeginner{tx: &recordingTx{}, failures: 3, err: refused}
		err := inTx(context.Background(), db, datasource.TxOptions{MaxRetries: 2}, func(context.Context, any) error {
			t.Error("callback must not run")
			return nil
		})
		assert.ErrorIs(t, err, refused)
		assert.Equal(t, 3, db.begins)
		assert.Empty(t, db.tx.list())
	})
}

func TestInTxTimeoutRollsBack(t *testing.T) {
	t.Parallel()

	db := &fakeBeginner{tx: &recordingTx{}}

	err := inTx(context.Background(), db, datasource.TxOptions{Timeout: 20 * time.Millisecond}, func(ctx context.Context, _ any) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"rollback"}, db.tx.list())
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthcheck(t *testing.T) {
	t.Parallel()

	check := healthcheck(pingFunc(func(context.Context) error { return nil }))
	assert.NoError(t, check(context.Background()))

	down := errors.New("connection refused")
	check = healthcheck(pingFunc(func(context.Context) error { return down }))
	err := check(context.Background())
	assert.ErrorIs(t, err, ErrHealthcheckFailed)
	assert.ErrorIs(t, err, down)
}
