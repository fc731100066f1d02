package mongo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantconn/pkg/datasource"
)

type sessionKey struct{}

// sessionLog records calls made against fake sessions, in order.
type sessionLog struct {
	mu       sync.Mutex
	entries  []string
	starts   int
	failures int
	err      error
}

func (l *sessionLog) add(entry string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
}

func (l *sessionLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.entries...)
}

type fakeSession struct{ log *sessionLog }

func (s fakeSession) begin() error                 { s.log.add("start"); return nil }
func (s fakeSession) commit(context.Context) error { s.log.add("commit"); return nil }
func (s fakeSession) abort(context.Context) error  { s.log.add("abort"); return nil }
func (s fakeSession) end(context.Context)          { s.log.add("end") }

func (l *sessionLog) starter() sessionStarter {
	return func(ctx context.Context) (txSession, context.Context, error) {
		l.mu.Lock()
		l.starts++
		fail := l.starts <= l.failures
		l.mu.Unlock()
		if fail {
			return nil, nil, l.err
		}
		return fakeSession{log: l}, context.WithValue(ctx, sessionKey{}, "session"), nil
	}
}

func TestInTxCommitsOnSuccess(t *testing.T) {
	t.Parallel()

	log := &sessionLog{}
	err := inTx(context.Background(), log.starter(), nil, datasource.TxOptions{}, func(ctx context.Context, tx any) error {
		mtx, ok := tx.(*Tx)
		require.True(t, ok)
		assert.Equal(t, "session", ctx.Value(sessionKey{}))
		assert.Equal(t, ctx, mtx.Context())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"start", "commit", "end"}, log.list())
}

func TestInTxAbortsAndReturnsCallbackError(t *testing.T) {
	t.Parallel()

	log := &sessionLog{}
	boom := errors.New("write conflict")

	calls := 0
	err := inTx(context.Background(), log.starter(), nil, datasource.TxOptions{MaxRetries: 2}, func(context.Context, any) error {
		calls++
		return boom
	})

	assert.Same(t, boom, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"start", "abort", "end"}, log.list())
}

func TestInTxAbortsOnPanic(t *testing.T) {
	t.Parallel()

	log := &sessionLog{}
	assert.Panics(t, func() {
		_ = inTx(context.Background(), log.starter(), nil, datasource.TxOptions{}, func(context.Context, any) error {
			panic("unexpected state")
		})
	})
	assert.Equal(t, []string{"start", "abort", "end"}, log.list())
}

func TestInTxRetriesOnlyBegin(t *testing.T) {
	t.Parallel()

	unavailable := errors.New("server selection timeout")

	log := &sessionLog{failures: 1, err: unavailable}
	require.NoError(t, inTx(context.Background(), log.starter(), nil, datasource.TxOptions{MaxRetries: 1}, func(context.Context, any) error {
		return nil
	}))
	assert.Equal(t, 2, log.starts)
	assert.Equal(t, []string{"start", "commit", "end"}, log.list())

	log = &sessionLog{failures: 2, err: unavailable}
	err := inTx(context.Background(), log.starter(), nil, datasource.TxOptions{MaxRetries: 1}, func(context.Context, any) error {
		t.Error("callback must not run")
		return nil
	})
	assert.ErrorIs(t, err, unavailable)
	assert.Empty(t, log.list())
}

func TestInTxTimeoutAborts(t *testing.T) {
	t.Parallel()

	log := &sessionLog{}
	err := inTx(context.Background(), log.starter(), nil, datasource.TxOptions{Timeout: 20 * time.Millisecond}, func(ctx context.Context, _ any) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, []string{"start", "abort", "end"}, log.list())
}
