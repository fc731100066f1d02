package tenanttx

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/tenantconn/pkg/datasource"
	"github.com/dmitrymomot/tenantconn/pkg/logger"
	"github.com/dmitrymomot/tenantconn/pkg/tenant"
)

// Func is the business logic run once every transaction is open.
type Func func(ctx context.Context, txs []*TxHandle) error

// Coordinator opens nested transactions over tenant handles.
type Coordinator struct {
	opts datasource.TxOptions
	log  *slog.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithTxOptions sets the options applied to every nested transaction.
func WithTxOptions(opts datasource.TxOptions) Option {
	return func(c *Coordinator) {
		c.opts = opts
	}
}

// WithLogger sets a custom logger.
func WithLogger(log *slog.Logger) Option {
	return func(c *Coordinator) {
		if log != nil {
			c.log = log
		}
	}
}

// New creates a coordinator. Without options transactions use the engine
// defaults and no timeout.
func New(opts ...Option) *Coordinator {
	c := &Coordinator{log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.With(logger.Component("tenanttx"))
	return c
}

// RunSession runs fn across every client of the session.
func (c *Coordinator) RunSession(ctx context.Context, s *tenant.Session, fn Func) error {
	handles, err := s.Clients(ctx)
	if err != nil {
		return err
	}
	return c.Run(ctx, handles, fn)
}

// Run opens one transaction per handle, in order, and calls fn once with all
// of them. fn's error is returned unchanged after every transaction has been
// rolled back.
//
// When ctx carries handles from an enclosing Run, tenants already in that
// scope reuse its transactions. Only the remaining handles get their own,
// nested inside and committed when this Run returns. fn always receives
// exactly the requested tenants, in the requested order.
func (c *Coordinator) Run(ctx context.Context, handles []*tenant.Handle, fn Func) error {
	if len(handles) == 0 {
		return ErrNoHandles
	}

	outer, _ := FromContext(ctx)
	txs := make([]*TxHandle, len(handles))
	fresh := make([]*TxHandle, 0, len(handles))
	for i, h := range handles {
		if joined, ok := ByCode(outer, h.Descriptor.TenantCode); ok {
			txs[i] = joined
			continue
		}
		txs[i] = newTxHandle(h)
		fresh = append(fresh, txs[i])
	}

	if len(fresh) == 0 {
		return fn(ctx, txs)
	}
	if len(outer) > 0 {
		c.log.DebugContext(ctx, "extending enclosing tenant transaction",
			slog.Int("joined", len(txs)-len(fresh)),
			slog.Int("opened", len(fresh)),
		)
	}

	published := append(outer, fresh...)
	body := func(ctx context.Context) error {
		return fn(withHandles(ctx, published), txs)
	}

	start := time.Now()
	err := c.runAt(ctx, fresh, 0, body)
	if err != nil {
		c.log.DebugContext(ctx, "tenant transaction rolled back", slog.Int("handles", len(fresh)), logger.Duration(time.Since(start)), logger.Error(err))
		return err
	}
	c.log.DebugContext(ctx, "tenant transaction committed", slog.Int("handles", len(fresh)), logger.Duration(time.Since(start)))
	return nil
}

// runAt opens the transaction at depth and recurses inside it. body runs
// once all of txs are active.
func (c *Coordinator) runAt(ctx context.Context, txs []*TxHandle, depth int, body func(context.Context) error) error {
	if depth == len(txs) {
		return body(ctx)
	}

	h := txs[depth]
	d := h.Descriptor()
	if err := h.fire(ctx, eventBegin, nil); err != nil {
		return err
	}

	opened := false
	err := h.Handle.Client().InTx(ctx, c.opts, func(txCtx context.Context, tx any) error {
		if err := h.fire(txCtx, eventOpen, tx); err != nil {
			return err
		}
		opened = true
		return c.runAt(txCtx, txs, depth+1, body)
	})

	if err == nil {
		return h.fire(ctx, eventCommit, nil)
	}
	_ = h.fire(ctx, eventRollback, nil)

	if opened {
		return err
	}

	c.log.WarnContext(ctx, "failed to begin tenant transaction",
		logger.Tenant(d.TenantCode, d.TenantIdentifier),
		logger.Kind(d.Kind),
		logger.Error(err),
	)
	return datasource.ConnectionError(
		fmt.Sprintf("failed to begin transaction on %s", d.TenantCode),
		errors.Join(ErrBeginFailed, err),
		datasource.Fields{"descriptor": d, "depth": depth},
	)
}
