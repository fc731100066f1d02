package tenanttx

import (
	"context"
	"slices"
)

type contextKey struct{}

func withHandles(ctx context.Context, txs []*TxHandle) context.Context {
	return context.WithValue(ctx, contextKey{}, txs)
}

// FromContext returns the transaction handles published by an enclosing Run.
func FromContext(ctx context.Context) ([]*TxHandle, bool) {
	txs, ok := ctx.Value(contextKey{}).([]*TxHandle)
	if !ok || len(txs) == 0 {
		return nil, false
	}
	return slices.Clone(txs), true
}
