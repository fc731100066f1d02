// Package tenanttx runs business logic atomically across every database of
// a tenant.
//
// The Coordinator opens one transaction per handle, nesting them in
// resolver order, and calls the callback once all of them are open:
//
//	coord := tenanttx.New(tenanttx.WithTxOptions(datasource.TxOptions{Timeout: 5 * time.Second}))
//
//	err := coord.RunSession(ctx, session, func(ctx context.Context, txs []*tenanttx.TxHandle) error {
//		pgTx, _ := tenanttx.TxAs[pgx.Tx](txs[0])
//		...
//	})
//
// A callback error, or a failure to open any transaction, rolls back every
// transaction already open. On success transactions commit innermost first.
// This is not two-phase commit: a failure while committing an outer
// transaction does not undo inner ones that already committed.
//
// The open handles are published into the callback's context. A Run whose
// context already carries handles reuses the transactions of tenants already
// in scope and opens nested ones only for the rest.
package tenanttx
