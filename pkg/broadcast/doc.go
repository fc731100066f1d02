// Package broadcast provides type-safe one-to-many message delivery.
//
//	b := broadcast.NewMemoryBroadcaster[string](16)
//	defer b.Close()
//
//	sub := b.Subscribe(ctx)
//	defer sub.Close()
//
//	_ = b.Broadcast(ctx, broadcast.Message[string]{Data: "hello"})
//
//	for msg := range sub.Receive(ctx) {
//		fmt.Println(msg.Data)
//	}
//
// Broadcast never blocks. When a subscriber's buffer is full the message is
// dropped for that subscriber only and counted in Dropped; the subscriber
// keeps receiving later messages once it catches up.
//
// A subscription ends when its context is cancelled, when Close is called on
// it, or when the broadcaster is closed.
package broadcast
