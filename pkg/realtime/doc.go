// Package realtime fans delivery requests out to live in-process
// subscriptions, one stream per connected device. It backs the
// realtime provider and doubles as a presence source: a user with at
// least one open subscription is online.
//
// Publishes never block. A subscription that stops draining its buffer
// is dropped, matching how a dead websocket behaves from the server
// side.
//
//	hub := realtime.NewHub()
//	defer hub.Close()
//
//	sub, _ := hub.Subscribe(ctx, userID)
//	for req := range sub.Receive() {
//		push(req)
//	}
package realtime
