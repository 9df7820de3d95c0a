// Package provider implements the delivery channels notifications go
// out on and the Manager that walks them in order until one succeeds.
//
// Four providers ship with the module:
//
//   - realtime: in-process hub push, succeeds when the user has a live
//     subscription
//   - webhook: signed JSON POST to a push gateway
//   - kafka: publish to a topic consumed by mobile push workers
//   - email: postmark fallback, High and Critical priorities only
//
// The manager skips unavailable providers, bounds every attempt with a
// timeout and isolates provider panics. An observer hook reports each
// attempt for telemetry:
//
//	mgr := provider.NewManager(
//		[]provider.Provider{rt, wh, kf, em},
//		provider.WithObserver(recordAttempt),
//	)
//	delivered := mgr.Send(ctx, req)
package provider
