// Package notify holds the shared vocabulary of the yapplr notification
// delivery pipeline: priorities, notification type tags, and the delivery
// request handed to transport providers.
//
// The pipeline itself lives in the subpackages:
//
//   - pkg/notifier: the orchestrator other services call (send, multicast,
//     typed wrappers, the read/seen surface, health and stats)
//   - pkg/queue: durable store-and-forward for deferred delivery with
//     priority-derived expiration and retry backoff
//   - pkg/pipeline: the pre-send gate (rate limiting, content filtering,
//     payload compression, security audit) and telemetry engine
//   - pkg/provider: delivery backends (realtime hub, webhook push gateway,
//     kafka, email) behind a single manager
//   - pkg/presence: tracks which users hold a live connection
//
// Basic Usage:
//
//	svc, err := notifier.New(storage, providers, q,
//		notifier.WithPreferences(prefs),
//		notifier.WithPresence(tracker),
//	)
//
//	accepted, err := svc.SendLike(ctx, userID, actorID, "alice", postID)
//
// Everything downstream treats notify.TypeMessage specially: message
// notifications belong to the conversational surface and are excluded from
// unread counts and bulk read/seen operations.
package notify
