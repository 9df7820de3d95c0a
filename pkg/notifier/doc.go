// Package notifier is the orchestrator of the notification pipeline and
// the only surface the rest of the platform calls. Per send it runs the
// user's preference gate, the pipeline's rate-limit and content gates,
// persists the in-app record, and then routes delivery: online users get
// one bounded provider attempt, everyone else (and every failed attempt)
// goes through the store-and-forward queue.
//
// The returned bool reports acceptance, not delivery; delivery outcomes
// are an observability concern surfaced through metrics and queue stats.
//
//	svc, _ := notifier.New(storage, manager, q,
//		notifier.WithPreferences(prefs),
//		notifier.WithPresence(hub),
//		notifier.WithPipeline(gate),
//	)
//
//	accepted, err := svc.SendMention(ctx, userID, actorID, "alice", postID)
//
// The package also owns the notification center read surface: paged
// listings, the unread badge, and read/seen stamping, all excluding
// message-type notifications, which live on the conversational surface.
package notifier
