// Package presence tracks which users currently hold a live
// connection. The orchestrator consults it to choose between immediate
// delivery and queueing, and the queue consults it to skip offline
// users without burning retry attempts.
//
// MemoryTracker serves tests and single-instance deployments.
// RedisTracker shares presence across instances and survives process
// restarts; connections expire on their own when heartbeats stop.
// The realtime hub satisfies the same IsOnline contract, so small
// deployments can run without a separate tracker.
package presence
