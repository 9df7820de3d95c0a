// Package pg owns the PostgreSQL connection pool used by the durable
// notification store: pooled connect with startup retries, a healthcheck
// closure for readiness probes, error classification helpers, and goose
// migrations embedded in the binary.
package pg
