// Package config loads env-tagged configuration structs for the pipeline's
// packages. A .env file, when present, is loaded once per process; each
// config type is parsed once and cached so every package reading the same
// type sees the same values.
//
// Usage:
//
//	type Config struct {
//		RedisURL string `env:"REDIS_URL,required"`
//		Interval time.Duration `env:"QUEUE_PROCESS_INTERVAL" envDefault:"30s"`
//	}
//
//	cfg, err := config.Load[Config]()
//
// MustLoad panics on failure and suits process startup paths where a missing
// required variable should stop the process.
package config
