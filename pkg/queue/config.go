package queue

import "time"

// Config carries the queue's processing knobs, populated from the environment
// by pkg/config. The zero value is unusable; load it or rely on the defaults
// applied by New.
type Config struct {
	ProcessInterval time.Duration `env:"QUEUE_PROCESS_INTERVAL" envDefault:"30s"`
	CleanupInterval time.Duration `env:"QUEUE_CLEANUP_INTERVAL" envDefault:"1h"`
	BatchSize       int           `env:"QUEUE_BATCH_SIZE" envDefault:"100"`
	Parallelism     int           `env:"QUEUE_PARALLELISM" envDefault:"8"`
	MaxRetries      int           `env:"QUEUE_MAX_RETRIES" envDefault:"3"`
	DeliveryTimeout time.Duration `env:"QUEUE_DELIVERY_TIMEOUT" envDefault:"5s"`
}

func defaultConfig() Config {
	return Config{
		ProcessInterval: 30 * time.Second,
		CleanupInterval: time.Hour,
		BatchSize:       100,
		Parallelism:     8,
		MaxRetries:      3,
		DeliveryTimeout: 5 * time.Second,
	}
}

func (c Config) normalized() Config {
	d := defaultConfig()
	if c.ProcessInterval <= 0 {
		c.ProcessInterval = d.ProcessInterval
	}
	if c.CleanupInterval <= 0 {
		c.CleanupInterval = d.CleanupInterval
	}
	if c.BatchSize <= 0 {
		c.BatchSize = d.BatchSize
	}
	if c.Parallelism <= 0 {
		c.Parallelism = d.Parallelism
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.DeliveryTimeout <= 0 {
		c.DeliveryTimeout = d.DeliveryTimeout
	}
	return c
}
