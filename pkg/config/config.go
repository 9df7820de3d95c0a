package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once

	cacheMu sync.RWMutex
	cache   = make(map[reflect.Type]any)
)

// Load parses environment variables into a fresh T and caches the result by
// type. The first call in a process also loads the default .env file when
// one exists; a missing .env is not an error.
func Load[T any]() (T, error) {
	var cfg T

	t := reflect.TypeOf(cfg)
	if t == nil || t.Kind() != reflect.Struct {
		return cfg, ErrNotStruct
	}

	dotenvOnce.Do(func() {
		_ = godotenv.Load()
	})

	cacheMu.RLock()
	if v, ok := cache[t]; ok {
		cacheMu.RUnlock()
		return v.(T), nil
	}
	cacheMu.RUnlock()

	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Join(ErrParse, err)
	}

	cacheMu.Lock()
	// Another goroutine may have parsed the same type concurrently; the
	// first stored value wins so all callers observe identical config.
	if v, ok := cache[t]; ok {
		cfg = v.(T)
	} else {
		cache[t] = cfg
	}
	cacheMu.Unlock()

	return cfg, nil
}

// MustLoad is Load for required startup configuration; it panics on failure.
func MustLoad[T any]() T {
	cfg, err := Load[T]()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}
