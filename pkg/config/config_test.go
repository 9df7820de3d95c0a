package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapplr/notify/pkg/config"
)

type queueEnv struct {
	Interval time.Duration `env:"TEST_QUEUE_INTERVAL" envDefault:"30s"`
	Batch    int           `env:"TEST_QUEUE_BATCH" envDefault:"100"`
}

type requiredEnv struct {
	Token string `env:"TEST_REQUIRED_TOKEN,required"`
}

type cachedEnv struct {
	Value string `env:"TEST_CACHED_VALUE" envDefault:"first"`
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load[queueEnv]()
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Interval)
	assert.Equal(t, 100, cfg.Batch)
}

func TestLoadRequiredMissing(t *testing.T) {
	_, err := config.Load[requiredEnv]()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrParse)
}

func TestLoadCachesPerType(t *testing.T) {
	t.Setenv("TEST_CACHED_VALUE", "original")

	first, err := config.Load[cachedEnv]()
	require.NoError(t, err)
	assert.Equal(t, "original", first.Value)

	// Later environment changes are invisible: the type is cached.
	t.Setenv("TEST_CACHED_VALUE", "changed")
	second, err := config.Load[cachedEnv]()
	require.NoError(t, err)
	assert.Equal(t, "original", second.Value)
}

func TestLoadRejectsNonStruct(t *testing.T) {
	_, err := config.Load[int]()
	assert.ErrorIs(t, err, config.ErrNotStruct)
}

func TestMustLoadPanics(t *testing.T) {
	assert.Panics(t, func() {
		config.MustLoad[requiredEnv]()
	})
}
