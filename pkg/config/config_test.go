package config_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/tenantkit/pkg/config"
	"github.com/dmitrymomot/tenantkit/pkg/environment"
)

type appConfig struct {
	Env      environment.Environment `env:"APP_ENV" envDefault:"development"`
	Addr     string                  `env:"APP_ADDR" envDefault:":8080"`
	CacheTTL time.Duration           `env:"TENANT_CACHE_TTL" envDefault:"30s"`
}

type cachedConfig struct {
	Value string `env:"CONFIG_TEST_CACHED_VALUE" envDefault:"first"`
}

type requiredConfig struct {
	Secret string `env:"CONFIG_TEST_REQUIRED_SECRET,required"`
}

func TestParse_Defaults(t *testing.T) {
	t.Parallel()

	var cfg appConfig
	require.NoError(t, config.Parse(&cfg, config.WithEnvironment(map[string]string{})))
	assert.Equal(t, environment.Development, cfg.Env)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 30*time.Second, cfg.CacheTTL)
}

func TestParse_Overrides(t *testing.T) {
	t.Parallel()

	var cfg appConfig
	err := config.Parse(&cfg, config.WithEnvironment(map[string]string{
		"APP_ENV":          "prod",
		"APP_ADDR":         ":9000",
		"TENANT_CACHE_TTL": "1m",
	}))
	require.NoError(t, err)
	assert.Equal(t, environment.Production, cfg.Env)
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	var cfg appConfig
	err := config.Parse(&cfg, config.WithEnvironment(map[string]string{"APP_ENV": "qa"}))
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	var req requiredConfig
	err = config.Parse(&req, config.WithEnvironment(map[string]string{}))
	assert.ErrorIs(t, err, config.ErrParsingConfig)

	assert.ErrorIs(t, config.Parse[appConfig](nil), config.ErrNilPointer)
}

func TestParse_Prefix(t *testing.T) {
	t.Parallel()

	var cfg appConfig
	err := config.Parse(&cfg,
		config.WithPrefix("EDGE_"),
		config.WithEnvironment(map[string]string{"EDGE_APP_ADDR": ":7000", "APP_ADDR": ":1"}),
	)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
}

func TestParse_EnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("CONFIG_TEST_REQUIRED_SECRET=from-file\n"), 0o600))
	t.Cleanup(func() { _ = os.Unsetenv("CONFIG_TEST_REQUIRED_SECRET") })

	var cfg requiredConfig
	require.NoError(t, config.Parse(&cfg, config.WithEnvFiles(path)))
	assert.Equal(t, "from-file", cfg.Secret)

	var missing requiredConfig
	err := config.Parse(&missing, config.WithEnvFiles(filepath.Join(t.TempDir(), "nope.env")))
	assert.ErrorIs(t, err, config.ErrLoadingEnvFile)
}

func TestLoad_CachesPerType(t *testing.T) {
	t.Setenv("CONFIG_TEST_CACHED_VALUE", "first")

	var a cachedConfig
	require.NoError(t, config.Load(&a))
	assert.Equal(t, "first", a.Value)

	t.Setenv("CONFIG_TEST_CACHED_VALUE", "second")

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var b cachedConfig
			assert.NoError(t, config.Load(&b))
			assert.Equal(t, "first", b.Value)
		}()
	}
	wg.Wait()
}
