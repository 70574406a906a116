package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	v := NewViper()

	cfg, err := NewConfig(v)
	require.NoError(t, err)

	require.Equal(t, "buywise", cfg.AppName)
	require.Equal(t, Dev, cfg.ENV)
	require.Equal(t, 3, cfg.Scrape.MaxRetries)
	require.Equal(t, 10*time.Second, cfg.Scrape.Timeout)
	require.Equal(t, time.Second, cfg.Scrape.RetryBaseDelay)
	require.Len(t, cfg.Scrape.UserAgents, 3)
	require.Equal(t, "file", cfg.Cache.Backend)
	require.Equal(t, 1800*time.Second, cfg.Cache.TTL)
	require.Equal(t, 1800*time.Second, cfg.Monitor.CycleInterval)
	require.Equal(t, 2*time.Hour, cfg.Monitor.CheckInterval)
	require.Equal(t, 5*time.Second, cfg.Monitor.CheckDelay)
	require.Equal(t, 20, cfg.ResultsLimit)
	require.InDelta(t, 3.0, cfg.MinRating, 1e-9)
}

func TestNewConfig_UserAgentsOverride(t *testing.T) {
	v := NewViper()
	v.Set("SCRAPE_USER_AGENTS", "ua-one | ua-two|")

	cfg, err := NewConfig(v)
	require.NoError(t, err)
	require.Equal(t, []string{"ua-one", "ua-two"}, cfg.Scrape.UserAgents)
}

func TestNewConfig_RejectsInvalid(t *testing.T) {
	cases := map[string]any{
		"APP_PORT":      70000,
		"CACHE_BACKEND": "memcached",
		"CACHE_TTL":     "0s",
		"ENV":           "staging",
	}
	for key, val := range cases {
		v := NewViper()
		v.Set(key, val)

		_, err := NewConfig(v)
		require.Error(t, err, key)
	}
}
