package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// t.Setenv forbids t.Parallel, so these tests run sequentially.

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("SHOPCACHE_API_BASE_URL", "https://shop.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://shop.example.com", cfg.APIBaseURL)
	require.Equal(t, 1000, cfg.CacheMaxEntries)
	require.Equal(t, 1, cfg.Retry)
	require.Equal(t, TokenFile, cfg.TokenBackend)
	require.Equal(t, SnapshotNone, cfg.SnapshotBackend)
	require.Equal(t, "shopcache:token", cfg.RedisKey)
	require.Equal(t, 15*time.Second, cfg.HTTPTimeout())
	require.Zero(t, cfg.StaleTime())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("SHOPCACHE_API_BASE_URL", "http://localhost:3000")
	t.Setenv("SHOPCACHE_STALE_SECONDS", "30")
	t.Setenv("SHOPCACHE_RETRY", "not a number")
	t.Setenv("SHOPCACHE_TOKEN_BACKEND", TokenRedis)
	t.Setenv("SHOPCACHE_REDIS_ADDR", "127.0.0.1:6379")
	t.Setenv("SHOPCACHE_REDIS_DB", "2")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 30*time.Second, cfg.StaleTime())
	require.Equal(t, 1, cfg.Retry)
	require.Equal(t, "127.0.0.1:6379", cfg.RedisAddr)
	require.Equal(t, 2, cfg.RedisDB)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing base url", env: map[string]string{}},
		{name: "bad cache size", env: map[string]string{"SHOPCACHE_CACHE_MAX_ENTRIES": "0"}},
		{name: "unknown token backend", env: map[string]string{"SHOPCACHE_TOKEN_BACKEND": "vault"}},
		{name: "redis without addr", env: map[string]string{"SHOPCACHE_TOKEN_BACKEND": TokenRedis}},
		{name: "file snapshot without path", env: map[string]string{"SHOPCACHE_SNAPSHOT_BACKEND": SnapshotFile}},
		{name: "s3 snapshot without bucket", env: map[string]string{"SHOPCACHE_SNAPSHOT_BACKEND": SnapshotS3}},
		{name: "unknown snapshot backend", env: map[string]string{"SHOPCACHE_SNAPSHOT_BACKEND": "gcs"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := "https://shop.example.com"
			if tt.name == "missing base url" {
				base = ""
			}
			t.Setenv("SHOPCACHE_API_BASE_URL", base)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
		})
	}
}
