// Package config loads the shopcache command settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	TokenFile   = "file"
	TokenMemory = "memory"
	TokenRedis  = "redis"

	SnapshotNone = "none"
	SnapshotFile = "file"
	SnapshotS3   = "s3"
)

// Config holds the settings of the shopcache command.
type Config struct {
	APIBaseURL         string
	UserAgent          string
	HTTPTimeoutSeconds int
	CacheMaxEntries    int
	StaleSeconds       int
	Retry              int
	TokenBackend       string
	Token              string
	TokenFile          string
	RedisAddr          string
	RedisDB            int
	RedisPassword      string
	RedisKey           string
	SnapshotBackend    string
	SnapshotFile       string
	S3Endpoint         string
	S3Region           string
	S3Bucket           string
	S3Key              string
	S3AccessKey        string
	S3SecretKey        string
	MetricsAddr        string
}

// Load reads the configuration from SHOPCACHE_* environment variables and validates it.
func Load() (Config, error) {
	cfg := Config{
		APIBaseURL:         getenv("SHOPCACHE_API_BASE_URL", ""),
		UserAgent:          getenv("SHOPCACHE_USER_AGENT", "shopcache"),
		HTTPTimeoutSeconds: getenvInt("SHOPCACHE_HTTP_TIMEOUT_SECONDS", 15),
		CacheMaxEntries:    getenvInt("SHOPCACHE_CACHE_MAX_ENTRIES", 1000),
		StaleSeconds:       getenvInt("SHOPCACHE_STALE_SECONDS", 0),
		Retry:              getenvInt("SHOPCACHE_RETRY", 1),
		TokenBackend:       getenv("SHOPCACHE_TOKEN_BACKEND", TokenFile),
		Token:              os.Getenv("SHOPCACHE_TOKEN"),
		TokenFile:          getenv("SHOPCACHE_TOKEN_FILE", ""),
		RedisAddr:          getenv("SHOPCACHE_REDIS_ADDR", ""),
		RedisDB:            getenvInt("SHOPCACHE_REDIS_DB", 0),
		RedisPassword:      os.Getenv("SHOPCACHE_REDIS_PASSWORD"),
		RedisKey:           getenv("SHOPCACHE_REDIS_KEY", "shopcache:token"),
		SnapshotBackend:    getenv("SHOPCACHE_SNAPSHOT_BACKEND", SnapshotNone),
		SnapshotFile:       getenv("SHOPCACHE_SNAPSHOT_FILE", ""),
		S3Endpoint:         getenv("SHOPCACHE_S3_ENDPOINT", ""),
		S3Region:           getenv("SHOPCACHE_S3_REGION", "us-east-1"),
		S3Bucket:           getenv("SHOPCACHE_S3_BUCKET", ""),
		S3Key:              getenv("SHOPCACHE_S3_KEY", "shopcache/snapshot.json"),
		S3AccessKey:        os.Getenv("SHOPCACHE_S3_ACCESS_KEY"),
		S3SecretKey:        os.Getenv("SHOPCACHE_S3_SECRET_KEY"),
		MetricsAddr:        getenv("SHOPCACHE_METRICS_ADDR", ""),
	}

	if cfg.APIBaseURL == "" {
		return cfg, errors.New("SHOPCACHE_API_BASE_URL is required")
	}
	if cfg.CacheMaxEntries <= 0 {
		return cfg, errors.New("SHOPCACHE_CACHE_MAX_ENTRIES must be positive")
	}

	switch cfg.TokenBackend {
	case TokenFile, TokenMemory:
	case TokenRedis:
		if cfg.RedisAddr == "" {
			return cfg, errors.New("SHOPCACHE_REDIS_ADDR is required for the redis token backend")
		}
	default:
		return cfg, fmt.Errorf("unknown SHOPCACHE_TOKEN_BACKEND %q", cfg.TokenBackend)
	}

	switch cfg.SnapshotBackend {
	case SnapshotNone:
	case SnapshotFile:
		if cfg.SnapshotFile == "" {
			return cfg, errors.New("SHOPCACHE_SNAPSHOT_FILE is required for the file snapshot backend")
		}
	case SnapshotS3:
		if cfg.S3Bucket == "" || cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
			return cfg, errors.New("S3 bucket/access/secret are required for the s3 snapshot backend")
		}
	default:
		return cfg, fmt.Errorf("unknown SHOPCACHE_SNAPSHOT_BACKEND %q", cfg.SnapshotBackend)
	}

	return cfg, nil
}

// HTTPTimeout returns the per-request timeout of the API client.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTPTimeoutSeconds) * time.Second
}

// StaleTime returns the default stale time of cached reads.
func (c Config) StaleTime() time.Duration {
	return time.Duration(c.StaleSeconds) * time.Second
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}

	return n
}
