package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("DASHBOARD_API_URL", "")
	t.Setenv("DASHBOARD_API_TIMEOUT", "")
	t.Setenv("DASHBOARD_TOKEN_STORE", "")

	cfg := FromEnv()

	assert.Equal(t, DefaultAPIURL, cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, TokenStoreFile, cfg.Store.Backend)
	assert.False(t, cfg.Report.ArchiveEnabled())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("DASHBOARD_API_URL", "https://clinic.example.com/")
	t.Setenv("DASHBOARD_API_TIMEOUT", "3s")
	t.Setenv("DASHBOARD_TOKEN_STORE", "Redis")
	t.Setenv("DASHBOARD_REDIS_DB", "2")
	t.Setenv("DASHBOARD_REPORT_BUCKET", "reports")
	t.Setenv("DASHBOARD_MINIO_ENDPOINT", "minio:9000")

	cfg := FromEnv()

	assert.Equal(t, "https://clinic.example.com", cfg.API.BaseURL)
	assert.Equal(t, 3*time.Second, cfg.API.Timeout)
	assert.Equal(t, TokenStoreRedis, cfg.Store.Backend)
	assert.Equal(t, 2, cfg.Store.RedisDB)
	assert.True(t, cfg.Report.ArchiveEnabled())
}

func TestFromEnv_BadValuesFallBack(t *testing.T) {
	t.Setenv("DASHBOARD_API_TIMEOUT", "soon")
	t.Setenv("DASHBOARD_REDIS_DB", "one")

	cfg := FromEnv()

	assert.Equal(t, DefaultAPITimeout, cfg.API.Timeout)
	assert.Equal(t, 0, cfg.Store.RedisDB)
}
