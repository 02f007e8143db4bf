package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
	t.Setenv("UPSTREAM_URL", "http://127.0.0.1:8081")
}

func TestReadConfig_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := readConfig()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.listenAddr)
	assert.True(t, cfg.admissionEnabled)
	assert.Equal(t, []string{"/api/"}, cfg.apiPrefixes)
	assert.Equal(t, "/rate-limited", cfg.noticePath)
	assert.Equal(t, 50, cfg.policy.Burst.Max)
	assert.Equal(t, 5, cfg.policy.BanThreshold)
	assert.Equal(t, 15*time.Minute, cfg.policy.BanDuration)
	assert.Equal(t, "info", cfg.log.Level)
}

func TestReadConfig_RequiresUpstream(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("UPSTREAM_URL", "")

	_, err := readConfig()
	assert.EqualError(t, err, "UPSTREAM_URL is required")
}

func TestReadConfig_StatsNeedRedisAddr(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("RATE_STATS_ENABLED", "true")

	_, err := readConfig()
	assert.Error(t, err)
}

func TestReadConfig_EnvOverridesPolicyFile(t *testing.T) {
	setBaseEnv(t)
	policy := filepath.Join(t.TempDir(), "policy.yml")
	require.NoError(t, os.WriteFile(policy, []byte("tiers:\n  api:\n    max: 20\nban_threshold: 3\n"), 0o600))
	t.Setenv("ADMISSION_POLICY_FILE", policy)
	t.Setenv("ADMISSION_BAN_THRESHOLD", "7")
	t.Setenv("ADMISSION_API_PREFIXES", "/api/, /v2/ ,")

	cfg, err := readConfig()
	require.NoError(t, err)

	assert.Equal(t, 20, cfg.policy.API.Max)
	assert.Equal(t, 7, cfg.policy.BanThreshold)
	assert.Equal(t, []string{"/api/", "/v2/"}, cfg.apiPrefixes)
}

func TestReadConfig_InvalidPolicy(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ADMISSION_BAN_THRESHOLD", "0")

	_, err := readConfig()
	assert.Error(t, err)
}

func TestReadConfig_LoadsEnvFile(t *testing.T) {
	setBaseEnv(t)
	envFile := filepath.Join(t.TempDir(), "gateway.env")
	require.NoError(t, os.WriteFile(envFile, []byte("LISTEN_ADDR=:9999\n"), 0o600))
	t.Setenv("ENV_FILE", envFile)
	t.Cleanup(func() { _ = os.Unsetenv("LISTEN_ADDR") })

	cfg, err := readConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.listenAddr)
}
