package infra

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"admission-gateway/middleware/admission/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePolicy_OverridesOnlyGivenFields(t *testing.T) {
	raw := []byte(`
tiers:
  burst:
    max: 20
  auth:
    window: 30s
    skip_successful: false
ban_threshold: 3
ban_duration: 1h
`)
	p, err := ParsePolicy(raw, domain.DefaultPolicy())
	require.NoError(t, err)

	assert.Equal(t, 20, p.Burst.Max)
	assert.Equal(t, time.Second, p.Burst.Window)
	assert.Equal(t, 30*time.Second, p.Auth.Window)
	assert.False(t, p.Auth.SkipSuccessful)
	assert.Equal(t, 3, p.BanThreshold)
	assert.Equal(t, time.Hour, p.BanDuration)
	assert.Equal(t, 5*time.Minute, p.ViolationWindow)
}

func TestParsePolicy_RejectsInvalid(t *testing.T) {
	_, err := ParsePolicy([]byte("tiers:\n  api:\n    max: 0\n"), domain.DefaultPolicy())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidPolicy))
}

func TestParsePolicy_RejectsBadYAML(t *testing.T) {
	_, err := ParsePolicy([]byte("ban_duration: [1"), domain.DefaultPolicy())
	assert.Error(t, err)
}

func TestLoadPolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yml")
	require.NoError(t, os.WriteFile(path, []byte("violation_window: 10m\n"), 0o600))

	p, err := LoadPolicyFile(path, domain.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, p.ViolationWindow)

	_, err = LoadPolicyFile(filepath.Join(t.TempDir(), "missing.yml"), domain.DefaultPolicy())
	assert.Error(t, err)
}
