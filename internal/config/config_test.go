package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PIPELINE_TOP_N", "")
	t.Setenv("HANDOFF_TTL", "")

	cfg := Load()

	assert.Equal(t, 3, cfg.Pipeline.TopN)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.HandoffTTL)
	assert.Equal(t, "memory", cfg.Pipeline.SessionStore)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PIPELINE_TOP_N", "5")
	t.Setenv("HANDOFF_TTL", "45s")
	t.Setenv("SESSION_STORE", "redis")

	cfg := Load()

	assert.Equal(t, 5, cfg.Pipeline.TopN)
	assert.Equal(t, 45*time.Second, cfg.Pipeline.HandoffTTL)
	assert.Equal(t, "redis", cfg.Pipeline.SessionStore)
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("PIPELINE_TOP_N", "three")
	t.Setenv("HANDOFF_TTL", "-5s")

	cfg := Load()

	assert.Equal(t, 3, cfg.Pipeline.TopN)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.HandoffTTL)
}

func TestLineEnabled(t *testing.T) {
	assert.False(t, LineConfig{}.Enabled())
	assert.True(t, LineConfig{ChannelAccessToken: "token"}.Enabled())
}
