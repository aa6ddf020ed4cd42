package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	assert.NoError(t, c.Validate())
	assert.Equal(t, AgentDQN, c.Agent)
	assert.Equal(t, []int{256, 256}, c.Hidden)
}

func TestLoadEmptyPathUsesDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoadOverridesFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cfg.yaml")
	contents := []byte("batch_size: 64\ngamma: 0.95\nreplay: prioritized\n")
	require.NoError(t, os.WriteFile(path, contents, 0o644))

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 64, c.BatchSize)
	assert.Equal(t, 0.95, c.Gamma)
	assert.Equal(t, ReplayPrioritized, c.Replay)
	// Untouched fields keep their defaults.
	assert.Equal(t, AgentDQN, c.Agent)
}

func TestValidateRejectsUnknownEnums(t *testing.T) {
	c := Default()
	c.Replay = "bogus"
	err := c.Validate()
	require.Error(t, err)
}

func TestValidateRejectsBufferSmallerThanBatch(t *testing.T) {
	c := Default()
	c.BatchSize = 32
	c.BufferCapacity = 16
	assert.Error(t, c.Validate())
}

func TestValidateRejectsOutOfRangeGamma(t *testing.T) {
	c := Default()
	c.Gamma = 1.5
	assert.Error(t, c.Validate())
}

func TestLoadRejectsMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/cfg.yaml")
	assert.Error(t, err)
}
