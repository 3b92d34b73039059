package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "lan", cfg.Backend.Type)
	assert.Equal(t, "http://localhost:8080", cfg.Backend.URL)
	assert.Equal(t, "whisper.cpp", cfg.Backend.APIFormat)
	assert.Equal(t, "clipboard", cfg.Output.Default)
	assert.Equal(t, 16000, cfg.Audio.SampleRate)
	assert.Equal(t, 120, cfg.Audio.MaxSeconds)
	assert.Equal(t, []string{"claude", "aider", "gh", "cursor"}, cfg.Agents)
}

func TestRingBufferBytes(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 120*16000*2, cfg.Audio.RingBufferBytes())
}

func TestParsePartialOverridesOnlyGivenKeys(t *testing.T) {
	base := Default()
	cfg, err := Parse([]byte(`{"backend":{"url":"http://gpu-box:9000"},"audio":{"sample_rate":48000}}`), base)

	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:9000", cfg.Backend.URL)
	assert.Equal(t, "lan", cfg.Backend.Type)
	assert.Equal(t, 48000, cfg.Audio.SampleRate)
	assert.Equal(t, 120, cfg.Audio.MaxSeconds)
}

func TestParseMalformedJSONReturnsError(t *testing.T) {
	_, err := Parse([]byte(`not json`), Default())
	assert.Error(t, err)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	loaded, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, Default(), loaded.Config)
	require.Len(t, loaded.Warnings, 1)
	assert.Contains(t, loaded.Warnings[0].Message, "not found")
}

func TestLoadParsesExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"output":{"default":"type"}}`), 0o600))

	loaded, err := Load(path)

	require.NoError(t, err)
	assert.Empty(t, loaded.Warnings)
	assert.Equal(t, "type", loaded.Config.Output.Default)
}

func TestLoadMalformedFileWarnsAndFallsBack(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{not json`), 0o600))

	loaded, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, Default(), loaded.Config)
	require.Len(t, loaded.Warnings, 1)
	assert.Contains(t, loaded.Warnings[0].Message, "parse error")
}

func TestConfigDirUsesXDGWhenSet(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdgcfg")
	assert.Equal(t, "/tmp/xdgcfg/speak-anywhere", ConfigDir())
}

func TestDataDirUsesXDGWhenSet(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdgdata")
	assert.Equal(t, "/tmp/xdgdata/speak-anywhere", DataDir())
}
