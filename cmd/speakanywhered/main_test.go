package main

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakanywhere/speakanywhere/internal/config"
)

func TestRunHelp(t *testing.T) {
	out := withCapturedStdout(t, func() {
		code := run([]string{"--help"})
		assert.Equal(t, 0, code)
	})
	assert.Contains(t, out, "Usage:")
}

func TestRunVersion(t *testing.T) {
	out := withCapturedStdout(t, func() {
		code := run([]string{"--version"})
		assert.Equal(t, 0, code)
	})
	assert.NotEmpty(t, out)
}

func TestRunUnknownFlagReturnsExitCode2(t *testing.T) {
	code := run([]string{"--bogus"})
	assert.Equal(t, 2, code)
}

func TestBuildBackendRejectsUnknownType(t *testing.T) {
	cfg := config.Default()
	cfg.Backend.Type = "unsupported"
	_, err := buildBackend(cfg)
	require.Error(t, err)
}

func TestBuildBackendAcceptsLAN(t *testing.T) {
	cfg := config.Default()
	backend, err := buildBackend(cfg)
	require.NoError(t, err)
	assert.NotNil(t, backend)
}

func withCapturedStdout(t *testing.T, fn func()) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	original := os.Stdout
	os.Stdout = w

	fn()

	os.Stdout = original
	_ = w.Close()
	out, _ := io.ReadAll(r)
	return string(out)
}
