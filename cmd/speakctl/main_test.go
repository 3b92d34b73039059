package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/speakanywhere/speakanywhere/internal/ipc"
)

func TestRunHelp(t *testing.T) {
	var code int
	out := withCapturedStdout(t, func() { code = run([]string{"--help"}) })
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "Usage:")
}

func TestRunVersion(t *testing.T) {
	var code int
	out := withCapturedStdout(t, func() { code = run([]string{"--version"}) })
	assert.Equal(t, 0, code)
	assert.NotEmpty(t, out)
}

func TestRunUnknownCommandReturnsExitCode2(t *testing.T) {
	code := run([]string{"bogus"})
	assert.Equal(t, 2, code)
}

func TestRunStatusAgainstFakeDaemon(t *testing.T) {
	socketPath := filepath.Join(t.TempDir(), "speak-anywhere.sock")
	t.Setenv("XDG_RUNTIME_DIR", filepath.Dir(socketPath))

	listener, err := ipc.Listen(socketPath)
	require.NoError(t, err)
	server := ipc.NewServer(listener)

	ctx, cancel := context.WithCancel(context.Background())
	go server.Serve(ctx)
	go func() {
		for cmd := range server.Commands() {
			_ = cmd.Conn.Send(ipc.Response{Status: "ok", State: "idle"})
		}
	}()
	defer cancel()

	var code int
	out := withCapturedStdout(t, func() { code = run([]string{"status"}) })
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "idle")
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
