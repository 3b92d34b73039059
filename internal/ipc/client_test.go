package ipc

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendRoundTrip(t *testing.T) {
	path := tmpSocket(t)
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 256)
		conn.Read(buf)
		conn.Write([]byte(`{"status":"ok","state":"idle"}` + "\n"))
	}()

	resp, err := Send(context.Background(), path, Request{Cmd: "status"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "idle", resp.State)
}

func TestSendDeferredWaitsForSecondResponse(t *testing.T) {
	path := tmpSocket(t)
	ln, err := net.Listen("unix", path)
	require.NoError(t, err)
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 256)
		conn.Read(buf)
		conn.Write([]byte(`{"status":"transcribing","duration":2.0}` + "\n"))
		conn.Write([]byte(`{"status":"ok","text":"hello"}` + "\n"))
	}()

	resp, err := SendDeferred(context.Background(), path, Request{Cmd: "stop"}, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "hello", resp.Text)
}

func TestSendConnectFailure(t *testing.T) {
	_, err := Send(context.Background(), "/nonexistent/path/x.sock", Request{Cmd: "status"}, 100*time.Millisecond)
	assert.Error(t, err)
}
