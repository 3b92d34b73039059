package ipc

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerDeliversCommand(t *testing.T) {
	ln, err := net.Listen("unix", tmpSocket(t))
	require.NoError(t, err)
	defer ln.Close()

	srv := NewServer(ln)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	conn, err := net.Dial("unix", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`{"cmd":"status"}` + "\n"))
	require.NoError(t, err)

	select {
	case cmd := <-srv.Commands():
		assert.Equal(t, "status", cmd.Req.Cmd)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for command")
	}
}

func TestServerDropsMalformedLine(t *testing.T) {
	ln, err := net.Listen("unix", tmpSocket(t))
	require.NoError(t, err)
	defer ln.Close()

	srv := NewServer(ln)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	conn, err := net.Dial("unix", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte("not json\n"))
	require.NoError(t, err)

	select {
	case <-srv.Disconnects():
	case <-time.After(2 * time.Second):
		t.Fatal("expected disconnect for malformed line")
	}
}

func TestServerReportsDisconnectOnEOF(t *testing.T) {
	ln, err := net.Listen("unix", tmpSocket(t))
	require.NoError(t, err)
	defer ln.Close()

	srv := NewServer(ln)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	conn, err := net.Dial("unix", ln.Addr().String())
	require.NoError(t, err)
	conn.Close()

	select {
	case <-srv.Disconnects():
	case <-time.After(2 * time.Second):
		t.Fatal("expected disconnect on EOF")
	}
}

func TestClientConnSendEncodesResponse(t *testing.T) {
	ln, err := net.Listen("unix", tmpSocket(t))
	require.NoError(t, err)
	defer ln.Close()

	srv := NewServer(ln)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.Serve(ctx)

	conn, err := net.Dial("unix", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte(`{"cmd":"status"}` + "\n"))
	require.NoError(t, err)

	cmd := <-srv.Commands()
	require.NoError(t, cmd.Conn.Send(Response{Status: "ok", State: "idle"}))

	buf := make([]byte, 256)
	n, err := conn.Read(buf)
	require.NoError(t, err)

	var resp Response
	require.NoError(t, json.Unmarshal(buf[:n], &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "idle", resp.State)
}

func tmpSocket(t *testing.T) string {
	t.Helper()
	return t.TempDir() + "/test.sock"
}
