package reactor

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/speakanywhere/speakanywhere/internal/config"
	"github.com/speakanywhere/speakanywhere/internal/daemoncore"
	"github.com/speakanywhere/speakanywhere/internal/history"
	"github.com/speakanywhere/speakanywhere/internal/ipc"
	"github.com/speakanywhere/speakanywhere/internal/output"
	"github.com/speakanywhere/speakanywhere/internal/procinspect"
	"github.com/speakanywhere/speakanywhere/internal/ring"
	"github.com/speakanywhere/speakanywhere/internal/session"
	"github.com/speakanywhere/speakanywhere/internal/transcribe"
)

type instantBackend struct{}

func (instantBackend) Transcribe(ctx context.Context, samples []int16, sampleRate int) (transcribe.Result, error) {
	return transcribe.Result{Text: "reactor test transcript", DurationSec: 1, ProcessingSec: 0.1}, nil
}

func startReactor(t *testing.T) (string, func()) {
	t.Helper()

	socketPath := filepath.Join(t.TempDir(), "reactor.sock")
	listener, err := ipc.Listen(socketPath)
	require.NoError(t, err)
	server := ipc.NewServer(listener)

	buf := ring.New(4096)
	sess := session.New(buf, func() error {
		buf.Write(sampleBytes(160))
		return nil
	}, func() error { return nil })

	core := daemoncore.New(config.Default(), nil, sess, instantBackend{}, &history.NullStore{}, procinspect.New(nil), output.NewFactory([]string{"true"}))
	r := New(core, server, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	return socketPath, func() {
		cancel()
		<-done
	}
}

func sampleBytes(n int) []byte {
	out := make([]byte, n*2)
	for i := range n {
		out[i*2] = byte(i)
	}
	return out
}

func TestReactorHandlesStartStopRoundTrip(t *testing.T) {
	socketPath, stop := startReactor(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	startResp, err := ipc.Send(ctx, socketPath, ipc.Request{Cmd: "start"}, time.Second)
	require.NoError(t, err)
	require.Equal(t, "ok", startResp.Status)

	stopResp, err := ipc.SendDeferred(ctx, socketPath, ipc.Request{Cmd: "stop"}, 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, "ok", stopResp.Status)
	require.Equal(t, "reactor test transcript", stopResp.Text)
}

func TestReactorSendsTranscribingEnvelopeBeforeResult(t *testing.T) {
	socketPath, stop := startReactor(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	startResp, err := ipc.Send(ctx, socketPath, ipc.Request{Cmd: "start"}, time.Second)
	require.NoError(t, err)
	require.Equal(t, "ok", startResp.Status)

	conn, err := net.Dial("unix", socketPath)
	require.NoError(t, err)
	defer conn.Close()

	line, err := json.Marshal(ipc.Request{Cmd: "stop"})
	require.NoError(t, err)
	_, err = conn.Write(append(line, '\n'))
	require.NoError(t, err)

	reader := bufio.NewReader(conn)
	require.NoError(t, conn.SetDeadline(time.Now().Add(2*time.Second)))

	firstLine, err := reader.ReadBytes('\n')
	require.NoError(t, err)
	var first ipc.Response
	require.NoError(t, json.Unmarshal(firstLine, &first))
	require.Equal(t, "transcribing", first.Status)
	require.NotNil(t, first.Duration)

	secondLine, err := reader.ReadBytes('\n')
	require.NoError(t, err)
	var second ipc.Response
	require.NoError(t, json.Unmarshal(secondLine, &second))
	require.Equal(t, "ok", second.Status)
	require.Equal(t, "reactor test transcript", second.Text)
}

func TestReactorStatusWhenIdle(t *testing.T) {
	socketPath, stop := startReactor(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Cmd: "status"}, time.Second)
	require.NoError(t, err)
	require.Equal(t, "idle", resp.State)
}

func TestReactorUnknownCommand(t *testing.T) {
	socketPath, stop := startReactor(t)
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	resp, err := ipc.Send(ctx, socketPath, ipc.Request{Cmd: "bogus"}, time.Second)
	require.NoError(t, err)
	require.Equal(t, "error", resp.Status)
}

func TestReactorShutsDownOnContextCancel(t *testing.T) {
	_, stop := startReactor(t)
	stop()
}
