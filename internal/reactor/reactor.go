// Package reactor drives the daemon's single-threaded event loop: a
// select over OS signals, IPC commands and disconnects, transcription
// worker completions, and window-manager focus events. It is the
// goroutine/channel equivalent of an epoll loop keyed on signalfd,
// eventfd, and accepted socket descriptors — every event still funnels
// through one goroutine so daemoncore.Core never needs its own locking.
package reactor

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/speakanywhere/speakanywhere/internal/daemoncore"
	"github.com/speakanywhere/speakanywhere/internal/ipc"
	"github.com/speakanywhere/speakanywhere/internal/wm"
)

// Reactor owns the select loop. It is built once per daemon run and
// discarded on shutdown.
type Reactor struct {
	core   *daemoncore.Core
	server *ipc.Server
	wmIPC  *wm.IPC
	logger *slog.Logger
}

// New builds a Reactor. wmIPC may be nil when no window manager
// connection was available at startup; the reactor simply never selects
// on it.
func New(core *daemoncore.Core, server *ipc.Server, wmIPC *wm.IPC, logger *slog.Logger) *Reactor {
	return &Reactor{core: core, server: server, wmIPC: wmIPC, logger: logger}
}

// Run blocks until SIGINT, SIGTERM, or ctx is cancelled, dispatching
// every IPC command, worker completion, and window focus event it
// observes in the meantime. It always drains any in-flight transcription
// before returning.
func (r *Reactor) Run(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go r.server.Serve(runCtx)

	var wmEvents <-chan wm.FocusedWindow
	if r.wmIPC != nil && r.wmIPC.EventConn() != nil {
		wmEvents = r.watchWindowEvents(runCtx)
	}

	for {
		select {
		case <-sigCh:
			r.log("received signal, shutting down")
			r.core.Shutdown(context.Background())
			return nil

		case <-ctx.Done():
			r.core.Shutdown(context.Background())
			return ctx.Err()

		case cmd := <-r.server.Commands():
			resp := r.core.Handle(cmd.Req.Cmd, cmd.Req)
			_ = cmd.Conn.Send(resp)
			if resp.Status == "transcribing" {
				r.core.AddWaitingClient(cmd.Conn)
			}

		case disc := <-r.server.Disconnects():
			r.core.RemoveWaitingClient(disc)

		case wr := <-r.core.WorkerDone():
			r.core.OnTranscriptionComplete(runCtx, wr)

		case focus, ok := <-wmEvents:
			if !ok {
				wmEvents = nil
				continue
			}
			r.core.SetFocusedWindow(focus)
		}
	}
}

// watchWindowEvents runs the blocking wm.IPC.ReadEvent loop on its own
// goroutine and republishes results on a channel the select loop can
// read alongside everything else; ReadEvent has no context-cancellation
// hook of its own, so the goroutine exits only when the underlying
// connection is closed.
func (r *Reactor) watchWindowEvents(ctx context.Context) <-chan wm.FocusedWindow {
	out := make(chan wm.FocusedWindow)
	go func() {
		defer close(out)
		for {
			focus, ok := r.wmIPC.ReadEvent()
			if !ok {
				return
			}
			select {
			case out <- focus:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

func (r *Reactor) log(msg string) {
	if r.logger == nil {
		return
	}
	r.logger.Info(msg)
}
