// Command speakanywhered is the speak-anywhere background daemon: it
// captures microphone audio on command, transcribes it against a
// configured backend, and delivers the resulting text into the focused
// application.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/speakanywhere/speakanywhere/internal/audio"
	"github.com/speakanywhere/speakanywhere/internal/cli"
	"github.com/speakanywhere/speakanywhere/internal/config"
	"github.com/speakanywhere/speakanywhere/internal/daemonize"
	"github.com/speakanywhere/speakanywhere/internal/daemoncore"
	"github.com/speakanywhere/speakanywhere/internal/history"
	"github.com/speakanywhere/speakanywhere/internal/ipc"
	"github.com/speakanywhere/speakanywhere/internal/logging"
	"github.com/speakanywhere/speakanywhere/internal/metrics"
	"github.com/speakanywhere/speakanywhere/internal/output"
	"github.com/speakanywhere/speakanywhere/internal/procinspect"
	"github.com/speakanywhere/speakanywhere/internal/reactor"
	"github.com/speakanywhere/speakanywhere/internal/ring"
	"github.com/speakanywhere/speakanywhere/internal/session"
	"github.com/speakanywhere/speakanywhere/internal/transcribe"
	"github.com/speakanywhere/speakanywhere/internal/version"
	"github.com/speakanywhere/speakanywhere/internal/wm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags, err := cli.ParseDaemon(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n\n", err)
		fmt.Fprint(os.Stderr, cli.DaemonHelpText("speakanywhered"))
		return 2
	}
	if flags.ShowHelp {
		fmt.Fprint(os.Stdout, cli.DaemonHelpText("speakanywhered"))
		return 0
	}
	if flags.ShowVer {
		fmt.Fprintln(os.Stdout, version.String())
		return 0
	}

	if !flags.Foreground {
		exitParent, err := daemonize.Daemonize()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			return 1
		}
		if exitParent {
			return 0
		}
	}

	logRuntime, err := logging.New(flags.Verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: setup logging: %v\n", err)
		return 1
	}
	defer func() { _ = logRuntime.Close() }()
	logger := logRuntime.Logger

	cfgLoaded, err := config.Load(flags.ConfigPath)
	if err != nil {
		logger.Error("load config failed", "error", err.Error())
		return 1
	}
	for _, w := range cfgLoaded.Warnings {
		logger.Warn("config warning", "message", w.Message)
	}
	cfg := cfgLoaded.Config

	logger.Info("starting",
		"backend", cfg.Backend.Type,
		"backend_url", cfg.Backend.URL,
		"config", cfgLoaded.Path,
		"log", logRuntime.Path,
		"version", version.String(),
	)

	backend, err := buildBackend(cfg)
	if err != nil {
		logger.Error("unknown backend", "error", err.Error())
		return 1
	}

	histStore := openHistory(logger)
	defer func() { _ = histStore.Close() }()

	buf := ring.New(cfg.Audio.RingBufferBytes())
	capture := audio.New(buf, cfg.Audio.SampleRate, "")
	sess := session.New(buf,
		func() error { return capture.Start(context.Background()) },
		func() error { return capture.Stop() },
	)

	detector := procinspect.New(cfg.Agents)
	outputs := output.NewFactory(nil)

	core := daemoncore.New(cfg, logger, sess, backend, histStore, detector, outputs)

	socketPath := ipc.SocketPath()
	listener, err := ipc.Listen(socketPath)
	if err != nil {
		logger.Error("listen ipc socket failed", "error", err.Error())
		return 1
	}
	logger.Info("ipc listening", "path", socketPath)
	server := ipc.NewServer(listener)
	defer func() { _ = server.Close() }()

	wmIPC := connectWindowManager(logger)
	core.SetFocusedWindow(wmIPC.GetFocusedWindow())

	if cfg.Metrics.Listen != "" {
		metricsServer := metrics.NewServer(cfg.Metrics.Listen)
		go func() {
			if err := metricsServer.Serve(context.Background()); err != nil {
				logger.Warn("metrics server exited", "error", err.Error())
			}
		}()
		logger.Info("metrics listening", "addr", cfg.Metrics.Listen)
	}

	r := reactor.New(core, server, wmIPC, logger)
	if err := r.Run(context.Background()); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("reactor exited", "error", err.Error())
		return 1
	}

	return 0
}

func buildBackend(cfg config.Config) (transcribe.Backend, error) {
	switch cfg.Backend.Type {
	case "lan":
		return transcribe.NewLANBackend(cfg.Backend.URL, transcribe.APIFormat(cfg.Backend.APIFormat), cfg.Backend.Language), nil
	default:
		return nil, fmt.Errorf("unknown backend type: %s", cfg.Backend.Type)
	}
}

func openHistory(logger *slog.Logger) history.Store {
	dataDir := config.DataDir()
	dbPath := "/tmp/speak-anywhere/history.db"
	if dataDir != "" {
		dbPath = filepath.Join(dataDir, "history.db")
	}

	store, err := history.Open(dbPath)
	if err != nil {
		logger.Warn("history db failed to open, history disabled", "error", err.Error())
		return &history.NullStore{}
	}
	return store
}

// connectWindowManager attempts a Sway/i3-ipc connection. Failure is not
// fatal: window-context enrichment is simply disabled.
func connectWindowManager(logger *slog.Logger) *wm.IPC {
	w := wm.New()
	if err := w.Connect(); err != nil {
		logger.Info("window manager ipc not available, window context disabled", "error", err.Error())
		return w
	}
	if err := w.SubscribeFocusEvents(); err != nil {
		logger.Info("window manager focus subscription failed", "error", err.Error())
		return w
	}
	logger.Info("window manager ipc connected")
	return w
}
