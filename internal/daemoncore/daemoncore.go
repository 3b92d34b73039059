// Package daemoncore dispatches IPC commands against the recording
// session, owns the transcription worker's lifecycle, and enriches window
// context with process-tree agent detection before handing text off to
// output delivery and history.
package daemoncore

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/speakanywhere/speakanywhere/internal/config"
	"github.com/speakanywhere/speakanywhere/internal/history"
	"github.com/speakanywhere/speakanywhere/internal/ipc"
	"github.com/speakanywhere/speakanywhere/internal/metrics"
	"github.com/speakanywhere/speakanywhere/internal/output"
	"github.com/speakanywhere/speakanywhere/internal/procinspect"
	"github.com/speakanywhere/speakanywhere/internal/session"
	"github.com/speakanywhere/speakanywhere/internal/transcribe"
	"github.com/speakanywhere/speakanywhere/internal/wm"
)

// WorkerResult is what a transcription worker goroutine hands back on the
// completion channel. CorrelationID lets a stale result from a worker
// started before a shutdown race be told apart from the one Core is
// actually waiting on, though Core currently only ever has one worker in
// flight at a time.
type WorkerResult struct {
	CorrelationID string
	Result        transcribe.Result
	Err           error
	Window        session.WindowContext
	OutputMethod  string
}

// Core holds all daemon business state. Every method on it must be
// called from the single reactor goroutine; Core does no internal
// locking of its own.
type Core struct {
	cfg      config.Config
	logger   *slog.Logger
	session  *session.Session
	backend  transcribe.Backend
	history  history.Store
	detector *procinspect.Detector
	outputs  *output.Factory

	focusedWindow  wm.FocusedWindow
	pendingOutput  string
	waitingClients []*ipc.ClientConn

	workerDone chan WorkerResult
	inflightID string
}

// New builds a Core. history may be a NullStore when the on-disk database
// failed to open; Core does not care which.
func New(cfg config.Config, logger *slog.Logger, sess *session.Session, backend transcribe.Backend, hist history.Store, detector *procinspect.Detector, outputs *output.Factory) *Core {
	return &Core{
		cfg:        cfg,
		logger:     logger,
		session:    sess,
		backend:    backend,
		history:    hist,
		detector:   detector,
		outputs:    outputs,
		workerDone: make(chan WorkerResult, 1),
	}
}

// WorkerDone exposes the channel the reactor selects on to learn when a
// transcription worker has finished.
func (c *Core) WorkerDone() <-chan WorkerResult {
	return c.workerDone
}

// SetFocusedWindow records the window manager's latest focus observation,
// consulted the next time a recording starts.
func (c *Core) SetFocusedWindow(w wm.FocusedWindow) {
	c.focusedWindow = w
}

// Handle dispatches one parsed request to its handler and returns the
// response to send back immediately. A "stop" that starts transcription
// returns a "transcribing" status; the eventual result is delivered
// later to every client that was waiting when the worker finishes.
func (c *Core) Handle(cmd string, req ipc.Request) ipc.Response {
	switch cmd {
	case "start":
		return c.handleStart(req)
	case "stop":
		return c.handleStop(req)
	case "toggle":
		if c.session.State() == session.Recording {
			return c.handleStop(req)
		}
		return c.handleStart(req)
	case "status":
		return c.handleStatus()
	case "history":
		return c.handleHistory(req)
	default:
		return ipc.Response{Status: "error", Message: "unknown command"}
	}
}

func (c *Core) handleStart(req ipc.Request) ipc.Response {
	if c.session.State() != session.Idle {
		return ipc.Response{Status: "error", Message: "already recording or transcribing"}
	}

	c.pendingOutput = req.Output
	if c.pendingOutput == "" {
		c.pendingOutput = c.cfg.Output.Default
	}

	window := c.enrichWindowInfo(c.focusedWindow)
	if !c.session.StartRecording(window) {
		return ipc.Response{Status: "error", Message: "failed to start recording"}
	}

	metrics.RecordStart()
	msg := "recording started"
	if window.Context != "" {
		msg = fmt.Sprintf("recording started (%s)", window.Context)
	}
	c.log(msg)
	return ipc.Response{Status: "ok", Message: "recording"}
}

func (c *Core) handleStop(_ ipc.Request) ipc.Response {
	if c.session.State() != session.Recording {
		return ipc.Response{Status: "error", Message: "not recording"}
	}

	duration := c.session.RecordingDuration()
	samples := c.session.StopRecording()
	if len(samples) == 0 {
		c.session.SetIdle()
		return ipc.Response{Status: "error", Message: "no audio captured"}
	}

	metrics.RecordStop(duration)
	durationSec := float64(len(samples)) / float64(c.cfg.Audio.SampleRate)
	c.log(fmt.Sprintf("recording stopped, %.1fs audio, transcribing...", durationSec))

	c.startTranscription(samples, c.session.WindowContext(), c.pendingOutput)

	return ipc.Response{Status: "transcribing", Duration: ipc.Float(durationSec)}
}

func (c *Core) handleStatus() ipc.Response {
	resp := ipc.Response{Status: "ok"}
	switch c.session.State() {
	case session.Idle:
		resp.State = "idle"
	case session.Recording:
		resp.State = "recording"
		resp.Duration = ipc.Float(c.session.RecordingDuration().Seconds())
	case session.Transcribing:
		resp.State = "transcribing"
	}
	return resp
}

func (c *Core) handleHistory(req ipc.Request) ipc.Response {
	limit := req.Limit
	if limit <= 0 {
		limit = 10
	}
	entries, err := c.history.Recent(limit)
	if err != nil {
		return ipc.Response{Status: "error", Message: err.Error()}
	}

	resp := ipc.Response{Status: "ok", Entries: make([]ipc.HistoryEntry, 0, len(entries))}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, ipc.HistoryEntry{
			ID:             e.ID,
			Timestamp:      e.Timestamp,
			Text:           e.Text,
			AudioDuration:  e.AudioDuration,
			ProcessingTime: e.ProcessingTime,
			AppContext:     e.AppContext,
		})
	}
	return resp
}

// startTranscription launches a worker goroutine that transcribes audio
// against the configured backend and reports back over workerDone. It is
// the idiomatic Go substitute for a std::jthread plus a shared result
// slot: the channel carries the result instead of a field the reactor
// would have to poll.
func (c *Core) startTranscription(samples []int16, window session.WindowContext, outputMethod string) {
	correlationID := uuid.New().String()
	c.inflightID = correlationID
	sampleRate := c.cfg.Audio.SampleRate
	backend := c.backend

	go func() {
		start := time.Now()
		result, err := backend.Transcribe(context.Background(), samples, sampleRate)
		processing := time.Since(start)
		metrics.RecordTranscription(err == nil, processing)

		c.workerDone <- WorkerResult{
			CorrelationID: correlationID,
			Result:        result,
			Err:           err,
			Window:        window,
			OutputMethod:  outputMethod,
		}
	}()
}

// OnTranscriptionComplete is called by the reactor when a WorkerResult
// arrives. It delivers the text via output, records history, replies to
// every client waiting on this recording, and returns the session to
// Idle.
func (c *Core) OnTranscriptionComplete(ctx context.Context, wr WorkerResult) {
	if wr.CorrelationID != c.inflightID {
		return
	}

	var resp ipc.Response

	if wr.Err != nil {
		c.log(fmt.Sprintf("transcription failed: %v", wr.Err))
		resp = ipc.Response{Status: "error", Message: wr.Err.Error()}
	} else {
		tr := wr.Result
		c.log(fmt.Sprintf("transcription complete: %.1fs processing, %d chars", tr.ProcessingSec, len(tr.Text)))

		isTerminal := output.IsTerminal(wr.Window.AppName())

		deliverer := c.outputs.Build(output.Method(wr.OutputMethod), isTerminal)
		if deliverer != nil && tr.Text != "" {
			if err := deliverer.Deliver(ctx, tr.Text); err != nil {
				metrics.RecordDelivery(wr.OutputMethod, false)
				c.log(fmt.Sprintf("output delivery failed: %v", err))
			} else {
				metrics.RecordDelivery(wr.OutputMethod, true)
			}
		}

		if err := c.history.Insert(history.Entry{
			Text:           tr.Text,
			AudioDuration:  tr.DurationSec,
			ProcessingTime: tr.ProcessingSec,
			AppContext:     wr.Window.Context,
			AppID:          wr.Window.AppID,
			WindowTitle:    wr.Window.Title,
			Agent:          wr.Window.Agent,
			WorkingDir:     wr.Window.WorkingDir,
			Backend:        c.cfg.Backend.Type,
		}); err != nil {
			c.log(fmt.Sprintf("history insert failed: %v", err))
		}

		resp = ipc.Response{
			Status:         "ok",
			Text:           tr.Text,
			Duration:       ipc.Float(tr.DurationSec),
			ProcessingTime: ipc.Float(tr.ProcessingSec),
		}
	}

	for _, client := range c.waitingClients {
		_ = client.Send(resp)
	}
	c.waitingClients = nil

	c.session.SetIdle()
}

// AddWaitingClient registers a connection that issued "stop" and is
// blocked on the eventual transcription response.
func (c *Core) AddWaitingClient(client *ipc.ClientConn) {
	c.waitingClients = append(c.waitingClients, client)
}

// RemoveWaitingClient drops a connection that disconnected before its
// transcription finished.
func (c *Core) RemoveWaitingClient(client *ipc.ClientConn) {
	for i, w := range c.waitingClients {
		if w == client {
			c.waitingClients = append(c.waitingClients[:i], c.waitingClients[i+1:]...)
			return
		}
	}
}

// Shutdown tears down whatever the daemon was doing when asked to stop:
// a Recording session has its capture stopped so the Pulse stream isn't
// left running past process exit, and a Transcribing one is drained so
// its history row and client responses are not lost.
func (c *Core) Shutdown(ctx context.Context) {
	switch c.session.State() {
	case session.Recording:
		c.log("stopping capture before shutdown...")
		c.session.StopRecording()
		c.session.SetIdle()

	case session.Transcribing:
		c.log("waiting for pending transcription to complete...")
		select {
		case wr := <-c.workerDone:
			c.OnTranscriptionComplete(ctx, wr)
		case <-ctx.Done():
		}
	}
}

// enrichWindowInfo attaches agent/working-dir context to a raw window
// observation by walking its process tree, matching the original's
// enrich_window_info.
func (c *Core) enrichWindowInfo(w wm.FocusedWindow) session.WindowContext {
	info := session.WindowContext{
		AppID: w.AppID,
		Title: w.Title,
		PID:   w.PID,
	}

	if w.PID <= 0 || c.detector == nil {
		if info.AppID != "" {
			info.Context = info.AppID
		}
		return info
	}

	detection := c.detector.Detect(w.PID)
	app := info.AppName()
	if app == "" {
		app = info.Title
	}

	if !detection.Empty() {
		info.Agent = detection.Agent
		info.WorkingDir = detection.WorkingDir
		info.Context = fmt.Sprintf("%s code on %s", detection.Agent, app)
	} else {
		info.Context = app
	}

	return info
}

func (c *Core) log(msg string) {
	if c.logger == nil {
		return
	}
	c.logger.Info(strings.TrimSpace(msg))
}
