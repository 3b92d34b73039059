// Package session implements the daemon's recording state machine: Idle,
// Recording, and Transcribing.
package session

import (
	"time"

	"github.com/speakanywhere/speakanywhere/internal/ring"
)

// State is one of the three variants the daemon core dispatches against.
type State int

const (
	Idle State = iota
	Recording
	Transcribing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Transcribing:
		return "transcribing"
	default:
		return "unknown"
	}
}

// StartFunc and StopFunc decouple Session from the concrete audio capture
// type; the daemon wires them to Capture.Start/Capture.Stop.
type StartFunc func() error
type StopFunc func() error

// Session is the single per-process instance of the recording state
// machine. It is not safe for concurrent use; the daemon core, which owns
// the reactor goroutine, is the only caller.
type Session struct {
	ring       *ring.Buffer
	startAudio StartFunc
	stopAudio  StopFunc
	now        func() time.Time

	state         State
	recordStart   time.Time
	windowContext WindowContext
}

// New builds a Session over the given ring buffer and audio start/stop
// hooks.
func New(buf *ring.Buffer, start StartFunc, stop StopFunc) *Session {
	return &Session{
		ring:       buf,
		startAudio: start,
		stopAudio:  stop,
		now:        time.Now,
	}
}

// State returns the current variant.
func (s *Session) State() State {
	return s.state
}

// WindowContext returns the snapshot captured at the last start_recording.
func (s *Session) WindowContext() WindowContext {
	return s.windowContext
}

// StartRecording requires Idle. It resets the ring buffer, starts audio
// capture, and on success snapshots the window context and the start
// time before transitioning to Recording. On failure there is no state
// change.
func (s *Session) StartRecording(window WindowContext) bool {
	if s.state != Idle {
		return false
	}

	s.ring.Reset()
	if err := s.startAudio(); err != nil {
		return false
	}

	s.recordStart = s.now()
	s.windowContext = window
	s.state = Recording
	return true
}

// StopRecording requires Recording. It stops audio capture and drains the
// ring buffer, transitioning to Transcribing regardless of whether any
// audio was actually captured — an empty result tells the caller to
// return to Idle immediately instead of starting a worker.
func (s *Session) StopRecording() []int16 {
	if s.state != Recording {
		return nil
	}

	_ = s.stopAudio()
	samples := s.ring.DrainAll()
	s.state = Transcribing
	return samples
}

// SetIdle is an unconditional transition, used once a transcription
// worker's result has been delivered or a recording produced no audio.
func (s *Session) SetIdle() {
	s.state = Idle
}

// RecordingDuration returns time elapsed since start_recording while
// Recording, zero otherwise.
func (s *Session) RecordingDuration() time.Duration {
	if s.state != Recording {
		return 0
	}
	return s.now().Sub(s.recordStart)
}
