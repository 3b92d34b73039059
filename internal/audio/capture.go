// Package audio drives the PulseAudio record stream that feeds raw PCM
// into the session's ring buffer.
package audio

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// Sink receives PCM bytes off the realtime capture callback. *ring.Buffer
// satisfies it; tests substitute a plain recorder.
type Sink interface {
	Write(data []byte) int
}

// Capture owns one PulseAudio record stream writing into a Sink. It is
// driven from a dedicated PulseAudio callback goroutine; Start and Stop are
// called from the session goroutine.
type Capture struct {
	sink       Sink
	sampleRate int
	source     string

	mu       sync.Mutex
	client   *pulse.Client
	stream   *pulse.RecordStream
	started  bool
	inflight sync.WaitGroup
}

// New builds a Capture that writes into sink at sampleRate Hz, mono,
// 16-bit signed little-endian. source may be empty to use the default
// PulseAudio input.
func New(sink Sink, sampleRate int, source string) *Capture {
	return &Capture{sink: sink, sampleRate: sampleRate, source: source}
}

// Start opens the PulseAudio connection and begins streaming. It returns
// an error without leaving partial state on any failure.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.started {
		return nil
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("speak-anywhere"),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return fmt.Errorf("connect pulse server: %w", err)
	}

	var src *pulse.Source
	if c.source != "" {
		src, err = client.SourceByID(c.source)
	} else {
		src, err = client.DefaultSource()
	}
	if err != nil {
		client.Close()
		return fmt.Errorf("resolve audio source: %w", err)
	}

	writer := pulse.NewWriter(writerFunc(c.onPCM), pulseproto.FormatInt16LE)
	stream, err := client.NewRecord(
		writer,
		pulse.RecordSource(src),
		pulse.RecordMono,
		pulse.RecordSampleRate(c.sampleRate),
		pulse.RecordMediaName("speak-anywhere dictation"),
	)
	if err != nil {
		client.Close()
		return fmt.Errorf("create pulse record stream: %w", err)
	}

	c.client = client
	c.stream = stream
	c.started = true
	stream.Start()

	go func() {
		<-ctx.Done()
		_ = c.Stop()
	}()

	return nil
}

// Stop idempotently tears the stream down, blocking until any in-flight
// callback has returned so a subsequent ring buffer drain never races a
// write.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return nil
	}
	c.started = false
	stream := c.stream
	client := c.client
	c.mu.Unlock()

	if stream != nil {
		stream.Stop()
		stream.Close()
	}
	if client != nil {
		client.Close()
	}
	c.inflight.Wait()
	return nil
}

// IsCapturing reports the most recently declared start/stop intent.
func (c *Capture) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.started
}

// onPCM is invoked on PulseAudio's own goroutine for every buffer of
// captured audio. A short write (sink full) is expected under backpressure
// and is not an error.
func (c *Capture) onPCM(buffer []byte) (int, error) {
	if len(buffer) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	if !c.started {
		c.mu.Unlock()
		return 0, io.EOF
	}
	// Guard Add under the same mutex as c.started to avoid Add/Wait races.
	c.inflight.Add(1)
	c.mu.Unlock()
	defer c.inflight.Done()

	c.sink.Write(buffer)
	return len(buffer), nil
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) { return f(b) }
