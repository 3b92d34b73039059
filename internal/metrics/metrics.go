// Package metrics exposes Prometheus counters and histograms for the
// daemon's recording and transcription lifecycle. It is ambient
// observability: nothing else in the daemon depends on it being wired up,
// and it stays inert until the config's metrics.listen address is set.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	recordingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "speak_anywhere_recordings_total",
		Help: "Total number of recordings started",
	})

	transcriptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speak_anywhere_transcriptions_total",
		Help: "Total number of transcription attempts",
	}, []string{"outcome"})

	transcriptionSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speak_anywhere_transcription_seconds",
		Help:    "Time spent processing a transcription request",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
	})

	recordingSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "speak_anywhere_recording_seconds",
		Help:    "Duration of captured audio per recording",
		Buckets: []float64{1, 2, 5, 10, 30, 60, 120},
	})

	outputDeliveryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "speak_anywhere_output_delivery_total",
		Help: "Total number of output delivery attempts",
	}, []string{"method", "outcome"})
)

// RecordStart marks the beginning of a recording session.
func RecordStart() {
	recordingsTotal.Inc()
}

// RecordStop reports the duration of audio captured for a finished
// recording.
func RecordStop(duration time.Duration) {
	recordingSeconds.Observe(duration.Seconds())
}

// RecordTranscription reports the outcome and wall time of a transcription
// backend call.
func RecordTranscription(success bool, processing time.Duration) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	transcriptionsTotal.WithLabelValues(outcome).Inc()
	transcriptionSeconds.Observe(processing.Seconds())
}

// RecordDelivery reports whether output delivery for the given method
// succeeded.
func RecordDelivery(method string, success bool) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	outputDeliveryTotal.WithLabelValues(method, outcome).Inc()
}

// Server exposes /metrics over HTTP when a listen address is configured.
type Server struct {
	httpServer *http.Server
}

// NewServer builds a metrics HTTP server bound to addr. It does not start
// listening until Serve is called.
func NewServer(addr string) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &Server{httpServer: &http.Server{Addr: addr, Handler: mux}}
}

// Serve blocks until ctx is cancelled, then shuts the server down.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
