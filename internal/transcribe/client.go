// Package transcribe posts captured audio to a remote speech-to-text
// service and parses its reply.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/speakanywhere/speakanywhere/internal/wav"
)

// ErrEmptyAudio is returned immediately for a zero-length sample buffer,
// before any network call is attempted.
var ErrEmptyAudio = errors.New("transcribe: empty audio")

// Result is the immutable outcome of one transcription call.
type Result struct {
	Text          string
	DurationSec   float64
	ProcessingSec float64
}

// Backend produces a Result from raw PCM samples, or a typed error.
type Backend interface {
	Transcribe(ctx context.Context, samples []int16, sampleRate int) (Result, error)
}

// APIFormat selects the multipart form dialect spoken to the backend.
type APIFormat string

const (
	FormatWhisperCPP APIFormat = "whisper.cpp"
	FormatOpenAI     APIFormat = "openai"
)

const (
	connectTimeout = 10 * time.Second
	overallTimeout = 120 * time.Second
)

// LANBackend talks to a local or LAN-hosted whisper.cpp server or an
// OpenAI-compatible transcription endpoint over HTTP multipart POST.
type LANBackend struct {
	URL      string
	Format   APIFormat
	Language string

	httpClient *http.Client
}

// NewLANBackend builds a backend against baseURL using format (default
// whisper.cpp when empty) and language hint.
func NewLANBackend(baseURL string, format APIFormat, language string) *LANBackend {
	if format == "" {
		format = FormatWhisperCPP
	}
	dialer := &net.Dialer{Timeout: connectTimeout}
	return &LANBackend{
		URL:      baseURL,
		Format:   format,
		Language: language,
		httpClient: &http.Client{
			Timeout: overallTimeout,
			Transport: &http.Transport{
				DialContext: dialer.DialContext,
			},
		},
	}
}

// Transcribe encodes samples as WAV, posts the configured multipart form,
// and parses the JSON reply.
func (b *LANBackend) Transcribe(ctx context.Context, samples []int16, sampleRate int) (Result, error) {
	if len(samples) == 0 {
		return Result{}, ErrEmptyAudio
	}

	durationSec := float64(len(samples)) / float64(sampleRate)
	wavData := wav.Encode(samples, uint32(sampleRate))

	endpoint, body, contentType, err := b.buildRequest(wavData)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := b.httpClient.Do(req)
	processingSec := time.Since(start).Seconds()
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: transport error: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("transcribe: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Result{}, fmt.Errorf("transcribe: server returned status %d: %s", resp.StatusCode, string(respBody))
	}

	text, err := parseReply(respBody)
	if err != nil {
		return Result{}, err
	}

	return Result{
		Text:          strings.Trim(text, " \t\r\n"),
		DurationSec:   durationSec,
		ProcessingSec: processingSec,
	}, nil
}

func (b *LANBackend) buildRequest(wavData []byte) (endpoint string, body io.Reader, contentType string, err error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", `form-data; name="file"; filename="audio.wav"`)
	header.Set("Content-Type", "audio/wav")
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", nil, "", fmt.Errorf("transcribe: build form: %w", err)
	}
	if _, err := part.Write(wavData); err != nil {
		return "", nil, "", fmt.Errorf("transcribe: write audio part: %w", err)
	}

	switch b.Format {
	case FormatOpenAI:
		endpoint = strings.TrimRight(b.URL, "/") + "/v1/audio/transcriptions"
		_ = mw.WriteField("model", "whisper-1")
		_ = mw.WriteField("language", b.Language)
		_ = mw.WriteField("response_format", "json")
	default:
		endpoint = strings.TrimRight(b.URL, "/") + "/inference"
		_ = mw.WriteField("temperature", "0.0")
		_ = mw.WriteField("response_format", "json")
		if b.Language != "" {
			_ = mw.WriteField("language", b.Language)
		}
	}

	if err := mw.Close(); err != nil {
		return "", nil, "", fmt.Errorf("transcribe: close form: %w", err)
	}

	return endpoint, buf, mw.FormDataContentType(), nil
}

type replyEnvelope struct {
	Text  *string `json:"text"`
	Error *string `json:"error"`
}

func parseReply(body []byte) (string, error) {
	var reply replyEnvelope
	if err := json.Unmarshal(body, &reply); err != nil {
		return "", fmt.Errorf("transcribe: parse JSON reply: %w", err)
	}
	switch {
	case reply.Text != nil:
		return *reply.Text, nil
	case reply.Error != nil:
		return "", fmt.Errorf("transcribe: server error: %s", *reply.Error)
	default:
		return "", fmt.Errorf("transcribe: unexpected response: %s", string(body))
	}
}
