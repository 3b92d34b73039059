// Package config loads and resolves the daemon's JSON configuration file.
package config

// Config is the fully-resolved runtime configuration; every field has a
// default so a missing or partial file still produces a usable value.
type Config struct {
	Backend BackendConfig `json:"backend"`
	Output  OutputConfig  `json:"output"`
	Audio   AudioConfig   `json:"audio"`
	Agents  []string      `json:"agents"`
	Metrics MetricsConfig `json:"metrics"`
}

// BackendConfig selects and configures the transcription backend.
type BackendConfig struct {
	Type      string `json:"type"`
	URL       string `json:"url"`
	APIFormat string `json:"api_format"`
	Language  string `json:"language"`
}

// OutputConfig controls the fallback delivery method.
type OutputConfig struct {
	Default string `json:"default"`
}

// AudioConfig controls capture rate and ring buffer sizing.
type AudioConfig struct {
	SampleRate int `json:"sample_rate"`
	MaxSeconds int `json:"max_seconds"`
}

// RingBufferBytes derives the ring buffer capacity from MaxSeconds and
// SampleRate; there is no independent config key for it.
func (a AudioConfig) RingBufferBytes() int {
	return a.MaxSeconds * a.SampleRate * 2
}

// MetricsConfig is ambient observability, not a spec-mandated feature: it
// stays off by default.
type MetricsConfig struct {
	Listen string `json:"listen"`
}

// Default returns the configuration used when no file is present or a
// key is absent from one that is.
func Default() Config {
	return Config{
		Backend: BackendConfig{
			Type:      "lan",
			URL:       "http://localhost:8080",
			APIFormat: "whisper.cpp",
			Language:  "en",
		},
		Output: OutputConfig{
			Default: "clipboard",
		},
		Audio: AudioConfig{
			SampleRate: 16000,
			MaxSeconds: 120,
		},
		Agents: []string{"claude", "aider", "gh", "cursor"},
	}
}
