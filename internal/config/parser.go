package config

import "encoding/json"

// partial mirrors Config but with every leaf as a pointer, so a partial
// JSON document can be merged over defaults without an unset field
// falling back to Go's zero value.
type partial struct {
	Backend *struct {
		Type      *string `json:"type"`
		URL       *string `json:"url"`
		APIFormat *string `json:"api_format"`
		Language  *string `json:"language"`
	} `json:"backend"`
	Output *struct {
		Default *string `json:"default"`
	} `json:"output"`
	Audio *struct {
		SampleRate *int `json:"sample_rate"`
		MaxSeconds *int `json:"max_seconds"`
	} `json:"audio"`
	Agents  *[]string `json:"agents"`
	Metrics *struct {
		Listen *string `json:"listen"`
	} `json:"metrics"`
}

// Parse merges a JSON document over base, leaving any key the document
// doesn't mention untouched. A parse error returns base unchanged
// alongside a descriptive error; the caller decides whether that's fatal.
func Parse(data []byte, base Config) (Config, error) {
	var p partial
	if err := json.Unmarshal(data, &p); err != nil {
		return base, err
	}

	cfg := base

	if p.Backend != nil {
		if p.Backend.Type != nil {
			cfg.Backend.Type = *p.Backend.Type
		}
		if p.Backend.URL != nil {
			cfg.Backend.URL = *p.Backend.URL
		}
		if p.Backend.APIFormat != nil {
			cfg.Backend.APIFormat = *p.Backend.APIFormat
		}
		if p.Backend.Language != nil {
			cfg.Backend.Language = *p.Backend.Language
		}
	}

	if p.Output != nil && p.Output.Default != nil {
		cfg.Output.Default = *p.Output.Default
	}

	if p.Audio != nil {
		if p.Audio.SampleRate != nil {
			cfg.Audio.SampleRate = *p.Audio.SampleRate
		}
		if p.Audio.MaxSeconds != nil {
			cfg.Audio.MaxSeconds = *p.Audio.MaxSeconds
		}
	}

	if p.Agents != nil {
		cfg.Agents = *p.Agents
	}

	if p.Metrics != nil && p.Metrics.Listen != nil {
		cfg.Metrics.Listen = *p.Metrics.Listen
	}

	return cfg, nil
}
