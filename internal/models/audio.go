package models

import (
	"encoding/json"
	"fmt"
)

// LoudnormStats contains the measured audio levels from ffmpeg loudnorm analysis
type LoudnormStats struct {
	InputI            string `json:"input_i"`
	InputTP           string `json:"input_tp"`
	InputLRA          string `json:"input_lra"`
	InputThresh       string `json:"input_thresh"`
	OutputI           string `json:"output_i,omitempty"`
	OutputTP          string `json:"output_tp,omitempty"`
	OutputLRA         string `json:"output_lra,omitempty"`
	OutputThresh      string `json:"output_thresh,omitempty"`
	NormalizationType string `json:"normalization_type,omitempty"`
	TargetOffset      string `json:"target_offset"`
}

// UnmarshalJSON accepts each value either as a JSON string, as ffmpeg prints
// them, or as a JSON number. Numbers keep their literal text so they reach the
// second pass filter unchanged.
func (s *LoudnormStats) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	fields := map[string]*string{
		"input_i":            &s.InputI,
		"input_tp":           &s.InputTP,
		"input_lra":          &s.InputLRA,
		"input_thresh":       &s.InputThresh,
		"output_i":           &s.OutputI,
		"output_tp":          &s.OutputTP,
		"output_lra":         &s.OutputLRA,
		"output_thresh":      &s.OutputThresh,
		"normalization_type": &s.NormalizationType,
		"target_offset":      &s.TargetOffset,
	}
	for key, dst := range fields {
		v, ok := raw[key]
		if !ok {
			continue
		}
		text, err := statText(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = text
	}
	return nil
}

func statText(v json.RawMessage) (string, error) {
	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		return n.String(), nil
	}
	return "", fmt.Errorf("expected a string or number, got %s", v)
}

// RequiredFields returns the measured values the second pass needs, keyed by
// their JSON name and in the order ffmpeg documents them.
func (s *LoudnormStats) RequiredFields() [][2]string {
	return [][2]string{
		{"input_i", s.InputI},
		{"input_lra", s.InputLRA},
		{"input_tp", s.InputTP},
		{"input_thresh", s.InputThresh},
		{"target_offset", s.TargetOffset},
	}
}

// LoudnormTarget holds optional loudnorm targets. A zero value leaves ffmpeg's
// own defaults in place.
type LoudnormTarget struct {
	// IntegratedLoudness is the target integrated loudness in LUFS
	IntegratedLoudness float64 `json:"integrated_loudness,omitempty"`
	// TruePeak is the maximum true peak level in dBTP
	TruePeak float64 `json:"true_peak,omitempty"`
	// LoudnessRange is the target loudness range in LU
	LoudnessRange float64 `json:"loudness_range,omitempty"`
}

// IsZero reports whether no target has been set.
func (t LoudnormTarget) IsZero() bool {
	return t == LoudnormTarget{}
}

// AudioProcessingOptions contains options for the detect, loudnorm and volume jobs
type AudioProcessingOptions struct {
	// StatsDir holds the loudnorm stats cache and first pass logs
	StatsDir string `json:"stats_dir"`
	// NormalizedDir holds second pass outputs and logs
	NormalizedDir string `json:"normalized_dir"`
	// VolumeOutputDir is where volume-adjusted files are written
	VolumeOutputDir string `json:"volume_output_dir"`
	// AudioCodec is the encoder used for re-encoded audio streams
	AudioCodec string `json:"audio_codec"`
	// NegligibleDB is the max_volume magnitude at or below which no change is applied
	NegligibleDB float64 `json:"negligible_db"`
	// Target optionally overrides the loudnorm targets
	Target LoudnormTarget `json:"target"`
	// RefreshStats ignores any cached stats and reruns the first pass
	RefreshStats bool `json:"-"`
}

// DefaultAudioProcessingOptions returns the layout the tool has always used:
// stats_pass/ and normalized/ under the working directory.
func DefaultAudioProcessingOptions() AudioProcessingOptions {
	return AudioProcessingOptions{
		StatsDir:        "stats_pass",
		NormalizedDir:   "normalized",
		VolumeOutputDir: ".",
		AudioCodec:      "aac",
		NegligibleDB:    0.3,
	}
}
