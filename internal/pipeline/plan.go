package pipeline

import (
	"errors"
	"fmt"

	"github.com/kartoza/kartoza-audio-norms/internal/ffmpeg"
)

// ErrDetectionRequired means a gain was requested from detection without
// running detection.
var ErrDetectionRequired = errors.New("no volume value provided; pass --detect as well to adjust max volume towards 0 dB automatically")

// Stage is one step of a job.
type Stage int

const (
	StageDetect Stage = iota
	StageLoudnorm
	StageVolume
)

func (s Stage) String() string {
	switch s {
	case StageDetect:
		return "detect"
	case StageLoudnorm:
		return "loudnorm"
	case StageVolume:
		return "volume"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// Title is the stage's name in progress output.
func (s Stage) Title() string {
	switch s {
	case StageDetect:
		return "Detecting volume"
	case StageLoudnorm:
		return "Normalizing loudness"
	case StageVolume:
		return "Changing volume"
	default:
		return s.String()
	}
}

// VolumeMode selects where the volume stage gets its gain.
type VolumeMode int

const (
	// VolumeNone skips the volume stage.
	VolumeNone VolumeMode = iota
	// VolumeExplicit uses Request.Gain.
	VolumeExplicit
	// VolumeFromDetection negates the detected max_volume.
	VolumeFromDetection
)

// Request is what the user asked for.
type Request struct {
	Input    string
	Detect   bool
	Loudnorm bool
	Volume   VolumeMode
	// Gain in dB, used with VolumeExplicit.
	Gain float64
}

// Plan is a validated, ordered list of stages for one input.
type Plan struct {
	Request  Request
	Stages   []Stage
	Warnings []string
}

// NewPlan validates req and orders its stages.
func NewPlan(req Request) (*Plan, error) {
	if req.Input == "" {
		return nil, errors.New("no input file given")
	}

	p := &Plan{Request: req}

	if req.Detect {
		p.Stages = append(p.Stages, StageDetect)
	}
	if req.Loudnorm {
		p.Stages = append(p.Stages, StageLoudnorm)
	}

	switch req.Volume {
	case VolumeNone:
	case VolumeExplicit:
		if req.Detect {
			p.Warnings = append(p.Warnings, fmt.Sprintf(
				"both --detect and a volume value of %s dB given; using %s dB instead of reading the detection log",
				ffmpeg.FormatDB(req.Gain), ffmpeg.FormatDB(req.Gain)))
		}
		p.Stages = append(p.Stages, StageVolume)
	case VolumeFromDetection:
		if !req.Detect {
			return nil, ErrDetectionRequired
		}
		p.Stages = append(p.Stages, StageVolume)
	default:
		return nil, fmt.Errorf("unknown volume mode %d", int(req.Volume))
	}

	return p, nil
}

// Empty reports whether the plan has nothing to run.
func (p *Plan) Empty() bool {
	return len(p.Stages) == 0
}

// Has reports whether s is part of the plan.
func (p *Plan) Has(s Stage) bool {
	for _, st := range p.Stages {
		if st == s {
			return true
		}
	}
	return false
}
