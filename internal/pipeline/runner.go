package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"math"

	"github.com/kartoza/kartoza-audio-norms/internal/audio"
	"github.com/kartoza/kartoza-audio-norms/internal/ffmpeg"
)

// Processor is the set of audio jobs a plan can run.
type Processor interface {
	DetectVolume(ctx context.Context, path string) (string, error)
	Normalize(ctx context.Context, path string) (*audio.NormalizeResult, error)
	ChangeVolume(ctx context.Context, path string, gainDB float64) (string, error)
}

// Result collects the artifacts a plan produced.
type Result struct {
	DetectLog string
	Normalize *audio.NormalizeResult

	// MaxVolume is the detected max_volume when the gain came from detection.
	MaxVolume    float64
	HasMaxVolume bool
	// Gain is the applied gain in dB.
	Gain         float64
	VolumeOutput string
	// VolumeSkipped is set when the detected difference was negligible.
	VolumeSkipped bool
}

// Outputs lists the files a job wrote, in stage order.
func (r *Result) Outputs() []string {
	var out []string
	if r.DetectLog != "" {
		out = append(out, r.DetectLog)
	}
	if r.Normalize != nil {
		out = append(out, r.Normalize.Output)
	}
	if r.VolumeOutput != "" {
		out = append(out, r.VolumeOutput)
	}
	return out
}

// ProgressCallback is called when a stage starts or completes. index is the
// stage's position in the plan.
type ProgressCallback func(index int, stage Stage, completed bool, skipped bool, err error)

// Runner executes plans sequentially.
type Runner struct {
	proc         Processor
	negligibleDB float64
	logger       *slog.Logger
	onProgress   ProgressCallback
}

// NewRunner creates a plan runner. A detected max_volume whose magnitude is at
// or below negligibleDB leaves the file untouched.
func NewRunner(proc Processor, negligibleDB float64, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{proc: proc, negligibleDB: negligibleDB, logger: logger}
}

// SetProgressCallback sets the callback for stage updates
func (r *Runner) SetProgressCallback(cb ProgressCallback) {
	r.onProgress = cb
}

func (r *Runner) reportProgress(index int, stage Stage, completed bool, skipped bool, err error) {
	if r.onProgress != nil {
		r.onProgress(index, stage, completed, skipped, err)
	}
}

// Run executes every stage of plan in order, stopping at the first error.
func (r *Runner) Run(ctx context.Context, plan *Plan) (*Result, error) {
	for _, w := range plan.Warnings {
		r.logger.Warn(w)
	}

	res := &Result{}
	input := plan.Request.Input

	for i, stage := range plan.Stages {
		if err := ctx.Err(); err != nil {
			r.reportProgress(i, stage, true, false, err)
			return res, err
		}

		r.logger.Debug("running stage", "stage", stage.String(), "input", input)
		r.reportProgress(i, stage, false, false, nil)

		var err error
		switch stage {
		case StageDetect:
			res.DetectLog, err = r.proc.DetectVolume(ctx, input)
		case StageLoudnorm:
			res.Normalize, err = r.proc.Normalize(ctx, input)
		case StageVolume:
			err = r.runVolume(ctx, plan.Request, res)
		}
		if err != nil {
			err = fmt.Errorf("%s: %w", stage, err)
			r.reportProgress(i, stage, true, false, err)
			return res, err
		}
		r.reportProgress(i, stage, true, stage == StageVolume && res.VolumeSkipped, nil)
	}

	return res, nil
}

func (r *Runner) runVolume(ctx context.Context, req Request, res *Result) error {
	gain := req.Gain

	if req.Volume == VolumeFromDetection {
		if res.DetectLog == "" {
			return ErrDetectionRequired
		}
		r.logger.Info("reading max volume from detection log", "log", res.DetectLog)

		maxVolume, err := audio.MaxVolumeFromLog(res.DetectLog)
		if err != nil {
			return fmt.Errorf("unable to read max volume: %w", err)
		}
		res.MaxVolume = maxVolume
		res.HasMaxVolume = true

		if math.Abs(maxVolume) <= r.negligibleDB {
			res.VolumeSkipped = true
			r.logger.Info("difference too small to change volume",
				"max_volume_db", ffmpeg.FormatDB(maxVolume),
				"threshold_db", ffmpeg.FormatDB(r.negligibleDB))
			return nil
		}

		// Move the peak towards 0 dB.
		gain = -maxVolume
		r.logger.Info("adjusting volume from detection",
			"max_volume_db", ffmpeg.FormatDB(maxVolume),
			"gain_db", ffmpeg.FormatDB(gain))
	}

	out, err := r.proc.ChangeVolume(ctx, req.Input, gain)
	if err != nil {
		return err
	}
	res.Gain = gain
	res.VolumeOutput = out
	return nil
}
