package audio

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/kartoza/kartoza-audio-norms/internal/ffmpeg"
	"github.com/kartoza/kartoza-audio-norms/internal/models"
)

// Processor runs the detect, loudnorm and volume jobs through an encoder Runner
type Processor struct {
	runner  ffmpeg.Runner
	options models.AudioProcessingOptions
	logger  *slog.Logger
}

// NewProcessor creates a new audio processor
func NewProcessor(runner ffmpeg.Runner, opts models.AudioProcessingOptions, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Processor{runner: runner, options: opts, logger: logger}
}

// DetectLogPath is the volumedetect log, written next to the input.
func DetectLogPath(m models.MediaFile) string {
	return filepath.Join(m.Dir, m.Stem+"_detect.log")
}

// VolumeOutputPath is "<stem>_sound.<ext>" in the volume output directory,
// which is the working directory by default regardless of the input's location.
func (p *Processor) VolumeOutputPath(m models.MediaFile) string {
	return filepath.Join(p.options.VolumeOutputDir, m.WithSuffix("_sound"))
}

// DetectVolume runs volumedetect over path and returns the log file path.
func (p *Processor) DetectVolume(ctx context.Context, path string) (string, error) {
	m, err := models.ParseMediaFile(path)
	if err != nil {
		return "", err
	}

	logPath := DetectLogPath(m)
	p.logger.Info("detecting volume", "input", path, "log", logPath)

	err = p.runner.Run(ctx, ffmpeg.Invocation{
		Args:    ffmpeg.DetectArgs(path),
		LogPath: logPath,
	})
	if err != nil {
		return "", fmt.Errorf("volume detection failed: %w", err)
	}

	return logPath, nil
}

// ChangeVolume applies a fixed gain and returns the output path.
func (p *Processor) ChangeVolume(ctx context.Context, path string, gainDB float64) (string, error) {
	m, err := models.ParseMediaFile(path)
	if err != nil {
		return "", err
	}

	output := p.VolumeOutputPath(m)
	if err := os.MkdirAll(p.options.VolumeOutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	p.logger.Info("changing volume", "input", path, "gain_db", ffmpeg.FormatDB(gainDB), "output", output)

	err = p.runner.Run(ctx, ffmpeg.Invocation{
		Args: ffmpeg.VolumeArgs(path, output, p.options.AudioCodec, gainDB),
	})
	if err != nil {
		return "", fmt.Errorf("volume change failed: %w", err)
	}

	return output, nil
}

// MaxVolumeFromLog reads the max_volume measurement from a volumedetect log.
func MaxVolumeFromLog(logPath string) (float64, error) {
	f, err := os.Open(logPath)
	if err != nil {
		return 0, fmt.Errorf("failed to open detection log: %w", err)
	}
	defer f.Close()

	v, err := ParseMaxVolume(f)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", logPath, err)
	}
	return v, nil
}
