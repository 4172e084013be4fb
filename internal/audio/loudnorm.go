package audio

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kartoza/kartoza-audio-norms/internal/ffmpeg"
	"github.com/kartoza/kartoza-audio-norms/internal/models"
)

// NormalizeResult describes a completed two-pass normalization
type NormalizeResult struct {
	Output    string
	Log       string
	StatsFile string
	Stats     *models.LoudnormStats
	// CachedStats is set when an existing stats file was used as-is.
	CachedStats bool
	// FirstPassRun is set when the measurement pass actually ran.
	FirstPassRun bool
}

// StatsPath is the stats cache for m.
func (p *Processor) StatsPath(m models.MediaFile) string {
	return filepath.Join(p.options.StatsDir, m.Stem+"_stats.json")
}

// StatsLogPath is the first pass log for m.
func (p *Processor) StatsLogPath(m models.MediaFile) string {
	return filepath.Join(p.options.StatsDir, m.Stem+".log")
}

// NormalizedPath is the second pass output for m.
func (p *Processor) NormalizedPath(m models.MediaFile) string {
	return filepath.Join(p.options.NormalizedDir, m.WithSuffix("_normalized"))
}

// NormalizedLogPath is the second pass log for m.
func (p *Processor) NormalizedLogPath(m models.MediaFile) string {
	return filepath.Join(p.options.NormalizedDir, m.Stem+"_normalized.log")
}

// Normalize performs two-pass loudness normalization. The first pass is
// skipped when a stats file for the same stem exists, and only the JSON
// extraction reruns when the first pass log is already on disk.
func (p *Processor) Normalize(ctx context.Context, path string) (*NormalizeResult, error) {
	m, err := models.ParseMediaFile(path)
	if err != nil {
		return nil, err
	}

	result := &NormalizeResult{
		Output:    p.NormalizedPath(m),
		Log:       p.NormalizedLogPath(m),
		StatsFile: p.StatsPath(m),
	}

	if !p.options.RefreshStats && fileExists(result.StatsFile) {
		result.CachedStats = true
		p.logger.Info("using cached loudnorm stats", "stats", result.StatsFile)
		p.warnIfStale(path, result.StatsFile)
	} else {
		ran, err := p.measure(ctx, m, result.StatsFile)
		if err != nil {
			return nil, err
		}
		result.FirstPassRun = ran
	}

	stats, err := LoadStats(result.StatsFile)
	if err != nil {
		return nil, err
	}
	result.Stats = stats

	p.logger.Info("starting loudnorm second pass",
		"input", path,
		"output", result.Output,
		"input_i", stats.InputI,
		"input_lra", stats.InputLRA,
		"input_tp", stats.InputTP,
		"input_thresh", stats.InputThresh,
		"target_offset", stats.TargetOffset,
	)

	if err := os.MkdirAll(p.options.NormalizedDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create normalized directory: %w", err)
	}

	err = p.runner.Run(ctx, ffmpeg.Invocation{
		Args:    ffmpeg.LoudnormApplyArgs(path, result.Output, p.options.AudioCodec, p.options.Target, stats),
		LogPath: result.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("loudnorm second pass failed: %w", err)
	}

	return result, nil
}

// measure produces the stats file for m, running the first pass unless its
// log is already on disk. It reports whether the encoder ran.
func (p *Processor) measure(ctx context.Context, m models.MediaFile, statsFile string) (bool, error) {
	logPath := p.StatsLogPath(m)
	ran := false

	if p.options.RefreshStats || !fileExists(logPath) {
		p.logger.Info("starting loudnorm first pass", "input", m.Path, "log", logPath)
		err := p.runner.Run(ctx, ffmpeg.Invocation{
			Args:    ffmpeg.LoudnormAnalysisArgs(m.Path, p.options.Target),
			LogPath: logPath,
		})
		if err != nil {
			return false, fmt.Errorf("loudnorm first pass failed: %w", err)
		}
		ran = true
	} else {
		p.logger.Info("reusing first pass log", "log", logPath)
	}

	f, err := os.Open(logPath)
	if err != nil {
		return ran, fmt.Errorf("failed to open first pass log: %w", err)
	}
	defer f.Close()

	data, err := ExtractStatsJSON(f)
	if err != nil {
		return ran, fmt.Errorf("%s: %w", logPath, err)
	}

	if err := writeFileAtomic(statsFile, data); err != nil {
		return ran, fmt.Errorf("failed to write stats file: %w", err)
	}
	p.logger.Info("generated stats file", "stats", statsFile)
	p.logger.Debug("loudnorm stats", "json", string(data))

	return ran, nil
}

// warnIfStale logs when the input was modified after its stats were cached.
func (p *Processor) warnIfStale(input, statsFile string) {
	in, err := os.Stat(input)
	if err != nil {
		return
	}
	cached, err := os.Stat(statsFile)
	if err != nil {
		return
	}
	if in.ModTime().After(cached.ModTime()) {
		p.logger.Warn("input is newer than its cached stats, pass --refresh-stats to remeasure",
			"input", input, "stats", statsFile)
	}
}
