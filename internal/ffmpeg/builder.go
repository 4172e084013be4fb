package ffmpeg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kartoza/kartoza-audio-norms/internal/models"
)

// nullSink discards the encoded output of measurement-only runs.
var nullSink = []string{"-f", "null", "-"}

// DetectArgs runs volumedetect over the whole file with video, subtitle and
// data streams disabled.
func DetectArgs(input string) []string {
	args := []string{"-hide_banner", "-i", input, "-af", "volumedetect", "-vn", "-sn", "-dn"}
	return append(args, nullSink...)
}

// LoudnormAnalysisArgs is the measurement-only first pass.
func LoudnormAnalysisArgs(input string, target models.LoudnormTarget) []string {
	args := []string{
		"-hide_banner", "-y",
		"-i", input,
		"-c:v", "copy",
		"-pass", "1",
		"-af", LoudnormAnalysisFilter(target),
	}
	return append(args, nullSink...)
}

// LoudnormApplyArgs is the corrective second pass.
func LoudnormApplyArgs(input, output, codec string, target models.LoudnormTarget, stats *models.LoudnormStats) []string {
	return []string{
		"-hide_banner", "-y",
		"-i", input,
		"-c:v", "copy",
		"-c:a", codec,
		"-pass", "2",
		"-af", LoudnormApplyFilter(target, stats),
		output,
	}
}

// VolumeArgs applies a fixed gain in dB.
func VolumeArgs(input, output, codec string, gainDB float64) []string {
	return []string{
		"-hide_banner", "-y",
		"-i", input,
		"-c:v", "copy",
		"-c:a", codec,
		"-af", VolumeFilter(gainDB),
		output,
	}
}

// LoudnormAnalysisFilter returns e.g. "loudnorm=print_format=json".
func LoudnormAnalysisFilter(target models.LoudnormTarget) string {
	return "loudnorm=" + strings.Join(append(targetOptions(target), "print_format=json"), ":")
}

// LoudnormApplyFilter substitutes the measured values verbatim.
func LoudnormApplyFilter(target models.LoudnormTarget, stats *models.LoudnormStats) string {
	opts := append(targetOptions(target),
		"measured_I="+stats.InputI,
		"measured_LRA="+stats.InputLRA,
		"measured_tp="+stats.InputTP,
		"measured_thresh="+stats.InputThresh,
		"offset="+stats.TargetOffset,
	)
	return "loudnorm=" + strings.Join(opts, ":")
}

// VolumeFilter returns e.g. "volume=5.2dB".
func VolumeFilter(gainDB float64) string {
	return fmt.Sprintf("volume=%sdB", FormatDB(gainDB))
}

// FormatDB formats a decibel value with the shortest exact representation.
func FormatDB(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func targetOptions(t models.LoudnormTarget) []string {
	if t.IsZero() {
		return nil
	}
	var opts []string
	if t.IntegratedLoudness != 0 {
		opts = append(opts, "I="+FormatDB(t.IntegratedLoudness))
	}
	if t.TruePeak != 0 {
		opts = append(opts, "TP="+FormatDB(t.TruePeak))
	}
	if t.LoudnessRange != 0 {
		opts = append(opts, "LRA="+FormatDB(t.LoudnessRange))
	}
	return opts
}
