package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/kartoza/kartoza-audio-norms/internal/ffmpeg"
	"github.com/kartoza/kartoza-audio-norms/internal/pipeline"
)

var (
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("#E95420"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFC107"))
	gray   = lipgloss.NewStyle().Foreground(lipgloss.Color("#9A9EA0"))
	bold   = lipgloss.NewStyle().Bold(true)
	label  = lipgloss.NewStyle().Bold(true).Width(16)
)

// printSummary lists the artifacts a job produced.
func printSummary(w io.Writer, res *pipeline.Result) {
	fmt.Fprintln(w)

	if res.DetectLog != "" {
		fmt.Fprintf(w, "%s %s\n", label.Render("Detection log:"), res.DetectLog)
	}
	if res.HasMaxVolume {
		fmt.Fprintf(w, "%s %s dB\n", label.Render("Max volume:"), ffmpeg.FormatDB(res.MaxVolume))
	}

	if n := res.Normalize; n != nil {
		source := "measured"
		if n.CachedStats {
			source = "cached"
		}
		fmt.Fprintf(w, "%s %s %s\n", label.Render("Stats:"), n.StatsFile, gray.Render("("+source+")"))
		fmt.Fprintf(w, "%s %s\n", label.Render("Normalized:"), n.Output)
		fmt.Fprintf(w, "%s %s\n", label.Render("Normalize log:"), n.Log)
	}

	switch {
	case res.VolumeSkipped:
		fmt.Fprintf(w, "%s %s\n", label.Render("Volume:"),
			yellow.Render(fmt.Sprintf("unchanged, difference of %s dB is negligible", ffmpeg.FormatDB(res.MaxVolume))))
	case res.VolumeOutput != "":
		fmt.Fprintf(w, "%s %s %s\n", label.Render("Volume:"), res.VolumeOutput,
			gray.Render(fmt.Sprintf("(%+g dB)", res.Gain)))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, green.Render("Done!"))
}
