package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kartoza/kartoza-audio-norms/internal/deps"
)

func newDepsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check for required dependencies",
		Long: `Check if all required external programs are installed and available.

The encoder is also asked for its version and for the volumedetect, loudnorm
and volume filters the jobs rely on.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}

			required, optional := deps.CheckAll(cfg.FFmpegPath)
			w := cmd.OutOrStdout()

			fmt.Fprintln(w)
			fmt.Fprintln(w, bold.Render("Required Dependencies:"))
			fmt.Fprintln(w)

			allRequiredOk := true
			for _, r := range required {
				var status string
				if r.Available {
					status = green.Render("✓")
				} else {
					status = red.Render("✗")
					allRequiredOk = false
				}
				printDep(w, status, r)
				if r.Available && !printEncoderDetails(w, r.Path) {
					allRequiredOk = false
				}
				fmt.Fprintln(w)
			}

			fmt.Fprintln(w, bold.Render("Optional Dependencies:"))
			fmt.Fprintln(w)

			for _, r := range optional {
				status := gray.Render("○")
				if r.Available {
					status = green.Render("✓")
				}
				printDep(w, status, r)
				fmt.Fprintln(w)
			}

			if allRequiredOk {
				fmt.Fprintln(w, green.Render("All required dependencies are installed!"))
			} else {
				fmt.Fprintln(w, red.Render("Some required dependencies are missing."))
				fmt.Fprintln(w, "Please install them before using the application.")
			}
			fmt.Fprintln(w)
			return nil
		},
	}
}

func printDep(w io.Writer, status string, r deps.CheckResult) {
	fmt.Fprintf(w, "  %s %s\n", status, bold.Render(r.Dependency.Name))
	fmt.Fprintf(w, "    %s\n", gray.Render(r.Dependency.Description))
	if r.Available {
		fmt.Fprintf(w, "    Path: %s\n", r.Path)
	}
}

// printEncoderDetails prints the encoder's version and reports whether it
// provides every filter the jobs need.
func printEncoderDetails(w io.Writer, path string) bool {
	if v, err := encoderVersion(path); err == nil {
		fmt.Fprintf(w, "    %s\n", gray.Render(v))
	}

	missing, err := missingFilters(path)
	switch {
	case err != nil:
		fmt.Fprintf(w, "    %s\n", yellow.Render("Unable to list filters: "+err.Error()))
		return true
	case len(missing) > 0:
		fmt.Fprintf(w, "    %s\n", red.Render("Missing filters: "+strings.Join(missing, ", ")))
		return false
	default:
		fmt.Fprintf(w, "    Filters: %s\n", strings.Join(deps.RequiredFilters, ", "))
		return true
	}
}
