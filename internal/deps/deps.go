package deps

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Dependency represents a required external dependency
type Dependency struct {
	Name        string // Command name or path (e.g., "ffmpeg")
	Description string // Human-readable description
	Required    bool   // If true, app cannot run without it
}

// CheckResult contains the result of checking a dependency
type CheckResult struct {
	Dependency Dependency
	Available  bool
	Path       string // Path to the executable if found
	Error      error  // Error if check failed
}

// RequiredDeps returns the encoder, named by the configured ffmpeg path
func RequiredDeps(ffmpegPath string) []Dependency {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return []Dependency{
		{
			Name:        ffmpegPath,
			Description: "Volume detection, loudness normalization and volume changes",
			Required:    true,
		},
	}
}

// OptionalDeps lists optional dependencies that enhance functionality
var OptionalDeps = []Dependency{
	{
		Name:        "notify-send",
		Description: "Desktop notifications (--notify)",
		Required:    false,
	},
}

// Check verifies if a single dependency is available
func Check(dep Dependency) CheckResult {
	result := CheckResult{Dependency: dep}

	path, err := exec.LookPath(dep.Name)
	if err != nil {
		result.Available = false
		result.Error = err
	} else {
		result.Available = true
		result.Path = path
	}

	return result
}

// RequiredFilters are the ffmpeg filters the jobs use.
var RequiredFilters = []string{"volumedetect", "loudnorm", "volume"}

// EncoderVersion returns the first line of "ffmpeg -version".
func EncoderVersion(ffmpegPath string) (string, error) {
	out, err := exec.Command(ffmpegPath, "-version").Output()
	if err != nil {
		return "", err
	}
	line, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(line), nil
}

// MissingFilters runs "ffmpeg -filters" and returns the RequiredFilters it
// does not list.
func MissingFilters(ffmpegPath string) ([]string, error) {
	out, err := exec.Command(ffmpegPath, "-hide_banner", "-filters").Output()
	if err != nil {
		return nil, err
	}
	return missingFilters(bytes.NewReader(out), RequiredFilters), nil
}

// missingFilters reads the "-filters" table, whose lines look like
// " ... loudnorm          A->A       EBU R128 loudness normalization".
func missingFilters(r io.Reader, want []string) []string {
	have := make(map[string]bool)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) >= 3 && strings.Contains(fields[2], "->") {
			have[fields[1]] = true
		}
	}

	var missing []string
	for _, name := range want {
		if !have[name] {
			missing = append(missing, name)
		}
	}
	return missing
}

// CheckAll verifies all required and optional dependencies
func CheckAll(ffmpegPath string) (required []CheckResult, optional []CheckResult) {
	for _, dep := range RequiredDeps(ffmpegPath) {
		required = append(required, Check(dep))
	}
	for _, dep := range OptionalDeps {
		optional = append(optional, Check(dep))
	}
	return required, optional
}

// MissingRequired returns a list of missing required dependencies
func MissingRequired(ffmpegPath string) []CheckResult {
	var missing []CheckResult
	for _, dep := range RequiredDeps(ffmpegPath) {
		result := Check(dep)
		if !result.Available {
			missing = append(missing, result)
		}
	}
	return missing
}

// FormatMissing returns a formatted string of missing dependencies
func FormatMissing(results []CheckResult) string {
	if len(results) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Missing dependencies:\n\n")

	for _, r := range results {
		status := "MISSING"
		if r.Dependency.Required {
			status = "REQUIRED"
		}
		sb.WriteString(fmt.Sprintf("  • %s (%s)\n", r.Dependency.Name, status))
		sb.WriteString(fmt.Sprintf("    %s\n\n", r.Dependency.Description))
	}

	return sb.String()
}
