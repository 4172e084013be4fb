package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/kartoza/kartoza-audio-norms/internal/pipeline"
)

// ProcessingStep represents a single stage of a job
type ProcessingStep struct {
	Name      string
	Stage     pipeline.Stage
	Status    StepStatus
	StartTime time.Time
	EndTime   time.Time
}

// StepStatus represents the status of a processing step
type StepStatus int

const (
	StepPending StepStatus = iota
	StepRunning
	StepComplete
	StepFailed
	StepSkipped
)

// ProcessingState holds the state of all processing steps
type ProcessingState struct {
	Input        string
	Steps        []ProcessingStep
	CurrentStep  int
	IsProcessing bool
	StartTime    time.Time
	Error        error
}

// NewProcessingState creates a pending step for every stage of a plan
func NewProcessingState(input string, stages []pipeline.Stage) *ProcessingState {
	steps := make([]ProcessingStep, len(stages))
	for i, s := range stages {
		steps[i] = ProcessingStep{Name: s.Title(), Stage: s, Status: StepPending}
	}
	return &ProcessingState{
		Input:       input,
		Steps:       steps,
		CurrentStep: -1,
	}
}

// Start begins the processing clock
func (p *ProcessingState) Start() {
	p.IsProcessing = true
	p.StartTime = time.Now()
}

// SetStepByIndex directly sets a step's status by index
func (p *ProcessingState) SetStepByIndex(index int, status StepStatus) {
	if index < 0 || index >= len(p.Steps) {
		return
	}
	switch status {
	case StepRunning:
		p.Steps[index].StartTime = time.Now()
		p.CurrentStep = index
	case StepComplete, StepSkipped, StepFailed:
		p.Steps[index].EndTime = time.Now()
	}
	p.Steps[index].Status = status
}

// Report applies one pipeline progress update.
func (p *ProcessingState) Report(index int, completed bool, skipped bool, err error) {
	switch {
	case err != nil:
		p.SetStepByIndex(index, StepFailed)
		p.Error = err
	case !completed:
		p.SetStepByIndex(index, StepRunning)
	case skipped:
		p.SetStepByIndex(index, StepSkipped)
	default:
		p.SetStepByIndex(index, StepComplete)
	}
}

// Finish stops the clock. A non-nil err is kept for the status line.
func (p *ProcessingState) Finish(err error) {
	p.IsProcessing = false
	if err != nil {
		p.Error = err
	}
}

// RenderProcessingView renders the step list with spinner as the indicator
// of the running step
func RenderProcessingView(state *ProcessingState, spinner string) string {
	if state == nil {
		return ""
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(ColorOrange)
	title := titleStyle.Render("Processing " + filepath.Base(state.Input))

	elapsed := time.Since(state.StartTime).Round(time.Second)
	timeStyle := lipgloss.NewStyle().
		Foreground(ColorGray).
		Italic(true)
	elapsedStr := timeStyle.Render(fmt.Sprintf("Elapsed: %s", elapsed))

	var steps []string
	for _, step := range state.Steps {
		steps = append(steps, renderStepLine(step, spinner))
	}

	var statusMsg string
	statusStyle := lipgloss.NewStyle().Foreground(ColorGray)
	switch {
	case state.Error != nil:
		statusMsg = statusStyle.Foreground(ColorRed).Render(fmt.Sprintf("Error: %v", state.Error))
	case !state.IsProcessing:
		statusMsg = statusStyle.Foreground(ColorGreen).Render("Processing complete!")
	default:
		statusMsg = statusStyle.Render("Please wait...")
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		title+" "+elapsedStr,
		"",
		strings.Join(steps, "\n"),
		"",
		statusMsg,
	) + "\n"
}

// renderStepLine renders a single processing step with appropriate indicator
func renderStepLine(step ProcessingStep, spinner string) string {
	var indicator string
	var nameStyle lipgloss.Style

	switch step.Status {
	case StepPending:
		indicator = lipgloss.NewStyle().Foreground(ColorGray).Render("○")
		nameStyle = lipgloss.NewStyle().Foreground(ColorGray)
	case StepRunning:
		indicator = spinner
		nameStyle = lipgloss.NewStyle().Foreground(ColorWhite).Bold(true)
	case StepComplete:
		indicator = lipgloss.NewStyle().Foreground(ColorGreen).Render("●")
		nameStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	case StepFailed:
		indicator = lipgloss.NewStyle().Foreground(ColorRed).Render("✗")
		nameStyle = lipgloss.NewStyle().Foreground(ColorRed)
	case StepSkipped:
		indicator = lipgloss.NewStyle().Foreground(ColorGray).Render("○")
		nameStyle = lipgloss.NewStyle().Foreground(ColorGray).Strikethrough(true)
	}

	var duration string
	if step.Status == StepComplete || step.Status == StepFailed {
		d := step.EndTime.Sub(step.StartTime).Round(100 * time.Millisecond)
		durationStyle := lipgloss.NewStyle().Foreground(ColorGray).Italic(true)
		duration = durationStyle.Render(fmt.Sprintf(" (%s)", d))
	}

	return fmt.Sprintf("  %s %s%s", indicator, nameStyle.Render(step.Name), duration)
}
