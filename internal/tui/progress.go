package tui

import (
	"io"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kartoza/kartoza-audio-norms/internal/pipeline"
)

// stageMsg carries one pipeline progress update into the program.
type stageMsg struct {
	Index     int
	Completed bool
	Skipped   bool
	Error     error
}

// jobDoneMsg ends the program once the job returns.
type jobDoneMsg struct {
	Error error
}

// ProgressModel shows the stages of one job while it runs
type ProgressModel struct {
	state   *ProcessingState
	spinner spinner.Model
	done    bool
}

// NewProgressModel creates the view for a plan's stages
func NewProgressModel(input string, stages []pipeline.Stage) *ProgressModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorOrange).Bold(true)

	state := NewProcessingState(input, stages)
	state.Start()

	return &ProgressModel{state: state, spinner: s}
}

// State returns the step state
func (m *ProgressModel) State() *ProcessingState {
	return m.state
}

// Init starts the spinner
func (m *ProgressModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles stage updates and spinner ticks
func (m *ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case stageMsg:
		m.state.Report(msg.Index, msg.Completed, msg.Skipped, msg.Error)
		return m, nil

	case jobDoneMsg:
		m.done = true
		m.state.Finish(msg.Error)
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the step list
func (m *ProgressModel) View() string {
	return RenderProcessingView(m.state, m.spinner.View())
}

// Run shows the progress view on out while work runs. work reports stage
// updates through the callback it is given; its error is returned.
func Run(out io.Writer, input string, stages []pipeline.Stage, work func(pipeline.ProgressCallback) error) error {
	m := NewProgressModel(input, stages)
	p := tea.NewProgram(m,
		tea.WithOutput(out),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)

	errc := make(chan error, 1)
	go func() {
		err := work(func(index int, _ pipeline.Stage, completed bool, skipped bool, err error) {
			p.Send(stageMsg{Index: index, Completed: completed, Skipped: skipped, Error: err})
		})
		errc <- err
		p.Send(jobDoneMsg{Error: err})
	}()

	_, viewErr := p.Run()
	if err := <-errc; err != nil {
		return err
	}
	return viewErr
}
