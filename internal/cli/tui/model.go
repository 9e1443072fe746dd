// Package tui renders live harness progress with bubbletea: active
// jobs, completed/failed counts, and a rolling tail of container
// output.
package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// JobState tracks one in-flight build or run.
type JobState struct {
	ID    string // image name for builds, container name for runs
	Kind  string // "build" or "run"
	Since time.Time
}

// Model is the bubbletea model for the progress display.
type Model struct {
	Threads   int
	Styles    Styles
	BuildOnly bool

	// Totals arrive with the harness start event.
	TotalJobs int

	Active    map[string]*JobState
	Completed int
	Failed    int

	StartTime time.Time
	LogLines  []string
	LogLimit  int
	Width     int

	Spinner spinner.Model

	Quitting bool
	Done     bool
}

// NewModel creates a progress model.
func NewModel(threads int) *Model {
	styles := DefaultStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	return &Model{
		Threads:   threads,
		Styles:    styles,
		Active:    make(map[string]*JobState),
		StartTime: time.Now(),
		LogLimit:  6,
		Spinner:   sp,
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.Spinner.Tick, tickCmd())
}

// TickMsg is sent every second to update the timer.
type TickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// DoneMsg signals the display should exit.
type DoneMsg struct{}

// HarnessStartedMsg carries the planned job counts.
type HarnessStartedMsg struct {
	TotalJobs int
	Threads   int
	BuildOnly bool
}

// JobStartedMsg indicates a build or run began.
type JobStartedMsg struct {
	ID   string
	Kind string
}

// JobFinishedMsg indicates a build or run completed.
type JobFinishedMsg struct {
	ID     string
	Failed bool
}

// LogLineMsg carries one line of container output.
type LogLineMsg struct {
	Container string
	Line      string
}
