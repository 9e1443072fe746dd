package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.Quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width

	case TickMsg:
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd

	case HarnessStartedMsg:
		m.TotalJobs = msg.TotalJobs
		m.BuildOnly = msg.BuildOnly
		if msg.Threads > 0 {
			m.Threads = msg.Threads
		}

	case JobStartedMsg:
		m.Active[msg.ID] = &JobState{
			ID:    msg.ID,
			Kind:  msg.Kind,
			Since: time.Now(),
		}

	case JobFinishedMsg:
		delete(m.Active, msg.ID)
		if msg.Failed {
			m.Failed++
		} else {
			m.Completed++
		}

	case LogLineMsg:
		line := m.Styles.Container.Render(msg.Container) + " " + msg.Line
		m.LogLines = append(m.LogLines, line)
		if len(m.LogLines) > m.LogLimit {
			m.LogLines = m.LogLines[len(m.LogLines)-m.LogLimit:]
		}

	case DoneMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}
