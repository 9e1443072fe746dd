package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.Done || m.Quitting {
		return ""
	}

	var b strings.Builder

	elapsed := time.Since(m.StartTime).Round(time.Second)
	title := fmt.Sprintf("envmatrix  %s", elapsed)
	if m.BuildOnly {
		title += "  (build only)"
	}
	b.WriteString(m.Styles.Title.Render(title))
	b.WriteString("\n")

	done := m.Completed + m.Failed
	counter := fmt.Sprintf("%d/%d done", done, m.TotalJobs)
	if m.TotalJobs == 0 {
		counter = "starting"
	}
	b.WriteString(m.Styles.Counter.Render(counter))
	if m.Failed > 0 {
		b.WriteString("  ")
		b.WriteString(m.Styles.Failed.Render(fmt.Sprintf("%d failed", m.Failed)))
	}
	b.WriteString("  ")
	b.WriteString(m.Styles.Dim.Render(fmt.Sprintf("threads: %d", m.Threads)))
	b.WriteString("\n\n")

	ids := make([]string, 0, len(m.Active))
	for id := range m.Active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		job := m.Active[id]
		b.WriteString("  ")
		b.WriteString(m.Spinner.View())
		b.WriteString(" ")
		b.WriteString(m.Styles.Kind.Render(job.Kind))
		b.WriteString(" ")
		b.WriteString(m.Styles.JobID.Render(job.ID))
		b.WriteString(" ")
		b.WriteString(m.Styles.Dim.Render(time.Since(job.Since).Round(time.Second).String()))
		b.WriteString("\n")
	}
	if len(ids) == 0 {
		b.WriteString(m.Styles.Dim.Render("  waiting for jobs"))
		b.WriteString("\n")
	}

	if len(m.LogLines) > 0 {
		b.WriteString("\n")
		for _, line := range m.LogLines {
			b.WriteString(m.Styles.LogLine.Render(truncate(line, m.Width)))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// truncate cuts a line to width runes, never splitting a multi-byte
// sequence.
func truncate(s string, width int) string {
	if width <= 0 || len(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	return string(runes[:width])
}
