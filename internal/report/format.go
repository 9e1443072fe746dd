package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// Styles for the rendered summary.
type Styles struct {
	Header lipgloss.Style
	Pass   lipgloss.Style
	Fail   lipgloss.Style
	Meta   lipgloss.Style
}

// DefaultStyles returns the summary styles.
func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().Bold(true),
		Pass:   lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		Fail:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		Meta:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
}

// PlainStyles returns styles with no colors, for non-TTY output.
func PlainStyles() Styles {
	plain := lipgloss.NewStyle()
	return Styles{Header: plain, Pass: plain, Fail: plain, Meta: plain}
}

// FormatDuration renders a duration in the summary's fixed
// "Xh YYm ZZ.ZZs" form.
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	hours := int(seconds / 3600)
	minutes := int(seconds/60) % 60
	secs := seconds - float64(hours*3600) - float64(minutes*60)
	return fmt.Sprintf("%dh %02dm %05.2fs", hours, minutes, secs)
}

// Render produces the human-readable summary block.
func (s Summary) Render(styles Styles) string {
	var b strings.Builder

	header := "Summary:"
	if s.ProjectName != "" {
		header = fmt.Sprintf("Summary for project %s:", s.ProjectName)
	}
	b.WriteString(styles.Header.Render(header))
	b.WriteString("\n")

	for _, o := range s.Outcomes {
		line := o.Describe()
		if o.Passed() {
			b.WriteString(styles.Pass.Render(line))
		} else {
			b.WriteString(styles.Fail.Render(line))
		}
		b.WriteString("\n")
	}

	b.WriteString(styles.Meta.Render(fmt.Sprintf("Threads: %d", s.Threads)))
	b.WriteString("\n")

	images := fmt.Sprintf("Images: %d/%d", s.ImagesPassed(), s.ExpectedImages)
	if s.ImagesPassed() == s.ExpectedImages {
		b.WriteString(styles.Pass.Render(images))
	} else {
		b.WriteString(styles.Fail.Render(images))
	}
	b.WriteString("\n")

	if !s.BuildOnly {
		containers := fmt.Sprintf("Containers: %d/%d", s.RunsPassed(), s.ExpectedRuns)
		if s.RunsPassed() == s.ExpectedRuns {
			b.WriteString(styles.Pass.Render(containers))
		} else {
			b.WriteString(styles.Fail.Render(containers))
		}
		b.WriteString("\n")
	}

	b.WriteString(styles.Meta.Render("Total duration: " + FormatDuration(s.Total)))
	b.WriteString("\n")

	return b.String()
}
