package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/envmatrix/envmatrix/internal/events"
)

// Bridge converts bus events into bubbletea messages and forwards
// them to a running program.
type Bridge struct {
	program *tea.Program
}

// NewBridge creates a bridge targeting the given program.
func NewBridge(program *tea.Program) *Bridge {
	return &Bridge{program: program}
}

// Handler returns an events.Handler suitable for Bus.Subscribe.
func (b *Bridge) Handler() events.Handler {
	return func(evt events.Event) {
		if msg := Translate(evt); msg != nil {
			b.program.Send(msg)
		}
	}
}

// Translate maps a bus event to its display message, or nil if the
// event has no visual representation.
func Translate(evt events.Event) tea.Msg {
	switch evt.Type {
	case events.HarnessStarted:
		payload, _ := evt.Payload.(map[string]any)
		builds := intField(payload, "expected_images")
		runs := intField(payload, "expected_runs")
		buildOnly, _ := payload["build_only"].(bool)

		total := builds
		if !buildOnly {
			total += runs
		}
		return HarnessStartedMsg{
			TotalJobs: total,
			Threads:   intField(payload, "threads"),
			BuildOnly: buildOnly,
		}

	case events.BuildStarted:
		return JobStartedMsg{ID: evt.Image, Kind: "build"}
	case events.BuildSucceeded:
		return JobFinishedMsg{ID: evt.Image}
	case events.BuildFailed:
		return JobFinishedMsg{ID: evt.Image, Failed: true}

	case events.RunStarted:
		return JobStartedMsg{ID: evt.Container, Kind: "run"}
	case events.RunSucceeded:
		return JobFinishedMsg{ID: evt.Container}
	case events.RunFailed:
		return JobFinishedMsg{ID: evt.Container, Failed: true}

	case events.ContainerLog:
		line, _ := evt.Payload.(string)
		return LogLineMsg{Container: evt.Container, Line: line}
	}

	return nil
}

func intField(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
