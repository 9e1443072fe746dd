package events

import (
	"hash/fnv"
	"log/slog"

	"github.com/charmbracelet/lipgloss"
)

// containerPalette colors container log prefixes so interleaved output
// from concurrent containers stays readable. Same palette idea as the
// per-container colors of the original runner.
var containerPalette = []lipgloss.Style{
	lipgloss.NewStyle().Foreground(lipgloss.Color("4")),  // blue
	lipgloss.NewStyle().Foreground(lipgloss.Color("6")),  // cyan
	lipgloss.NewStyle().Foreground(lipgloss.Color("2")),  // green
	lipgloss.NewStyle().Foreground(lipgloss.Color("5")),  // magenta
	lipgloss.NewStyle().Foreground(lipgloss.Color("1")),  // red
	lipgloss.NewStyle().Foreground(lipgloss.Color("15")), // white
	lipgloss.NewStyle().Foreground(lipgloss.Color("3")),  // yellow
}

// containerStyle picks a stable palette entry for a container name.
func containerStyle(name string) lipgloss.Style {
	h := fnv.New32a()
	h.Write([]byte(name))
	return containerPalette[h.Sum32()%uint32(len(containerPalette))]
}

// LogHandler returns a handler that renders events through the
// harness logger. Container output is logged with a colored
// per-container prefix; failures log at error level.
func LogHandler(log *slog.Logger) Handler {
	return func(e Event) {
		switch e.Type {
		case ContainerLog:
			line, _ := e.Payload.(string)
			log.Info(containerStyle(e.Container).Render(e.Container) + ": " + line)

		case BuildStarted:
			log.Info("Build "+e.Image+" image...", "image", e.Image)

		case BuildSucceeded:
			log.Info(e.Image+" image created", "image", e.Image)

		case BuildFailed:
			log.Error("Build image "+e.Image+" failed", "image", e.Image, "error", e.Error)

		case RunStarted:
			log.Info("Starting container "+e.Container+"...", "image", e.Image, "env", e.Env)

		case RunSucceeded:
			log.Info("Container "+e.Container+" run succeeded", "image", e.Image, "env", e.Env)

		case RunFailed:
			log.Error("Container "+e.Container+" run failed", "image", e.Image, "env", e.Env, "error", e.Error)

		case HarnessFailed:
			log.Error("Harness failed", "error", e.Error)

		default:
			if e.IsFailure() {
				log.Error(e.String(), "error", e.Error)
			} else {
				log.Debug(e.String())
			}
		}
	}
}
