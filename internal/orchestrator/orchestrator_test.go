package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/envmatrix/envmatrix/internal/config"
	"github.com/envmatrix/envmatrix/internal/engine"
	"github.com/envmatrix/envmatrix/internal/events"
	"github.com/envmatrix/envmatrix/internal/report"
	"github.com/envmatrix/envmatrix/internal/testutil"
	"github.com/envmatrix/envmatrix/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testConfig writes Dockerfiles for the given images and returns a
// validated config with two environments, "legacy" skipping bionic.
func testConfig(t *testing.T, threads int) *config.Config {
	t.Helper()

	dir := t.TempDir()
	for _, image := range []string{"xenial", "bionic"} {
		path := filepath.Join(dir, "Dockerfile_"+image)
		require.NoError(t, os.WriteFile(path, []byte("FROM ubuntu\n"), 0644))
	}

	yaml := `
project_name: sssd
threads: ` + strconv.Itoa(threads) + `
docker_image_build_args: {}
docker_image_path: ` + dir + `
docker_images: [xenial, bionic]
docker_container_environments:
  default:
    override_variable: sssd_config
  legacy:
    override_variable: sssd_config
    skip_images: [bionic]
`
	cfg, err := config.Parse([]byte(yaml), dir)
	require.NoError(t, err)
	return cfg
}

func newHarness(t *testing.T, cfg *config.Config, eng engine.Engine) (*Orchestrator, *report.Sink, *events.Bus) {
	t.Helper()

	pool, err := worker.New(cfg.Threads)
	require.NoError(t, err)
	bus := events.NewBus()
	sink := report.NewSink()
	return New(cfg, eng, bus, sink, pool), sink, bus
}

func TestRunAllPass(t *testing.T) {
	cfg := testConfig(t, 2)
	fake := &testutil.FakeEngine{}
	orch, sink, _ := newHarness(t, cfg, fake)

	summary, err := orch.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.False(t, summary.Failed())
	assert.Equal(t, 2, summary.ImagesPassed())

	// 2 images x 2 environments minus one skip rule = 3 runs.
	assert.Equal(t, 3, summary.RunsPassed())
	assert.ElementsMatch(t, []string{"xenial", "bionic"}, fake.Builds())
	assert.ElementsMatch(t, []string{"xenial_default", "xenial_legacy", "bionic_default"}, fake.Runs())

	// Presentation order is declaration order regardless of completion.
	out := sink.Outcomes()
	require.Len(t, out, 5)
	assert.Equal(t, report.KindBuild, out[0].Kind)
	assert.Equal(t, report.KindBuild, out[1].Kind)
	assert.Equal(t, "xenial", out[2].Image)
	assert.Equal(t, "default", out[2].Env)
	assert.Equal(t, "xenial", out[3].Image)
	assert.Equal(t, "legacy", out[3].Env)
	assert.Equal(t, "bionic", out[4].Image)
}

func TestRunBuildOnly(t *testing.T) {
	cfg := testConfig(t, 2)
	fake := &testutil.FakeEngine{}
	orch, _, _ := newHarness(t, cfg, fake)

	summary, err := orch.Run(context.Background(), Options{BuildOnly: true})
	require.NoError(t, err)

	assert.False(t, summary.Failed())
	assert.Empty(t, fake.Runs(), "build-only must not start containers")
	assert.Len(t, fake.Builds(), 2)
}

func TestBuildFailureDoesNotBlockSiblings(t *testing.T) {
	cfg := testConfig(t, 2)
	fake := &testutil.FakeEngine{
		BuildErrs: map[string]error{"xenial": errors.New("apt-get returned 100")},
	}
	orch, sink, _ := newHarness(t, cfg, fake)

	summary, err := orch.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.True(t, summary.Failed())
	assert.Len(t, fake.Builds(), 2, "bionic build must still run")

	// Runs for the failed image are recorded as failed without
	// touching the engine; bionic's run proceeds.
	assert.ElementsMatch(t, []string{"bionic_default"}, fake.Runs())

	var failedRuns int
	for _, o := range sink.Outcomes() {
		if o.Kind == report.KindRun && !o.Passed() {
			failedRuns++
			assert.Equal(t, "xenial", o.Image)
			assert.Contains(t, o.Error, "was not built")
		}
	}
	assert.Equal(t, 2, failedRuns)
}

func TestRunExitCodeFailure(t *testing.T) {
	cfg := testConfig(t, 2)
	fake := &testutil.FakeEngine{
		RunExits: map[string]int{"xenial_default": 1},
	}
	orch, sink, _ := newHarness(t, cfg, fake)

	summary, err := orch.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.True(t, summary.Failed())
	assert.Equal(t, 2, summary.RunsPassed())

	for _, o := range sink.Outcomes() {
		if o.Kind == report.KindRun && o.Env == "default" && o.Image == "xenial" {
			assert.Equal(t, 1, o.ExitCode)
			assert.False(t, o.Passed())
		}
	}
}

func TestConcurrencyBound(t *testing.T) {
	cfg := testConfig(t, 2)
	fake := &testutil.FakeEngine{Delay: 20 * time.Millisecond}
	orch, _, _ := newHarness(t, cfg, fake)

	_, err := orch.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.LessOrEqual(t, fake.PeakActive(), 2)
}

func TestThreadsOneIsSequential(t *testing.T) {
	cfg := testConfig(t, 1)
	fake := &testutil.FakeEngine{Delay: 5 * time.Millisecond}
	orch, _, _ := newHarness(t, cfg, fake)

	_, err := orch.Run(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, 1, fake.PeakActive())
}

func TestEngineUnreachableIsFatal(t *testing.T) {
	cfg := testConfig(t, 2)
	fake := &testutil.FakeEngine{
		PingErr: &engine.EngineError{Err: errors.New("cannot connect to the daemon")},
	}
	orch, sink, _ := newHarness(t, cfg, fake)

	_, err := orch.Run(context.Background(), Options{})
	require.Error(t, err)

	var engErr *engine.EngineError
	assert.ErrorAs(t, err, &engErr)
	assert.Empty(t, fake.Builds(), "no job may start when the engine is down")
	assert.Zero(t, sink.Len())
}

func TestDaemonDownMidPhaseAborts(t *testing.T) {
	cfg := testConfig(t, 2)
	connErr := &engine.EngineError{Err: errors.New("Cannot connect to the Docker daemon")}
	fake := &testutil.FakeEngine{
		BuildErrs: map[string]error{"xenial": connErr, "bionic": connErr},
	}
	orch, sink, _ := newHarness(t, cfg, fake)

	summary, err := orch.Run(context.Background(), Options{})
	require.Error(t, err)

	var engErr *engine.EngineError
	assert.ErrorAs(t, err, &engErr)

	// The run phase never starts; only build outcomes exist.
	assert.Empty(t, fake.Runs(), "no container may start once the daemon is gone")
	for _, o := range sink.Outcomes() {
		assert.Equal(t, report.KindBuild, o.Kind)
	}
	assert.True(t, summary.Failed())
}

func TestMissingDockerfileIsFatal(t *testing.T) {
	cfg := testConfig(t, 2)
	require.NoError(t, os.Remove(filepath.Join(cfg.ImagePath, "Dockerfile_bionic")))

	fake := &testutil.FakeEngine{}
	orch, sink, _ := newHarness(t, cfg, fake)

	_, err := orch.Run(context.Background(), Options{})
	require.Error(t, err)

	var cfgErr *config.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Empty(t, fake.Builds())
	assert.Zero(t, sink.Len())
}

func TestBuildsDrainBeforeRunsStart(t *testing.T) {
	cfg := testConfig(t, 2)
	fake := &testutil.FakeEngine{Delay: 10 * time.Millisecond}
	orch, _, bus := newHarness(t, cfg, fake)

	var order []events.EventType
	bus.Subscribe(func(e events.Event) {
		switch e.Type {
		case events.BuildSucceeded, events.PhaseRunStarted:
			order = append(order, e.Type)
		}
	})

	_, err := orch.Run(context.Background(), Options{})
	require.NoError(t, err)

	require.Len(t, order, 3)
	assert.Equal(t, events.PhaseRunStarted, order[2], "run phase must start after every build completes")
}

func TestEventsCarryContainerLog(t *testing.T) {
	cfg := testConfig(t, 2)
	fake := &testutil.FakeEngine{}
	orch, _, bus := newHarness(t, cfg, fake)

	var logLines int
	bus.Subscribe(func(e events.Event) {
		if e.Type == events.ContainerLog {
			logLines++
			assert.NotEmpty(t, e.Container)
		}
	})

	_, err := orch.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, logLines, "one fake log line per container run")
}
