package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/envmatrix/envmatrix/internal/config"
	"github.com/envmatrix/envmatrix/internal/engine"
	"github.com/envmatrix/envmatrix/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeTestProject writes a config file plus Dockerfiles and returns
// the config path.
func writeTestProject(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	for _, image := range []string{"xenial", "bionic"} {
		path := filepath.Join(dir, "Dockerfile_"+image)
		require.NoError(t, os.WriteFile(path, []byte("FROM ubuntu\n"), 0644))
	}

	yaml := `
project_name: sssd
threads: 2
disable_logging: true
docker_image_build_args: {}
docker_image_path: __PATH__
docker_images: [xenial, bionic]
docker_container_environments:
  default:
    override_variable: sssd_config
`
	cfgPath := filepath.Join(dir, "envmatrix.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(yaml), 0644))
	return cfgPath
}

// newTestApp returns an app running against the given fake engine,
// with summary output captured.
func newTestApp(fake *testutil.FakeEngine) (*App, *bytes.Buffer) {
	app := New()
	app.newEngine = func() (engine.Engine, error) { return fake, nil }

	var out bytes.Buffer
	app.rootCmd.SetOut(&out)
	return app, &out
}

func TestRunHarnessSuccess(t *testing.T) {
	cfgPath := writeTestProject(t)
	app, out := newTestApp(&testutil.FakeEngine{})

	err := app.RunHarness(context.Background(), RunOptions{File: cfgPath, NoTUI: true})
	require.NoError(t, err)

	assert.Equal(t, 0, ExitCode(err))
	assert.Contains(t, out.String(), "Summary for project sssd:")
	assert.Contains(t, out.String(), "Images: 2/2")
	assert.Contains(t, out.String(), "Containers: 2/2")
}

func TestRunHarnessJobFailure(t *testing.T) {
	cfgPath := writeTestProject(t)
	fake := &testutil.FakeEngine{
		RunExits: map[string]int{"xenial_default": 1},
	}
	app, out := newTestApp(fake)

	err := app.RunHarness(context.Background(), RunOptions{File: cfgPath, NoTUI: true})
	require.Error(t, err)

	assert.ErrorIs(t, err, ErrJobsFailed)
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, out.String(), "Containers: 1/2")
}

func TestRunHarnessConfigError(t *testing.T) {
	app, _ := newTestApp(&testutil.FakeEngine{})

	err := app.RunHarness(context.Background(), RunOptions{
		File:  filepath.Join(t.TempDir(), "missing.yml"),
		NoTUI: true,
	})
	require.Error(t, err)

	var cfgErr *config.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, 2, ExitCode(err))
}

func TestRunHarnessEngineDownPrintsPartialSummary(t *testing.T) {
	cfgPath := writeTestProject(t)
	connErr := &engine.EngineError{Err: errors.New("Cannot connect to the Docker daemon")}
	fake := &testutil.FakeEngine{
		BuildErrs: map[string]error{"xenial": connErr, "bionic": connErr},
	}
	app, out := newTestApp(fake)

	err := app.RunHarness(context.Background(), RunOptions{File: cfgPath, NoTUI: true})
	require.Error(t, err)

	var engErr *engine.EngineError
	assert.ErrorAs(t, err, &engErr)
	assert.Equal(t, 1, ExitCode(err))
	assert.Contains(t, out.String(), "Images: 0/2")
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "success", err: nil, want: 0},
		{name: "jobs failed", err: ErrJobsFailed, want: 1},
		{name: "config error", err: &config.ConfigError{Err: errors.New("bad yaml")}, want: 2},
		{name: "wrapped config error", err: errors.Join(errors.New("load"), &config.ConfigError{}), want: 2},
		{name: "other error", err: errors.New("boom"), want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
