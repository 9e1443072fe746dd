package engine

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
)

// Docker implements Engine against the Docker API (also served by
// compatible engines like Podman's docker socket).
type Docker struct {
	client *client.Client
}

// NewDocker creates an engine client from the standard environment
// (DOCKER_HOST and friends), negotiating the API version with the
// daemon.
func NewDocker() (*Docker, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, &EngineError{Err: err}
	}
	return &Docker{client: cli}, nil
}

// Ping verifies the daemon is reachable.
func (d *Docker) Ping(ctx context.Context) error {
	if _, err := d.client.Ping(ctx); err != nil {
		return &EngineError{Err: err}
	}
	return nil
}

// buildMessage is one JSON object of the build output stream.
type buildMessage struct {
	Stream      string `json:"stream"`
	Error       string `json:"error"`
	ErrorDetail struct {
		Message string `json:"message"`
	} `json:"errorDetail"`
}

// buildOptions renders a BuildSpec as Docker API build options. Build
// args become string pointers because the API distinguishes unset
// args from empty ones.
func buildOptions(spec BuildSpec) types.ImageBuildOptions {
	args := make(map[string]*string, len(spec.BuildArgs))
	for k, v := range spec.BuildArgs {
		value := v
		args[k] = &value
	}

	return types.ImageBuildOptions{
		Tags:       []string{spec.Tag},
		Dockerfile: spec.Dockerfile,
		BuildArgs:  args,
		Remove:     spec.RemoveIntermediate,
	}
}

// wrapConnErr classifies daemon connection failures as EngineErrors,
// which abort the phase. Other errors stay scoped to their job.
func wrapConnErr(err error) error {
	if client.IsErrConnectionFailed(err) {
		return &EngineError{Err: err}
	}
	return err
}

// Build tars the context directory and runs the engine build. Build
// output lines go to sink; an error reported in the stream fails the
// build.
func (d *Docker) Build(ctx context.Context, spec BuildSpec, sink LogSink) (BuildInfo, error) {
	buildCtx, err := archive.TarWithOptions(spec.ContextDir, &archive.TarOptions{})
	if err != nil {
		return BuildInfo{}, fmt.Errorf("tar build context %s: %w", spec.ContextDir, err)
	}
	defer buildCtx.Close()

	resp, err := d.client.ImageBuild(ctx, buildCtx, buildOptions(spec))
	if err != nil {
		return BuildInfo{}, fmt.Errorf("build %s: %w", spec.Tag, wrapConnErr(err))
	}
	defer resp.Body.Close()

	if err := drainBuildStream(resp.Body, sink); err != nil {
		return BuildInfo{}, fmt.Errorf("build %s: %w", spec.Tag, err)
	}

	inspect, err := d.client.ImageInspect(ctx, spec.Tag)
	if err != nil {
		return BuildInfo{}, fmt.Errorf("inspect built image %s: %w", spec.Tag, wrapConnErr(err))
	}
	return BuildInfo{ID: inspect.ID}, nil
}

// drainBuildStream consumes the build's JSON message stream until EOF.
// The daemon only reports build failure inside this stream, so the
// whole stream must be read even without a sink.
func drainBuildStream(r io.Reader, sink LogSink) error {
	dec := json.NewDecoder(r)
	for {
		var msg buildMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("decode build output: %w", err)
		}
		if msg.Error != "" {
			if msg.ErrorDetail.Message != "" {
				return errors.New(msg.ErrorDetail.Message)
			}
			return errors.New(msg.Error)
		}
		if sink != nil {
			if line := strings.TrimRight(msg.Stream, "\n"); line != "" {
				sink(line)
			}
		}
	}
}

// Run takes a container through its whole lifecycle: create, start,
// stream logs, wait for exit, remove.
func (d *Docker) Run(ctx context.Context, spec RunSpec, sink LogSink) (RunResult, error) {
	created, err := d.client.ContainerCreate(ctx,
		&container.Config{
			Image: spec.ImageTag,
			Env:   spec.Env,
			Tty:   true,
		},
		&container.HostConfig{
			Binds: spec.Binds,
		},
		nil, nil, spec.Name)
	if err != nil {
		return RunResult{}, fmt.Errorf("create container %s: %w", spec.Name, wrapConnErr(err))
	}
	id := created.ID

	// Best-effort removal once the outcome is captured, and on every
	// failure path after creation.
	removeContainer := func() {
		_ = d.client.ContainerRemove(context.WithoutCancel(ctx), id, container.RemoveOptions{Force: true})
	}

	if err := d.client.ContainerStart(ctx, id, container.StartOptions{}); err != nil {
		removeContainer()
		return RunResult{}, fmt.Errorf("start container %s: %w", spec.Name, wrapConnErr(err))
	}

	logsDone := make(chan struct{})
	logs, err := d.client.ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
		Follow:     true,
	})
	if err != nil {
		close(logsDone)
	} else {
		go func() {
			defer close(logsDone)
			defer logs.Close()
			scanner := bufio.NewScanner(logs)
			scanner.Buffer(make([]byte, 64*1024), 1024*1024)
			for scanner.Scan() {
				if sink != nil {
					sink(strings.TrimRight(scanner.Text(), "\r"))
				}
			}
		}()
	}

	statusCh, errCh := d.client.ContainerWait(ctx, id, container.WaitConditionNotRunning)
	select {
	case err := <-errCh:
		removeContainer()
		return RunResult{}, fmt.Errorf("wait for container %s: %w", spec.Name, wrapConnErr(err))
	case <-ctx.Done():
		removeContainer()
		return RunResult{}, ctx.Err()
	case status := <-statusCh:
		<-logsDone
		removeContainer()
		if status.Error != nil {
			return RunResult{}, fmt.Errorf("container %s: %s", spec.Name, status.Error.Message)
		}
		return RunResult{ExitCode: int(status.StatusCode)}, nil
	}
}

// Close releases the client connection.
func (d *Docker) Close() error {
	return d.client.Close()
}

var _ Engine = (*Docker)(nil)
