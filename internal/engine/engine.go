// Package engine is the boundary to the container engine. The harness
// only needs three operations from it: reachability, image build, and
// run-and-wait with captured output.
package engine

import (
	"context"
	"fmt"
)

// EngineError means the engine itself is unreachable or broken, as
// opposed to an individual build or run failing. It is fatal: the
// harness aborts remaining work when it sees one.
type EngineError struct {
	Err error
}

func (e *EngineError) Error() string {
	return fmt.Sprintf("container engine: %v", e.Err)
}

func (e *EngineError) Unwrap() error { return e.Err }

// BuildSpec describes one image build.
type BuildSpec struct {
	// Image is the declared image name (summary identity, not the tag).
	Image string

	// Tag is the local tag for the built image.
	Tag string

	// ContextDir is the build context directory (docker_image_path).
	ContextDir string

	// Dockerfile is the build file path relative to ContextDir.
	Dockerfile string

	// BuildArgs are passed through to the build.
	BuildArgs map[string]string

	// RemoveIntermediate removes intermediate containers after a
	// successful build (docker_remove_images).
	RemoveIntermediate bool
}

// BuildInfo reports a successful build.
type BuildInfo struct {
	// ID is the engine's identifier for the built image.
	ID string
}

// RunSpec describes one container run.
type RunSpec struct {
	// Name is the container name.
	Name string

	// ImageTag is the tag of the already-built image.
	ImageTag string

	// Env holds NAME=value pairs injected into the container.
	Env []string

	// Binds holds host:container:mode volume binds.
	Binds []string
}

// RunResult is the outcome of a completed container run.
type RunResult struct {
	// ExitCode is the container's exit code. Zero means pass.
	ExitCode int
}

// LogSink receives one line of build or container output at a time.
// May be nil when the caller does not want the stream.
type LogSink func(line string)

// Engine is the container engine contract. Implementations must be
// safe for concurrent use; builds and runs from multiple pool workers
// share one Engine.
type Engine interface {
	// Ping verifies the engine is reachable. A failure is fatal.
	Ping(ctx context.Context) error

	// Build builds an image, streaming build output to sink.
	Build(ctx context.Context, spec BuildSpec, sink LogSink) (BuildInfo, error)

	// Run creates and starts a container, streams its combined
	// stdout/stderr to sink, waits for exit and removes the
	// container. A nonzero exit code is not an error; the result
	// carries it.
	Run(ctx context.Context, spec RunSpec, sink LogSink) (RunResult, error)

	// Close releases the engine connection.
	Close() error
}
