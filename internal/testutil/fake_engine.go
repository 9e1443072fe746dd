// Package testutil holds shared test doubles, most importantly the
// fake container engine used by orchestrator and CLI tests.
package testutil

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/envmatrix/envmatrix/internal/engine"
)

// randSuffix strips the random container name suffix, so stubs can be
// keyed by the stable "image_env" part of a container name.
var randSuffix = regexp.MustCompile(`_[0-9]{6}$`)

// FakeEngine is an in-memory engine.Engine. Builds are stubbed per
// image name, runs per "image_env" container key. The zero value
// succeeds everything with exit code 0.
type FakeEngine struct {
	mu sync.Mutex

	// PingErr fails Ping when set.
	PingErr error

	// BuildErrs fails builds by image name.
	BuildErrs map[string]error

	// RunExits sets exit codes by container key ("image_env").
	RunExits map[string]int

	// RunErrs fails runs (engine-level, not exit code) by container key.
	RunErrs map[string]error

	// Delay makes each build and run take this long, to exercise
	// concurrency bounds.
	Delay time.Duration

	builds     []string
	runs       []string
	active     int
	peakActive int
	closed     bool
}

// ContainerKey reduces a container name to its stub key.
func ContainerKey(name string) string {
	return randSuffix.ReplaceAllString(name, "")
}

// Ping implements engine.Engine.
func (f *FakeEngine) Ping(context.Context) error {
	return f.PingErr
}

// Build implements engine.Engine.
func (f *FakeEngine) Build(ctx context.Context, spec engine.BuildSpec, _ engine.LogSink) (engine.BuildInfo, error) {
	f.enter(&f.builds, spec.Image)
	defer f.leave()

	f.sleep(ctx)

	if err := f.BuildErrs[spec.Image]; err != nil {
		return engine.BuildInfo{}, err
	}
	return engine.BuildInfo{ID: "sha256:fake-" + spec.Tag}, nil
}

// Run implements engine.Engine.
func (f *FakeEngine) Run(ctx context.Context, spec engine.RunSpec, sink engine.LogSink) (engine.RunResult, error) {
	key := ContainerKey(spec.Name)
	f.enter(&f.runs, key)
	defer f.leave()

	f.sleep(ctx)

	if sink != nil {
		sink(fmt.Sprintf("fake run %s", spec.Name))
	}

	if err := f.RunErrs[key]; err != nil {
		return engine.RunResult{}, err
	}
	return engine.RunResult{ExitCode: f.RunExits[key]}, nil
}

// Close implements engine.Engine.
func (f *FakeEngine) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Builds returns the image names built, in start order.
func (f *FakeEngine) Builds() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.builds...)
}

// Runs returns the container keys run, in start order.
func (f *FakeEngine) Runs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.runs...)
}

// PeakActive returns the highest number of concurrent operations seen.
func (f *FakeEngine) PeakActive() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peakActive
}

// Closed reports whether Close was called.
func (f *FakeEngine) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func (f *FakeEngine) enter(log *[]string, entry string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	*log = append(*log, entry)
	f.active++
	if f.active > f.peakActive {
		f.peakActive = f.active
	}
}

func (f *FakeEngine) leave() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.active--
}

func (f *FakeEngine) sleep(ctx context.Context) {
	if f.Delay <= 0 {
		return
	}
	select {
	case <-time.After(f.Delay):
	case <-ctx.Done():
	}
}

var _ engine.Engine = (*FakeEngine)(nil)
