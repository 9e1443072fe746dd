// Package orchestrator drives the two execution phases: build every
// declared image, then run every surviving (image, environment) pair.
// Builds fully drain before any run starts; both phases share one
// bounded worker pool.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/envmatrix/envmatrix/internal/config"
	"github.com/envmatrix/envmatrix/internal/engine"
	"github.com/envmatrix/envmatrix/internal/events"
	"github.com/envmatrix/envmatrix/internal/extravars"
	"github.com/envmatrix/envmatrix/internal/matrix"
	"github.com/envmatrix/envmatrix/internal/report"
	"github.com/envmatrix/envmatrix/internal/worker"
)

// Options controls a single harness run.
type Options struct {
	// BuildOnly skips the run phase entirely.
	BuildOnly bool
}

// Orchestrator wires the matrix to the engine through the pool.
type Orchestrator struct {
	cfg  *config.Config
	eng  engine.Engine
	bus  *events.Bus
	sink *report.Sink
	pool *worker.Pool

	mu          sync.Mutex
	builtImages map[string]bool
	engineErr   error
}

// New creates an orchestrator. The sink collects outcomes; the bus
// receives lifecycle events.
func New(cfg *config.Config, eng engine.Engine, bus *events.Bus, sink *report.Sink, pool *worker.Pool) *Orchestrator {
	return &Orchestrator{
		cfg:         cfg,
		eng:         eng,
		bus:         bus,
		sink:        sink,
		pool:        pool,
		builtImages: make(map[string]bool),
	}
}

// Run executes the harness. Per-job failures become outcomes and do
// not abort siblings. A fatal error (missing build file, unreachable
// engine) before any job starts returns with an empty summary;
// an engine failure mid-run aborts the remaining work and returns the
// partial summary alongside the error.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (report.Summary, error) {
	start := time.Now()

	dockerfiles, err := o.cfg.ResolveDockerfiles()
	if err != nil {
		return report.Summary{}, err
	}

	if err := o.eng.Ping(ctx); err != nil {
		return report.Summary{}, err
	}

	pairs := matrix.Pairs(o.cfg)

	o.bus.Publish(events.Event{Type: events.HarnessStarted, Payload: map[string]any{
		"threads":         o.pool.Size(),
		"expected_images": len(o.cfg.Images),
		"environments":    o.cfg.Environments.Len(),
		"expected_runs":   len(pairs),
		"build_only":      opts.BuildOnly,
	}})

	// Phase 1: builds. Cancellation here only stops admission of
	// queued jobs; running builds finish and record their outcome.
	phaseCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	o.bus.Publish(events.Event{Type: events.PhaseBuildStarted})
	for i, image := range o.cfg.Images {
		seq, image := i, image
		o.bus.Publish(events.NewEvent(events.BuildQueued, image))
		if err := o.pool.Submit(phaseCtx, func(jobCtx context.Context) {
			o.buildJob(jobCtx, cancel, seq, image, dockerfiles[image])
		}); err != nil {
			break
		}
	}
	o.pool.Wait()

	if !opts.BuildOnly && o.fatalErr() == nil {
		o.bus.Publish(events.Event{Type: events.PhaseRunStarted})
		for _, pair := range pairs {
			pair := pair
			o.bus.Publish(events.NewEvent(events.RunQueued, pair.Image).WithEnv(pair.Env))
			if err := o.pool.Submit(phaseCtx, func(jobCtx context.Context) {
				o.runJob(jobCtx, cancel, pair)
			}); err != nil {
				break
			}
		}
		o.pool.Wait()
	} else if opts.BuildOnly {
		o.bus.Publish(events.Event{Type: events.PhaseRunSkipped})
	}

	summary := report.Summarize(o.sink, report.SummaryConfig{
		ProjectName:    o.cfg.ProjectName,
		Threads:        o.pool.Size(),
		ExpectedImages: len(o.cfg.Images),
		ExpectedRuns:   len(pairs),
		BuildOnly:      opts.BuildOnly,
		Total:          time.Since(start),
	})

	if err := o.fatalErr(); err != nil {
		o.bus.Publish(events.Event{Type: events.HarnessFailed}.WithError(err))
		return summary, err
	}

	o.bus.Publish(events.Event{Type: events.HarnessCompleted, Payload: map[string]any{
		"failed": summary.Failed(),
	}})
	return summary, nil
}

// buildJob builds one image and records the outcome.
func (o *Orchestrator) buildJob(ctx context.Context, cancel context.CancelFunc, seq int, image, dockerfile string) {
	start := time.Now()
	o.bus.Publish(events.NewEvent(events.BuildStarted, image))

	tag := matrix.ImageTag(o.cfg.ProjectName, image)
	_, err := o.eng.Build(ctx, engine.BuildSpec{
		Image:              image,
		Tag:                tag,
		ContextDir:         o.cfg.ImagePath,
		Dockerfile:         "Dockerfile_" + image,
		BuildArgs:          o.cfg.BuildArgs,
		RemoveIntermediate: o.cfg.RemoveImages,
	}, nil)

	outcome := report.Outcome{
		Kind:     report.KindBuild,
		Seq:      seq,
		Image:    image,
		Duration: time.Since(start),
	}

	if err != nil {
		outcome.ExitCode = 1
		outcome.Error = err.Error()
		o.sink.Append(outcome)
		o.bus.Publish(events.NewEvent(events.BuildFailed, image).WithError(err))
		o.noteFatal(err, cancel)
		return
	}

	o.mu.Lock()
	o.builtImages[image] = true
	o.mu.Unlock()

	o.sink.Append(outcome)
	o.bus.Publish(events.NewEvent(events.BuildSucceeded, image).WithPayload(map[string]any{
		"duration": outcome.Duration.String(),
	}))
}

// runJob runs one matrix pair and records the outcome. Pairs whose
// image never built fail immediately without touching the engine.
func (o *Orchestrator) runJob(ctx context.Context, cancel context.CancelFunc, pair matrix.Pair) {
	start := time.Now()
	name := matrix.ContainerName(pair.Image, pair.Env)

	outcome := report.Outcome{
		Kind:      report.KindRun,
		Seq:       pair.Seq,
		Image:     pair.Image,
		Env:       pair.Env,
		Container: name,
	}

	fail := func(exitCode int, err error) {
		outcome.ExitCode = exitCode
		outcome.Error = err.Error()
		outcome.Duration = time.Since(start)
		o.sink.Append(outcome)
		o.bus.Publish(events.NewEvent(events.RunFailed, pair.Image).
			WithEnv(pair.Env).WithContainer(name).WithError(err))
	}

	o.mu.Lock()
	built := o.builtImages[pair.Image]
	o.mu.Unlock()
	if !built {
		fail(1, fmt.Errorf("image %s was not built", pair.Image))
		return
	}

	env, err := extravars.EncodeList(pair.Vars)
	if err != nil {
		fail(1, err)
		return
	}

	o.bus.Publish(events.NewEvent(events.RunStarted, pair.Image).WithEnv(pair.Env).WithContainer(name))

	result, err := o.eng.Run(ctx, engine.RunSpec{
		Name:     name,
		ImageTag: matrix.ImageTag(o.cfg.ProjectName, pair.Image),
		Env:      env,
		Binds:    o.volumeBinds(),
	}, func(line string) {
		o.bus.Publish(events.NewEvent(events.ContainerLog, pair.Image).
			WithEnv(pair.Env).WithContainer(name).WithPayload(line))
	})
	if err != nil {
		fail(1, err)
		o.noteFatal(err, cancel)
		return
	}

	outcome.ExitCode = result.ExitCode
	outcome.Duration = time.Since(start)
	o.sink.Append(outcome)

	evt := events.NewEvent(events.RunSucceeded, pair.Image).WithEnv(pair.Env).WithContainer(name)
	if result.ExitCode != 0 {
		evt = events.NewEvent(events.RunFailed, pair.Image).WithEnv(pair.Env).WithContainer(name).
			WithError(fmt.Errorf("exit code %d", result.ExitCode))
	}
	o.bus.Publish(evt.WithPayload(map[string]any{"exit_code": result.ExitCode}))
}

// volumeBinds renders the configured volumes as host:container:mode,
// sorted by host path for deterministic container configs.
func (o *Orchestrator) volumeBinds() []string {
	hosts := make([]string, 0, len(o.cfg.Volumes))
	for host := range o.cfg.Volumes {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	binds := make([]string, 0, len(hosts))
	for _, host := range hosts {
		vol := o.cfg.Volumes[host]
		binds = append(binds, host+":"+vol.Bind+":"+vol.Mode)
	}
	return binds
}

// noteFatal records an engine failure and cancels job admission.
// Non-engine errors are per-job and never abort siblings.
func (o *Orchestrator) noteFatal(err error, cancel context.CancelFunc) {
	var engErr *engine.EngineError
	if !errors.As(err, &engErr) {
		return
	}

	o.mu.Lock()
	if o.engineErr == nil {
		o.engineErr = err
	}
	o.mu.Unlock()
	cancel()
}

func (o *Orchestrator) fatalErr() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.engineErr
}
