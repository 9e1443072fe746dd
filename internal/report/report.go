// Package report collects per-job outcomes as they complete and
// renders the end-of-run summary. Jobs finish in any order; the
// summary is re-sorted into declaration order.
package report

import (
	"sort"
	"sync"
	"time"
)

// Kind distinguishes build outcomes from run outcomes.
type Kind string

const (
	KindBuild Kind = "build"
	KindRun   Kind = "run"
)

// Outcome is the recorded result of one build or run job.
type Outcome struct {
	Kind Kind

	// Seq is the job's declaration-order index within its kind.
	Seq int

	Image     string
	Env       string
	Container string

	// ExitCode is the container exit code for runs; builds use 0/1.
	ExitCode int

	// Error holds the failure message, empty on success.
	Error string

	Duration time.Duration
}

// Passed reports whether the job succeeded.
func (o Outcome) Passed() bool {
	return o.ExitCode == 0 && o.Error == ""
}

// Describe renders the outcome in the summary's one-line form.
func (o Outcome) Describe() string {
	duration := " [Duration: " + FormatDuration(o.Duration) + "]"
	if o.Kind == KindBuild {
		if o.Passed() {
			return o.Image + " image created." + duration
		}
		return "Build image " + o.Image + " failed." + duration
	}
	if o.Passed() {
		return "Container " + o.Container + " run succeeded." + duration
	}
	return "Container " + o.Container + " run failed." + duration
}

// Sink is the thread-safe outcome collection shared by all jobs.
type Sink struct {
	mu       sync.Mutex
	outcomes []Outcome
}

// NewSink creates an empty sink.
func NewSink() *Sink {
	return &Sink{}
}

// Append records one outcome. Safe for concurrent use.
func (s *Sink) Append(o Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, o)
}

// Outcomes returns all outcomes sorted into presentation order:
// builds first, then runs, each in declaration order.
func (s *Sink) Outcomes() []Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := append([]Outcome(nil), s.outcomes...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind == KindBuild
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// Len returns the number of recorded outcomes.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.outcomes)
}

// Summary aggregates a finished run.
type Summary struct {
	ProjectName string
	Threads     int

	// ExpectedImages and ExpectedRuns are the planned job counts;
	// outcomes may be fewer if the harness aborted mid-phase.
	ExpectedImages int
	ExpectedRuns   int

	// BuildOnly hides the container counters.
	BuildOnly bool

	Outcomes []Outcome
	Total    time.Duration
}

// Summarize builds a Summary from the sink's current contents.
func Summarize(sink *Sink, cfg SummaryConfig) Summary {
	return Summary{
		ProjectName:    cfg.ProjectName,
		Threads:        cfg.Threads,
		ExpectedImages: cfg.ExpectedImages,
		ExpectedRuns:   cfg.ExpectedRuns,
		BuildOnly:      cfg.BuildOnly,
		Outcomes:       sink.Outcomes(),
		Total:          cfg.Total,
	}
}

// SummaryConfig carries the run-level facts the sink does not know.
type SummaryConfig struct {
	ProjectName    string
	Threads        int
	ExpectedImages int
	ExpectedRuns   int
	BuildOnly      bool
	Total          time.Duration
}

// ImagesPassed counts successful builds.
func (s Summary) ImagesPassed() int {
	return s.countPassed(KindBuild)
}

// RunsPassed counts successful container runs.
func (s Summary) RunsPassed() int {
	return s.countPassed(KindRun)
}

func (s Summary) countPassed(kind Kind) int {
	n := 0
	for _, o := range s.Outcomes {
		if o.Kind == kind && o.Passed() {
			n++
		}
	}
	return n
}

// Failed reports overall failure: any failed outcome, or fewer
// outcomes than planned.
func (s Summary) Failed() bool {
	for _, o := range s.Outcomes {
		if !o.Passed() {
			return true
		}
	}
	if s.ImagesPassed() < s.ExpectedImages {
		return true
	}
	if !s.BuildOnly && s.RunsPassed() < s.ExpectedRuns {
		return true
	}
	return false
}
