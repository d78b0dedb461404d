// SPDX-License-Identifier: MPL-2.0

// Package initializer drives every discovered artifact through its
// initialization state machine:
//
//	absent  -> write expected                  -> final check
//	present -> correct?  yes -> done
//	                     no  -> write repaired -> final check
//	final check: correct -> done, otherwise Fatal (ErrUnconvergedRepair)
//
// Artifacts are grouped by priority and groups run in descending order with
// a barrier in between (see package scheduler). Any ambiguity is detected
// while planning, before the first write.
package initializer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/tendkit/tend/internal/discovery"
	"github.com/tendkit/tend/internal/registry"
	"github.com/tendkit/tend/internal/scheduler"

	"github.com/charmbracelet/log"
)

const (
	// ModeApply creates and repairs artifacts.
	ModeApply Mode = iota
	// ModeCheck validates artifacts without writing anything. Missing and
	// incorrect artifacts are failures.
	ModeCheck
)

const (
	// DefaultRoot is the root component when a Request names none.
	DefaultRoot = "tend"
	// DefaultModulePath is the module path when a Request names none.
	DefaultModulePath = "artifacts"
)

type (
	// Mode selects what RunAll does with each artifact.
	Mode int

	// Request describes one run.
	Request struct {
		ProjectDir string
		// Root is the component whose dependents are scanned.
		Root string
		// ModulePath is the module path variants are collected from.
		ModulePath string
		Mode       Mode
		// PriorityOnly restricts the run to groups with priority > 0.
		PriorityOnly bool
		// DryRun plans without running any task.
		DryRun bool
	}

	// Engine runs requests against a registry.
	Engine struct {
		reg         *registry.Registry
		logger      *log.Logger
		concurrency int
	}

	// Option configures an Engine.
	Option func(*Engine)
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeApply:
		return "apply"
	case ModeCheck:
		return "check"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *log.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithConcurrency bounds the artifacts initialized at once within a
// priority group. Zero means runtime.GOMAXPROCS(0).
func WithConcurrency(n int) Option {
	return func(e *Engine) {
		e.concurrency = n
	}
}

// New creates an Engine over reg.
func New(reg *registry.Registry, opts ...Option) *Engine {
	e := &Engine{reg: reg, logger: log.New(io.Discard)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunAll discovers, plans and runs req, returning the consolidated report.
// Planning errors (configuration problems and ambiguity) return a nil
// report. When any artifact fails the report is returned together with an
// error wrapping ErrArtifactsFailed.
func (e *Engine) RunAll(ctx context.Context, req Request) (*Report, error) {
	plan, err := e.Plan(ctx, req)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Mode:         req.Mode,
		DryRun:       req.DryRun,
		PriorityOnly: req.PriorityOnly,
		Components:   plan.Env.Components,
		Diagnostics:  plan.Diagnostics,
		Results:      make([]Result, len(plan.Items)),
	}
	for i, it := range plan.Items {
		report.Results[i] = it.result(OutcomeSkipped)
		if req.DryRun {
			report.Results[i].Outcome = OutcomePlanned
		}
	}
	if req.DryRun {
		e.logger.Info("dry run", "artifacts", len(plan.Items), "groups", len(plan.Groups))
		return report, nil
	}

	task := e.initialize
	if req.Mode == ModeCheck {
		task = e.check
	}

	runErr := scheduler.Run(ctx, plan.Groups, scheduler.Options{
		Concurrency: e.concurrency,
		OnGroup: func(p float64, n int) {
			e.logger.Debug("starting priority group", "priority", p, "artifacts", n)
		},
	}, func(ctx context.Context, it *Item) error {
		res := task(ctx, it)
		report.Results[it.index] = res
		if res.Outcome.Failed() && req.Mode == ModeApply {
			return &ArtifactError{ID: res.ID, Location: res.Location, Reason: res.Reason, Err: res.Err}
		}
		return nil
	})

	if errors.Is(runErr, scheduler.ErrCanceled) {
		return report, runErr
	}
	if failures := report.Failures(); len(failures) > 0 {
		return report, fmt.Errorf("%w: %d of %d", ErrArtifactsFailed, len(failures), len(report.Results))
	}
	return report, nil
}

func (r Request) withDefaults() (Request, error) {
	if r.Root == "" {
		r.Root = DefaultRoot
	}
	if r.ModulePath == "" {
		r.ModulePath = DefaultModulePath
	}
	if r.ProjectDir == "" {
		r.ProjectDir = "."
	}
	abs, err := filepath.Abs(r.ProjectDir)
	if err != nil {
		return r, fmt.Errorf("resolve project directory: %w", err)
	}
	r.ProjectDir = abs
	return r, nil
}

// discoveryDiag builds a planning diagnostic.
func discoveryDiag(code, path, format string, args ...any) discovery.Diagnostic {
	return discovery.Diagnostic{
		Severity: discovery.SeverityWarning,
		Code:     code,
		Path:     path,
		Message:  fmt.Sprintf(format, args...),
	}
}
