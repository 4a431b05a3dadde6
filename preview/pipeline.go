// Package preview ties extraction, validation, scope synthesis and
// sandboxed evaluation into one call that always produces a Result.
package preview

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/rubiojr/livepreview/ast"
	"github.com/rubiojr/livepreview/extract"
	"github.com/rubiojr/livepreview/registry"
	"github.com/rubiojr/livepreview/render"
	"github.com/rubiojr/livepreview/sandbox"
	"github.com/rubiojr/livepreview/scope"
)

// State is a step of a preview run.
type State int

const (
	Idle State = iota
	Extracting
	Validating
	Blocked
	Evaluating
	StateRendered
	StateCompileError
	StateRuntimeError
)

func (s State) String() string {
	switch s {
	case Extracting:
		return "extracting"
	case Validating:
		return "validating"
	case Blocked:
		return "blocked"
	case Evaluating:
		return "evaluating"
	case StateRendered:
		return "rendered"
	case StateCompileError:
		return "compile_error"
	case StateRuntimeError:
		return "runtime_error"
	}
	return "idle"
}

// Pipeline runs previews against a registry snapshot. It holds no
// per-run state and is safe for concurrent use.
type Pipeline struct {
	Registry *registry.Snapshot
	Options  sandbox.Options
	// Handlers supplies real implementations for handler names; names
	// not found here are bound to no-op stubs.
	Handlers map[string]*render.Func
	Logger   *slog.Logger
}

// New returns a pipeline over snap with default options.
func New(snap *registry.Snapshot) *Pipeline {
	return &Pipeline{Registry: snap}
}

// Run previews snippet.
func (p *Pipeline) Run(ctx context.Context, snippet string) Result {
	return p.RunSeq(ctx, 0, snippet)
}

// RunSeq previews snippet and stamps the result with seq so callers
// can discard results that arrive after a newer run.
func (p *Pipeline) RunSeq(ctx context.Context, seq uint64, snippet string) Result {
	r := &run{log: p.logger().With("seq", seq), state: Idle, start: time.Now()}
	res := Result{Seq: seq}

	r.to(Extracting)
	res.References = extract.Extract(snippet)

	r.to(Validating)
	if err := registry.Validate(res.References.Components, p.Registry); err != nil {
		r.to(Blocked)
		return validationResult(res, err)
	}

	sc, err := scope.Build(res.References, p.Registry, scope.WithHandlers(p.Handlers))
	if err != nil {
		r.to(Blocked)
		return validationResult(res, err)
	}

	r.to(Evaluating)
	opts := p.Options
	opts.Checks = append(append(ast.CheckChain{}, p.Options.Checks...), registry.ValidationCheck{Snapshot: p.Registry})
	node, err := sandbox.Evaluate(ctx, snippet, sc, opts)
	if err != nil {
		res = failureResult(res, err)
		if res.Kind == CompileError {
			r.to(StateCompileError)
		} else {
			r.to(StateRuntimeError)
		}
		r.log.Debug("preview failed", "kind", res.Kind, "error", err)
		return res
	}

	r.to(StateRendered)
	res.Kind = Rendered
	res.Artifact = node
	res.HTML = render.HTML(node)
	return res
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

type run struct {
	log   *slog.Logger
	state State
	start time.Time
}

func (r *run) to(next State) {
	r.log.Debug("preview state", "from", r.state.String(), "to", next.String(), "elapsed", time.Since(r.start))
	r.state = next
}

func validationResult(res Result, err error) Result {
	res.Kind = ValidationError
	var merr *registry.MissingError
	if errors.As(err, &merr) {
		res.Missing = merr.Missing
		res.Hints = merr.Hints
		return res
	}
	res.Missing = res.References.Components
	return res
}

func failureResult(res Result, err error) Result {
	var (
		cerr *sandbox.CompileError
		rerr *sandbox.RuntimeError
		merr *registry.MissingError
	)
	switch {
	case errors.As(err, &cerr):
		res.Kind = CompileError
		res.Error = &Failure{Message: cerr.Message, Line: cerr.Line, Column: cerr.Column, Fragment: cerr.Fragment}
	case errors.As(err, &rerr):
		res.Kind = RuntimeError
		res.Error = &Failure{Kind: string(rerr.Kind), Message: rerr.Message, Line: rerr.Line, Column: rerr.Column}
	case errors.As(err, &merr):
		return validationResult(res, err)
	default:
		res.Kind = RuntimeError
		res.Error = &Failure{Kind: string(sandbox.KindRender), Message: err.Error()}
	}
	return res
}
