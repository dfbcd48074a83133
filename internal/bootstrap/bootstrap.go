package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/pagespec/internal/globals"
	"github.com/GriffinCanCode/pagespec/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pagespec/internal/sandbox"
)

// ErrNoScripts is returned when Options names no script to load.
var ErrNoScripts = errors.New("no scripts to load")

// Options describes what to load
type Options struct {
	Scripts []string       // Script paths, evaluated in order
	Markup  string         // Document shell, sandbox.DefaultMarkup when empty
	Sandbox sandbox.Config // sandbox.DefaultConfig() when zero
}

// Outcome is the single result delivered by Start
type Outcome struct {
	Env *sandbox.Environment
	Err error
}

// Bootstrapper builds a sandboxed window from Options
type Bootstrapper struct {
	opts      Options
	logger    *zap.Logger
	metrics   *monitoring.Metrics
	namespace *globals.Namespace
}

// Option configures a Bootstrapper
type Option func(*Bootstrapper)

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bootstrapper) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithMetrics records bootstrap outcomes
func WithMetrics(metrics *monitoring.Metrics) Option {
	return func(b *Bootstrapper) {
		b.metrics = metrics
	}
}

// WithNamespace installs into ns instead of globals.Default()
func WithNamespace(ns *globals.Namespace) Option {
	return func(b *Bootstrapper) {
		if ns != nil {
			b.namespace = ns
		}
	}
}

// New creates a Bootstrapper
func New(opts Options, options ...Option) *Bootstrapper {
	if opts.Markup == "" {
		opts.Markup = sandbox.DefaultMarkup
	}
	if opts.Sandbox == (sandbox.Config{}) {
		opts.Sandbox = sandbox.DefaultConfig()
	}
	opts.Scripts = append([]string{}, opts.Scripts...)

	b := &Bootstrapper{
		opts:      opts,
		logger:    zap.NewNop(),
		namespace: globals.Default(),
	}
	for _, opt := range options {
		opt(b)
	}
	return b
}

// Options returns the effective options
func (b *Bootstrapper) Options() Options {
	return b.opts
}

// Namespace returns the namespace Run installs into
func (b *Bootstrapper) Namespace() *globals.Namespace {
	return b.namespace
}

// Start begins loading in the background. Exactly one Outcome is sent on
// the returned channel, which is then closed.
func (b *Bootstrapper) Start(ctx context.Context) <-chan Outcome {
	out := make(chan Outcome, 1)
	go func() {
		defer close(out)
		defer func() {
			if r := recover(); r != nil {
				out <- Outcome{Err: fmt.Errorf("%w: panic during bootstrap: %v", sandbox.ErrConstruction, r)}
			}
		}()

		env, err := b.load(ctx)
		out <- Outcome{Env: env, Err: err}
	}()
	return out
}

// Load builds the window and waits for the outcome
func (b *Bootstrapper) Load(ctx context.Context) (*sandbox.Environment, error) {
	outcome := <-b.Start(ctx)
	return outcome.Env, outcome.Err
}

// Run loads the window and installs its exports into the namespace.
// The namespace is left unmodified when loading fails.
func (b *Bootstrapper) Run(ctx context.Context) (*sandbox.Environment, error) {
	env, err := b.Load(ctx)
	if err != nil {
		return nil, err
	}

	exports := env.Exports()
	generation := b.namespace.Install(exports)
	b.logger.Debug("Installed sandbox exports",
		zap.String("sandbox", env.ID()),
		zap.Int("exports", len(exports)),
		zap.Uint64("generation", generation),
	)
	return env, nil
}

// Setup runs the bootstrap in the background and calls done exactly once,
// with nil after the exports are installed or with the failure otherwise.
func (b *Bootstrapper) Setup(ctx context.Context, done func(error)) {
	go func() {
		_, err := b.Run(ctx)
		done(err)
	}()
}

func (b *Bootstrapper) load(ctx context.Context) (*sandbox.Environment, error) {
	start := time.Now()
	logger := b.logger.With(zap.Strings("scripts", b.opts.Scripts))
	logger.Info("Bootstrapping sandbox")

	fail := func(err error) (*sandbox.Environment, error) {
		outcome := monitoring.OutcomeEvaluation
		if errors.Is(err, sandbox.ErrConstruction) {
			outcome = monitoring.OutcomeConstruction
		}
		b.metrics.RecordBootstrap(outcome, time.Since(start), 0)
		logger.Error("Sandbox bootstrap failed", zap.String("kind", outcome), zap.Error(err))
		return nil, err
	}

	if len(b.opts.Scripts) == 0 {
		return fail(fmt.Errorf("%w: %w", sandbox.ErrConstruction, ErrNoScripts))
	}

	env, err := sandbox.New(ctx, b.opts.Sandbox, b.opts.Markup, sandbox.WithLogger(b.logger))
	if err != nil {
		return fail(err)
	}

	for _, script := range b.opts.Scripts {
		logger.Debug("Evaluating script", zap.String("script", script), zap.String("sandbox", env.ID()))
		if err := env.EvaluateFile(ctx, script); err != nil {
			env.Close()
			return fail(err)
		}
	}
	if err := env.Settle(ctx); err != nil {
		env.Close()
		return fail(err)
	}

	for _, entry := range env.Console() {
		b.metrics.RecordConsole(entry.Level)
	}

	exported := len(env.Exports())
	duration := time.Since(start)
	b.metrics.RecordBootstrap(monitoring.OutcomeOK, duration, exported)
	logger.Info("Sandbox ready",
		zap.String("sandbox", env.ID()),
		zap.Int("exports", exported),
		zap.Duration("duration", duration),
	)
	return env, nil
}
