package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Environment is one emulated window: a goja VM wired to a parsed document
type Environment struct {
	id     string
	config Config
	vm     *goja.Runtime
	dom    *DOM
	logger *zap.Logger
	mu     sync.Mutex

	// Console output
	console   []LogEntry
	consoleMu sync.Mutex

	timers  timerQueue
	scripts []string
	closed  bool
}

// Option configures an Environment
type Option func(*Environment)

// WithLogger forwards captured console output to logger at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Environment) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New constructs a window around markup. Errors wrap ErrConstruction.
func New(ctx context.Context, config Config, markup string, opts ...Option) (*Environment, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConstruction, err)
	}

	if config.SanitizeMarkup {
		markup = SanitizeMarkup(markup)
	}
	dom, err := ParseDOM(markup)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConstruction, err)
	}

	vm := goja.New()
	if config.MaxCallStackSize > 0 {
		vm.SetMaxCallStackSize(config.MaxCallStackSize)
	}

	e := &Environment{
		id:      uuid.NewString(),
		config:  config,
		vm:      vm,
		dom:     dom,
		logger:  zap.NewNop(),
		console: []LogEntry{},
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With(zap.String("sandbox", e.id))

	if err := e.setupGlobals(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConstruction, err)
	}

	return e, nil
}

// ID returns the environment's unique identifier
func (e *Environment) ID() string {
	return e.id
}

// DOM returns the document the window was built from
func (e *Environment) DOM() *DOM {
	return e.dom
}

// Scripts returns the names of scripts evaluated so far, in order
func (e *Environment) Scripts() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string{}, e.scripts...)
}

// Console returns captured console output
func (e *Environment) Console() []LogEntry {
	e.consoleMu.Lock()
	defer e.consoleMu.Unlock()
	return append([]LogEntry{}, e.console...)
}

// Evaluate runs source in the window under the configured timeout.
// Errors wrap ErrEvaluation.
func (e *Environment) Evaluate(ctx context.Context, name, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEvaluation, name, err)
	}

	stop := e.guard(ctx)
	_, err := e.vm.RunScript(name, source)
	stop()

	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrEvaluation, name, err)
	}
	e.scripts = append(e.scripts, name)
	return nil
}

// EvaluateFile reads a script from disk and evaluates it. Unreadable or
// non-text files wrap ErrConstruction.
func (e *Environment) EvaluateFile(ctx context.Context, path string) error {
	source, err := ReadScript(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConstruction, err)
	}
	return e.Evaluate(ctx, path, source)
}

// Eval evaluates an expression and returns its exported value
func (e *Environment) Eval(ctx context.Context, expression string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, ErrClosed
	}

	stop := e.guard(ctx)
	val, err := e.vm.RunString(expression)
	stop()

	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEvaluation, err)
	}
	return exportValue(val), nil
}

// Exports returns every enumerable own property of the global object
func (e *Environment) Exports() map[string]*Binding {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return map[string]*Binding{}
	}

	global := e.vm.GlobalObject()
	keys := global.Keys()
	exports := make(map[string]*Binding, len(keys))
	for _, key := range keys {
		exports[key] = &Binding{name: key, value: global.Get(key), env: e}
	}
	return exports
}

// Close releases the VM. Bindings from this environment stop working.
func (e *Environment) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.closed = true
	e.vm = nil
	e.timers = timerQueue{}
	return nil
}

// guard interrupts the VM when the timeout elapses or ctx is done.
// The returned func must be called once the VM returns; it clears any
// interrupt that raced with completion so the runtime stays usable.
func (e *Environment) guard(ctx context.Context) func() {
	var timer *time.Timer
	var timeout <-chan time.Time
	if e.config.Timeout > 0 {
		timer = time.NewTimer(e.config.Timeout)
		timeout = timer.C
	}

	vm := e.vm
	done := make(chan struct{})
	exited := make(chan struct{})
	go func() {
		defer close(exited)
		select {
		case <-timeout:
			vm.Interrupt("execution timeout exceeded")
		case <-ctx.Done():
			vm.Interrupt("context cancelled")
		case <-done:
		}
	}()

	return func() {
		if timer != nil {
			timer.Stop()
		}
		close(done)
		<-exited
		vm.ClearInterrupt()
	}
}

// setupGlobals configures the window object
func (e *Environment) setupGlobals() error {
	global := e.vm.GlobalObject()
	for _, name := range []string{"window", "self"} {
		if err := e.vm.Set(name, global); err != nil {
			return err
		}
	}

	location := e.vm.NewObject()
	location.Set("href", e.config.URL)
	location.Set("toString", func(goja.FunctionCall) goja.Value {
		return e.vm.ToValue(e.config.URL)
	})
	if err := e.vm.Set("location", location); err != nil {
		return err
	}

	navigator := e.vm.NewObject()
	navigator.Set("userAgent", e.config.UserAgent)
	if err := e.vm.Set("navigator", navigator); err != nil {
		return err
	}

	console := e.vm.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		console.Set(level, e.makeConsoleFunc(level))
	}
	if err := e.vm.Set("console", console); err != nil {
		return err
	}

	if err := e.setupTimers(); err != nil {
		return err
	}

	if e.config.EnableDOM {
		return e.injectDOM()
	}
	return nil
}

// makeConsoleFunc creates a console function
func (e *Environment) makeConsoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if !e.config.EnableConsole {
			return goja.Undefined()
		}

		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}
		msg := strings.Join(parts, " ")

		e.consoleMu.Lock()
		e.console = append(e.console, LogEntry{
			Level:   level,
			Message: msg,
			Time:    time.Now(),
		})
		e.consoleMu.Unlock()

		e.logger.Debug("console", zap.String("level", level), zap.String("message", msg))
		return goja.Undefined()
	}
}

// isText reports whether data looks like script source
func isText(data []byte) bool {
	if len(data) == 0 {
		return true
	}
	for mt := mimetype.Detect(data); mt != nil; mt = mt.Parent() {
		if mt.Is("text/plain") {
			return true
		}
	}
	return false
}

// exportValue converts goja value to Go value
func exportValue(val goja.Value) interface{} {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}
