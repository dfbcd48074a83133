// Package globals holds the process-wide symbol table that test code reads
// sandbox exports from.
//
// A bootstrap installs a window's exports in one step; readers never see a
// half-populated table. Installing again replaces the table wholesale, so
// symbols from an earlier window do not leak into a later one.
package globals

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/GriffinCanCode/pagespec/internal/sandbox"
)

var (
	// ErrUndefined is returned when a symbol is not in the namespace.
	ErrUndefined = errors.New("symbol is not defined")
	// ErrNotFunction is returned when calling a symbol that is not callable.
	ErrNotFunction = sandbox.ErrNotFunction
)

// Namespace is a concurrency-safe table of exported globals.
type Namespace struct {
	mu         sync.RWMutex
	symbols    map[string]*sandbox.Binding
	generation uint64
}

var defaultNamespace = New()

// Default returns the process-wide namespace.
func Default() *Namespace {
	return defaultNamespace
}

// New creates an empty namespace.
func New() *Namespace {
	return &Namespace{symbols: map[string]*sandbox.Binding{}}
}

// Install replaces the table with exports and returns the new generation.
func (n *Namespace) Install(exports map[string]*sandbox.Binding) uint64 {
	symbols := make(map[string]*sandbox.Binding, len(exports))
	for name, b := range exports {
		symbols[name] = b
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	n.symbols = symbols
	n.generation++
	return n.generation
}

// Reset empties the table.
func (n *Namespace) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.symbols = map[string]*sandbox.Binding{}
	n.generation++
}

// Generation counts installs and resets; zero means never populated.
func (n *Namespace) Generation() uint64 {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.generation
}

// Lookup returns the binding for name.
func (n *Namespace) Lookup(name string) (*sandbox.Binding, bool) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	b, ok := n.symbols[name]
	return b, ok
}

// Keys returns the sorted symbol names.
func (n *Namespace) Keys() []string {
	n.mu.RLock()
	defer n.mu.RUnlock()

	keys := make([]string, 0, len(n.symbols))
	for k := range n.symbols {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of symbols.
func (n *Namespace) Len() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.symbols)
}

// Call invokes the named function with Go arguments.
func (n *Namespace) Call(name string, args ...interface{}) (interface{}, error) {
	b, ok := n.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUndefined)
	}
	return b.Call(args...)
}

// Func returns a Go closure that calls name through the namespace at call time.
func (n *Namespace) Func(name string) func(args ...interface{}) (interface{}, error) {
	return func(args ...interface{}) (interface{}, error) {
		return n.Call(name, args...)
	}
}

// Value exports the named symbol's current value.
func (n *Namespace) Value(name string) (interface{}, error) {
	b, ok := n.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrUndefined)
	}
	return b.Value(), nil
}
