package sandbox

import (
	"context"
	"fmt"
	"math/big"
	"reflect"

	"github.com/dop251/goja"
)

// Binding is a global exported from an Environment
type Binding struct {
	name  string
	value goja.Value
	env   *Environment
}

// Name returns the global's property name
func (b *Binding) Name() string {
	return b.name
}

// Environment returns the window the binding came from
func (b *Binding) Environment() *Environment {
	return b.env
}

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// Kind reports the JavaScript type of the value: function, string, number,
// bigint, boolean, symbol, object, undefined or null.
func (b *Binding) Kind() string {
	switch {
	case b.value == nil || goja.IsUndefined(b.value):
		return "undefined"
	case goja.IsNull(b.value):
		return "null"
	}
	if _, ok := b.value.(*goja.Symbol); ok {
		return "symbol"
	}
	if _, ok := goja.AssertFunction(b.value); ok {
		return "function"
	}

	typ := b.value.ExportType()
	if typ == nil {
		return "object"
	}
	if typ == bigIntType {
		return "bigint"
	}
	switch typ.Kind() {
	case reflect.String:
		return "string"
	case reflect.Int, reflect.Int64, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	default:
		return "object"
	}
}

// Value exports the binding to a Go value
func (b *Binding) Value() interface{} {
	b.env.mu.Lock()
	defer b.env.mu.Unlock()
	return exportValue(b.value)
}

// Call invokes the binding with Go arguments and exports the result
func (b *Binding) Call(args ...interface{}) (interface{}, error) {
	return b.CallContext(context.Background(), args...)
}

// CallContext is Call with cancellation and the environment's timeout applied.
// Timers the call schedules are drained before it returns, so a callback
// error fails the call.
func (b *Binding) CallContext(ctx context.Context, args ...interface{}) (interface{}, error) {
	fn, ok := goja.AssertFunction(b.value)
	if !ok {
		return nil, fmt.Errorf("%s: %w", b.name, ErrNotFunction)
	}

	b.env.mu.Lock()
	defer b.env.mu.Unlock()

	if b.env.closed {
		return nil, fmt.Errorf("%s: %w", b.name, ErrClosed)
	}

	jsArgs := make([]goja.Value, len(args))
	for i, arg := range args {
		jsArgs[i] = b.env.vm.ToValue(arg)
	}

	stop := b.env.guard(ctx)
	res, err := fn(goja.Undefined(), jsArgs...)
	if err == nil {
		err = b.env.drain()
	}
	stop()

	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.name, err)
	}
	return exportValue(res), nil
}
