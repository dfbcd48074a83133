package sandbox

import (
	"context"
	"fmt"

	"github.com/dop251/goja"
)

// maxTimerRuns bounds Settle so self-rescheduling timers cannot spin forever.
const maxTimerRuns = 10000

type timer struct {
	id   int64
	at   int64
	seq  int64
	fn   goja.Callable
	args []goja.Value
}

// timerQueue runs callbacks on a virtual clock: nothing waits in real time,
// callbacks fire in (due time, scheduling order).
type timerQueue struct {
	pending []*timer
	nextID  int64
	clock   int64
}

func (q *timerQueue) add(fn goja.Callable, delay int64, args []goja.Value) int64 {
	if delay < 0 {
		delay = 0
	}
	q.nextID++
	q.pending = append(q.pending, &timer{
		id:   q.nextID,
		at:   q.clock + delay,
		seq:  q.nextID,
		fn:   fn,
		args: args,
	})
	return q.nextID
}

func (q *timerQueue) remove(id int64) {
	for i, t := range q.pending {
		if t.id == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			return
		}
	}
}

func (q *timerQueue) pop() *timer {
	if len(q.pending) == 0 {
		return nil
	}
	next := 0
	for i, t := range q.pending {
		if t.at < q.pending[next].at || (t.at == q.pending[next].at && t.seq < q.pending[next].seq) {
			next = i
		}
	}
	t := q.pending[next]
	q.pending = append(q.pending[:next], q.pending[next+1:]...)
	if t.at > q.clock {
		q.clock = t.at
	}
	return t
}

// setupTimers installs setTimeout and friends. Intervals are accepted but
// never fire, since Settle must terminate.
func (e *Environment) setupTimers() error {
	setTimeout := func(call goja.FunctionCall) goja.Value {
		fn, ok := goja.AssertFunction(call.Argument(0))
		if !ok {
			panic(e.vm.NewTypeError("setTimeout: callback is not a function"))
		}
		var args []goja.Value
		if len(call.Arguments) > 2 {
			args = append(args, call.Arguments[2:]...)
		}
		return e.vm.ToValue(e.timers.add(fn, call.Argument(1).ToInteger(), args))
	}
	clearTimeout := func(call goja.FunctionCall) goja.Value {
		e.timers.remove(call.Argument(0).ToInteger())
		return goja.Undefined()
	}

	var intervals int64
	setInterval := func(call goja.FunctionCall) goja.Value {
		intervals++
		return e.vm.ToValue(-intervals)
	}
	clearInterval := func(call goja.FunctionCall) goja.Value {
		return goja.Undefined()
	}

	bindings := map[string]interface{}{
		"setTimeout":    setTimeout,
		"clearTimeout":  clearTimeout,
		"setInterval":   setInterval,
		"clearInterval": clearInterval,
	}
	for name, fn := range bindings {
		if err := e.vm.Set(name, fn); err != nil {
			return err
		}
	}
	return nil
}

// PendingTimers reports how many setTimeout callbacks are queued
func (e *Environment) PendingTimers() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.timers.pending)
}

// Settle drains queued timers, including ones scheduled by other timers.
// Errors wrap ErrEvaluation.
func (e *Environment) Settle(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}

	stop := e.guard(ctx)
	defer stop()
	return e.drain()
}

// drain runs queued timers. The caller holds e.mu and a guard.
func (e *Environment) drain() error {
	for fired := 0; ; fired++ {
		t := e.timers.pop()
		if t == nil {
			return nil
		}
		if fired >= maxTimerRuns {
			return fmt.Errorf("%w: more than %d timers fired", ErrEvaluation, maxTimerRuns)
		}
		if _, err := t.fn(goja.Undefined(), t.args...); err != nil {
			return fmt.Errorf("%w: timer %d: %w", ErrEvaluation, t.id, err)
		}
	}
}
