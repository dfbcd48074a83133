package sandbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettleOrdersTimers(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(), DefaultMarkup)
	ctx := context.Background()

	require.NoError(t, env.Evaluate(ctx, "timers.js", `
		var order = [];
		setTimeout(function () { order.push("b"); }, 10);
		setTimeout(function (v) { order.push(v); }, 0, "a");
		setTimeout(function () {
			setTimeout(function () { order.push("d"); }, 0);
			order.push("c");
		}, 20);
	`))
	assert.Equal(t, 3, env.PendingTimers())

	require.NoError(t, env.Settle(ctx))
	assert.Zero(t, env.PendingTimers())

	got, err := env.Eval(ctx, `order.join(",")`)
	require.NoError(t, err)
	assert.Equal(t, "a,b,c,d", got)
}

func TestClearTimeout(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(), DefaultMarkup)
	ctx := context.Background()

	require.NoError(t, env.Evaluate(ctx, "timers.js", `
		var fired = false;
		var id = setTimeout(function () { fired = true; }, 0);
		clearTimeout(id);
		setInterval(function () { fired = true; }, 1);
	`))
	require.NoError(t, env.Settle(ctx))

	got, err := env.Eval(ctx, "fired")
	require.NoError(t, err)
	assert.Equal(t, false, got)
}

func TestSettleTimerError(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(), DefaultMarkup)
	ctx := context.Background()

	require.NoError(t, env.Evaluate(ctx, "timers.js", `setTimeout(function () { throw new Error("late"); }, 5);`))
	err := env.Settle(ctx)
	assert.ErrorIs(t, err, ErrEvaluation)
	assert.ErrorContains(t, err, "late")
}

func TestSettleRunaway(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(), DefaultMarkup)
	ctx := context.Background()

	require.NoError(t, env.Evaluate(ctx, "timers.js", `
		function again() { setTimeout(again, 0); }
		again();
	`))
	assert.ErrorIs(t, env.Settle(ctx), ErrEvaluation)
}

func TestSetTimeoutRequiresFunction(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(), DefaultMarkup)
	err := env.Evaluate(context.Background(), "timers.js", `setTimeout("code", 0)`)
	assert.ErrorIs(t, err, ErrEvaluation)
}

func TestBindingCallDrainsTimers(t *testing.T) {
	env := newTestEnv(t, DefaultConfig(), DefaultMarkup)
	ctx := context.Background()
	require.NoError(t, env.Evaluate(ctx, "later.js", `
		var fired = [];
		function later(tag) {
			setTimeout(function () { fired.push(tag); }, 10);
			return "scheduled";
		}
		function laterFails() {
			setTimeout(function () { throw new Error("timer failed"); }, 0);
		}
	`))
	exports := env.Exports()

	got, err := exports["later"].Call("a")
	require.NoError(t, err)
	assert.Equal(t, "scheduled", got)
	assert.Zero(t, env.PendingTimers())

	fired, err := env.Eval(ctx, "fired.join(',')")
	require.NoError(t, err)
	assert.Equal(t, "a", fired)

	_, err = exports["laterFails"].Call()
	assert.ErrorIs(t, err, ErrEvaluation)
	assert.ErrorContains(t, err, "timer failed")
}
