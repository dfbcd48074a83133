/*
Package sandbox provides an in-process, browser-like page for evaluating scripts.

# Overview

An Environment is a single emulated window backed by the goja JavaScript engine.
It is built from a markup fragment that gives scripts a valid document shell:

  - window, self and globalThis all refer to the global object
  - document exposes query methods over the parsed markup
  - console output is captured instead of printed
  - setTimeout callbacks are queued and drained by Settle
  - require, process, module and exports are undefined

# Lifecycle

	env, err := sandbox.New(ctx, sandbox.DefaultConfig(), "<div></div>")
	if err != nil {
		return err // wraps ErrConstruction
	}
	if err := env.EvaluateFile(ctx, "index.js"); err != nil {
		return err // ErrConstruction if unreadable, ErrEvaluation if it throws
	}
	if err := env.Settle(ctx); err != nil {
		return err
	}
	exports := env.Exports()

Exports returns every enumerable own property of the global object. A Binding keeps
a reference to its Environment, so the window stays alive for as long as any of its
bindings do and is otherwise left to the garbage collector.

# Concurrency

goja runtimes are not safe for concurrent use. Every entry into the runtime, including
calls made through a Binding, holds the Environment's mutex.
*/
package sandbox
