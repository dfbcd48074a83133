package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/pagespec/internal/bootstrap"
	"github.com/GriffinCanCode/pagespec/internal/globals"
	"github.com/GriffinCanCode/pagespec/internal/sandbox"
)

func newWatched(t *testing.T, source string) (string, *globals.Namespace, chan *sandbox.Environment, chan error, *Watcher) {
	t.Helper()
	script := filepath.Join(t.TempDir(), "index.js")
	require.NoError(t, os.WriteFile(script, []byte(source), 0o644))

	ns := globals.New()
	boot := bootstrap.New(bootstrap.Options{Scripts: []string{script}}, bootstrap.WithNamespace(ns))

	reloads := make(chan *sandbox.Environment, 10)
	errs := make(chan error, 10)
	w, err := New(boot, Config{
		Debounce: 20 * time.Millisecond,
		OnReload: func(env *sandbox.Environment) { reloads <- env },
		OnError:  func(err error) { errs <- err },
	})
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	_, err = w.Reload(context.Background())
	require.NoError(t, err)
	return script, ns, reloads, errs, w
}

func TestReloadOnWrite(t *testing.T) {
	script, ns, reloads, _, w := newWatched(t, `function sayHey() { return "hey friends!"; }`)
	first := w.Current()
	require.NotNil(t, first)

	require.NoError(t, os.WriteFile(script, []byte(`function sayHey() { return "Hey!"; }`), 0o644))

	select {
	case env := <-reloads:
		assert.NotEqual(t, first.ID(), env.ID())
		assert.Same(t, env, w.Current())
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}

	got, err := ns.Call("sayHey")
	require.NoError(t, err)
	assert.Equal(t, "Hey!", got)
}

func TestFailedReloadKeepsNamespace(t *testing.T) {
	script, ns, _, errs, w := newWatched(t, `function sayHey() { return "Hey!"; }`)
	first := w.Current()

	require.NoError(t, os.WriteFile(script, []byte(`throw new Error("broken save")`), 0o644))

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, sandbox.ErrEvaluation)
	case <-time.After(5 * time.Second):
		t.Fatal("no error after broken write")
	}

	assert.Same(t, first, w.Current())
	got, err := ns.Call("sayHey")
	require.NoError(t, err)
	assert.Equal(t, "Hey!", got)
}

func TestUnrelatedFilesIgnored(t *testing.T) {
	script, _, reloads, _, _ := newWatched(t, `function sayHey() {}`)

	other := filepath.Join(filepath.Dir(script), "notes.txt")
	require.NoError(t, os.WriteFile(other, []byte("x"), 0o644))

	select {
	case <-reloads:
		t.Fatal("reloaded for an unrelated file")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestCloseStopsWatching(t *testing.T) {
	_, _, _, _, w := newWatched(t, `function sayHey() {}`)
	assert.NoError(t, w.Close())
}
