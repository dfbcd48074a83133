package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubjectPathFrom(t *testing.T) {
	got, err := SubjectPathFrom(filepath.FromSlash("/project/test/index_test.go"), "index.js")
	require.NoError(t, err)

	want, err := filepath.Abs(filepath.FromSlash("/project/index.js"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = SubjectPathFrom("", "index.js")
	assert.Error(t, err)
}

func TestSubjectPath(t *testing.T) {
	got, err := SubjectPath("index.js")
	require.NoError(t, err)

	// go test runs in the package directory, next to this file.
	want, err := filepath.Abs(filepath.Join("..", "index.js"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSubjectPathTrimmedCaller(t *testing.T) {
	// -trimpath records callers as module-relative paths.
	got, err := subjectPath("github.com/GriffinCanCode/pagespec/internal/bootstrap/resolve_test.go", "index.js")
	require.NoError(t, err)

	want, err := filepath.Abs(filepath.Join("..", "index.js"))
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestExpandScripts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"lib/b.js", "lib/a.js", "lib/sub/c.js", "lib/notes.txt", "index.js"} {
		writeScript(t, dir, name, "")
	}
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "lib", "empty.js"), 0o755))

	t.Run("globs sorted per pattern", func(t *testing.T) {
		got, err := ExpandScripts(dir, []string{"lib/**/*.js", "index.js"})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "lib", "a.js"),
			filepath.Join(dir, "lib", "b.js"),
			filepath.Join(dir, "lib", "sub", "c.js"),
			filepath.Join(dir, "index.js"),
		}, got)
	})

	t.Run("duplicates dropped", func(t *testing.T) {
		got, err := ExpandScripts(dir, []string{"lib/a.js", "lib/*.js"})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "lib", "a.js"),
			filepath.Join(dir, "lib", "b.js"),
		}, got)
	})

	t.Run("missing literal kept", func(t *testing.T) {
		got, err := ExpandScripts(dir, []string{"missing.js"})
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "missing.js")}, got)
	})

	t.Run("absolute paths ignore base", func(t *testing.T) {
		abs := filepath.Join(dir, "index.js")
		got, err := ExpandScripts("/elsewhere", []string{abs})
		require.NoError(t, err)
		assert.Equal(t, []string{abs}, got)
	})

	t.Run("directory walks scripts", func(t *testing.T) {
		writeScript(t, dir, "lib/node_modules/dep.js", "")
		writeScript(t, dir, "lib/.cache/old.js", "")

		got, err := ExpandScripts(dir, []string{"lib"})
		require.NoError(t, err)
		assert.Equal(t, []string{
			filepath.Join(dir, "lib", "a.js"),
			filepath.Join(dir, "lib", "b.js"),
			filepath.Join(dir, "lib", "sub", "c.js"),
		}, got)
	})

	t.Run("directory without scripts", func(t *testing.T) {
		_, err := ExpandScripts(dir, []string{"lib/empty.js"})
		assert.ErrorIs(t, err, ErrNoMatch)
	})

	t.Run("unmatched glob", func(t *testing.T) {
		_, err := ExpandScripts(dir, []string{"src/**/*.js"})
		assert.ErrorIs(t, err, ErrNoMatch)
	})
}
