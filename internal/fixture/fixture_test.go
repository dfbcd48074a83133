package fixture

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/pagespec/internal/sandbox"
)

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadFormats(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "index.js", "function sayHey() {}")
	write(t, dir, "lib/a.js", "")

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{
			name: "yaml",
			file: "fixture.yaml",
			content: `markup: <div id="app"></div>
scripts:
  - lib/*.js
  - index.js
timeout: 2s
url: http://localhost/
`,
		},
		{
			name: "toml",
			file: "fixture.toml",
			content: `markup = '<div id="app"></div>'
scripts = ["lib/*.js", "index.js"]
timeout = "2s"
url = "http://localhost/"
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Load(write(t, dir, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, `<div id="app"></div>`, f.Markup)

			opts, err := f.Options(sandbox.DefaultConfig())
			require.NoError(t, err)

			assert.Equal(t, []string{
				filepath.Join(dir, "lib", "a.js"),
				filepath.Join(dir, "index.js"),
			}, opts.Scripts)
			assert.Equal(t, 2*time.Second, opts.Sandbox.Timeout)
			assert.Equal(t, "http://localhost/", opts.Sandbox.URL)
			assert.True(t, opts.Sandbox.EnableDOM, "base config must carry through")
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(write(t, dir, "fixture.json", "{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(write(t, dir, "broken.toml", "scripts = ["))
	assert.Error(t, err)
}

func TestOptionsErrors(t *testing.T) {
	dir := t.TempDir()

	f, err := Load(write(t, dir, "empty.yaml", "markup: <p></p>\n"))
	require.NoError(t, err)
	_, err = f.Options(sandbox.DefaultConfig())
	assert.Error(t, err)

	f, err = Load(write(t, dir, "timeout.yaml", "scripts: [index.js]\ntimeout: soon\n"))
	require.NoError(t, err)
	_, err = f.Options(sandbox.DefaultConfig())
	assert.Error(t, err)
}
