// Package fixture reads bootstrap descriptions from YAML or TOML files.
//
//	# walkthrough.yaml
//	markup: <div id="app"></div>
//	scripts:
//	  - index.js
//	  - lib/**/*.js
//	timeout: 2s
//
// Script patterns are resolved relative to the fixture file.
package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"

	"github.com/GriffinCanCode/pagespec/internal/bootstrap"
	"github.com/GriffinCanCode/pagespec/internal/sandbox"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported fixture format")

// Fixture describes one bootstrap
type Fixture struct {
	Markup  string   `yaml:"markup" toml:"markup"`
	Scripts []string `yaml:"scripts" toml:"scripts"`
	Timeout string   `yaml:"timeout" toml:"timeout"`
	URL     string   `yaml:"url" toml:"url"`

	dir string
}

// Load reads a fixture, choosing the decoder from the file extension
func Load(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fixture: %w", err)
	}

	var f Fixture
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse YAML fixture %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse TOML fixture %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve fixture path: %w", err)
	}
	f.dir = filepath.Dir(abs)
	return &f, nil
}

// Dir returns the directory script patterns are resolved against
func (f *Fixture) Dir() string {
	return f.dir
}

// Options converts the fixture into bootstrap options on top of base
func (f *Fixture) Options(base sandbox.Config) (bootstrap.Options, error) {
	if len(f.Scripts) == 0 {
		return bootstrap.Options{}, fmt.Errorf("fixture declares no scripts")
	}

	scripts, err := bootstrap.ExpandScripts(f.dir, f.Scripts)
	if err != nil {
		return bootstrap.Options{}, err
	}

	cfg := base
	if f.Timeout != "" {
		timeout, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return bootstrap.Options{}, fmt.Errorf("invalid fixture timeout %q: %w", f.Timeout, err)
		}
		cfg.Timeout = timeout
	}
	if f.URL != "" {
		cfg.URL = f.URL
	}

	return bootstrap.Options{
		Scripts: scripts,
		Markup:  f.Markup,
		Sandbox: cfg,
	}, nil
}
