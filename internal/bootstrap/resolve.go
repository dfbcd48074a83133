package bootstrap

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charlievieth/fastwalk"
)

// ScriptExtensions are the file suffixes collected when a directory is
// given as a script.
var ScriptExtensions = []string{".js", ".mjs", ".js.gz"}

// ErrNoMatch is returned when a glob pattern matches no files.
var ErrNoMatch = errors.New("pattern matched no scripts")

// SubjectPath resolves name against the parent of the directory holding
// the calling source file. A suite in project/test/ asking for "index.js"
// gets project/index.js. Under -trimpath the recorded caller path is not
// absolute; the working directory, which go test sets to the package
// directory, stands in for the caller's directory.
func SubjectPath(name string) (string, error) {
	_, file, _, ok := runtime.Caller(1)
	if !ok {
		return "", errors.New("cannot determine caller location")
	}
	return subjectPath(file, name)
}

func subjectPath(file, name string) (string, error) {
	if file != "" && !filepath.IsAbs(file) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to resolve %s: %w", name, err)
		}
		file = filepath.Join(wd, filepath.Base(file))
	}
	return SubjectPathFrom(file, name)
}

// SubjectPathFrom is SubjectPath for an explicit source file.
func SubjectPathFrom(file, name string) (string, error) {
	if file == "" {
		return "", errors.New("empty source file path")
	}
	path, err := filepath.Abs(filepath.Join(filepath.Dir(file), "..", name))
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", name, err)
	}
	return path, nil
}

// ExpandScripts resolves relative patterns against base and expands globs,
// including "**". A directory expands to every script file beneath it.
// Other literal paths are returned even when missing so that the
// bootstrap reports them as construction failures. Results keep pattern
// order, are sorted within a pattern and contain no duplicates.
func ExpandScripts(base string, patterns []string) ([]string, error) {
	var scripts []string
	seen := map[string]bool{}
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			scripts = append(scripts, p)
		}
	}

	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		if !filepath.IsAbs(pattern) && base != "" {
			pattern = filepath.Join(base, pattern)
		}
		pattern = filepath.Clean(pattern)

		if !hasMeta(pattern) {
			if info, err := os.Stat(pattern); err == nil && info.IsDir() {
				found, err := walkScripts(pattern)
				if err != nil {
					return nil, err
				}
				if len(found) == 0 {
					return nil, fmt.Errorf("%w: %s", ErrNoMatch, pattern)
				}
				for _, f := range found {
					add(f)
				}
				continue
			}
			add(pattern)
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("%w: %s", ErrNoMatch, pattern)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return scripts, nil
}

// walkScripts collects script files under root, skipping hidden
// directories and node_modules.
func walkScripts(root string) ([]string, error) {
	var (
		mu    sync.Mutex
		found []string
	)
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			name := d.Name()
			if p != root && (strings.HasPrefix(name, ".") || name == "node_modules") {
				return fastwalk.SkipDir
			}
			return nil
		}
		if !isScript(p) {
			return nil
		}
		mu.Lock()
		found = append(found, p)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	sort.Strings(found)
	return found, nil
}

func isScript(path string) bool {
	for _, ext := range ScriptExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

func hasMeta(path string) bool {
	return strings.ContainsAny(path, "*?[{")
}
