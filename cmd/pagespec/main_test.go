package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const greetingScript = `
function sayHey() { return "Hey!"; }
function sayHeyFriend(name) { return "Hey, " + name + "!"; }
console.log("greetings loaded");
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestRunTextReport(t *testing.T) {
	script := writeFile(t, t.TempDir(), "index.js", greetingScript)

	code, out, errOut := runCLI(t, "-script", script, "-eval", `sayHeyFriend("Kristin")`)
	require.Equal(t, 0, code, errOut)

	assert.Contains(t, out, script)
	assert.Contains(t, out, "sayHey")
	assert.Contains(t, out, "function")
	assert.Contains(t, out, "[log]")
	assert.Contains(t, out, "greetings loaded")
	assert.Contains(t, out, `"Hey, Kristin!"`)
}

func TestRunJSONReport(t *testing.T) {
	script := writeFile(t, t.TempDir(), "index.js", greetingScript)

	code, out, errOut := runCLI(t, "-json", "-eval", "sayHey()", script)
	require.Equal(t, 0, code, errOut)

	var rep report
	require.NoError(t, sonic.Unmarshal([]byte(out), &rep))
	assert.NotEmpty(t, rep.Sandbox)
	assert.Equal(t, []string{script}, rep.Scripts)
	assert.Contains(t, rep.Exports, exportInfo{Name: "sayHey", Kind: "function"})
	assert.Contains(t, rep.Exports, exportInfo{Name: "sayHeyFriend", Kind: "function"})
	assert.Equal(t, "Hey!", rep.Eval)
	require.Len(t, rep.Console, 1)
	assert.Equal(t, "greetings loaded", rep.Console[0].Message)
}

func TestRunFixture(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.js", `var heading = document.querySelector("h1").textContent;`)
	fx := writeFile(t, dir, "page.yaml", "markup: <h1>Hey!</h1>\nscripts:\n  - index.js\n")

	code, out, errOut := runCLI(t, "-fixture", fx, "-json", "-eval", "heading")
	require.Equal(t, 0, code, errOut)

	var rep report
	require.NoError(t, sonic.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "Hey!", rep.Eval)
}

func TestRunMarkupOverridesFixture(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "index.js", `var heading = document.querySelector("h1").textContent;`)
	fx := writeFile(t, dir, "page.toml", "markup = '<h1>fixture</h1>'\nscripts = ['index.js']\n")

	code, out, errOut := runCLI(t, "-fixture", fx, "-markup", "<h1>flag</h1>", "-json", "-eval", "heading")
	require.Equal(t, 0, code, errOut)

	var rep report
	require.NoError(t, sonic.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "flag", rep.Eval)
}

func TestRunXPath(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "index.js", `document.querySelector("#greeting").textContent = sayHey();
function sayHey() { return "Hey!"; }`)

	code, out, errOut := runCLI(t, "-json", "-markup", `<div id="greeting"></div>`, "-xpath", `//div[@id="greeting"]`, script)
	require.Equal(t, 0, code, errOut)

	var rep report
	require.NoError(t, sonic.Unmarshal([]byte(out), &rep))
	assert.Equal(t, []string{`<div id="greeting">Hey!</div>`}, rep.Matches)

	code, out, errOut = runCLI(t, "-markup", `<div id="greeting"></div>`, "-xpath", "//div[", script)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "invalid xpath")
}

func TestRunFailures(t *testing.T) {
	dir := t.TempDir()
	bad := writeFile(t, dir, "bad.js", `throw new Error("boom")`)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantErr  string
	}{
		{name: "no scripts", args: nil, wantCode: 2, wantErr: "no scripts given"},
		{name: "bad flag", args: []string{"-nope"}, wantCode: 2},
		{name: "missing script", args: []string{filepath.Join(dir, "missing.js")}, wantCode: 1, wantErr: "sandbox construction failed"},
		{name: "throwing script", args: []string{bad}, wantCode: 1, wantErr: "script evaluation error"},
		{name: "unmatched glob", args: []string{"-script", filepath.Join(dir, "**", "*.ts")}, wantCode: 2, wantErr: "matched no scripts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tt.args...)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, errOut, tt.wantErr)
		})
	}
}

func TestRunEvalError(t *testing.T) {
	script := writeFile(t, t.TempDir(), "index.js", greetingScript)

	code, out, errOut := runCLI(t, "-json", "-eval", "notDefined()", script)
	require.Equal(t, 0, code, errOut)

	var rep report
	require.NoError(t, sonic.Unmarshal([]byte(out), &rep))
	assert.Contains(t, rep.EvalError, "notDefined")
}

func TestRunWatchStopsOnCancel(t *testing.T) {
	script := writeFile(t, t.TempDir(), "index.js", greetingScript)

	ctx, cancel := context.WithCancel(context.Background())
	var stdout, stderr bytes.Buffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"-watch", "-json", script}, &stdout, &stderr)
	}()

	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case code := <-done:
		assert.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("watch mode did not exit after cancel")
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, `"Hey!"`, formatValue("Hey!"))
	assert.Equal(t, "undefined", formatValue(nil))
	assert.Equal(t, "4", formatValue(int64(4)))
}
