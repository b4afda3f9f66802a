package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newTestApp(t *testing.T, opts Options) *Application {
	t.Helper()
	app, err := New(context.Background(), opts)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(app.Shutdown)
	return app
}

func TestRunEditsDocument(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "revstack.yaml", "history:\n  capacity: 10\nlog:\n  level: error\nmetrics:\n  enabled: true\n")
	doc := writeFile(t, dir, "doc.json", `{"name":"old","tags":["a"]}`)
	script := writeFile(t, dir, "edit.lua", `
history.transaction("rename", function()
  doc.set("name", "new")
  doc.append("tags", "b")
end)
history.transaction("rename again", function()
  doc.set("name", "newer")
end)
history.undo()
`)
	out := filepath.Join(dir, "out.json")

	var stderr bytes.Buffer
	app := newTestApp(t, Options{
		ConfigPath:   cfg,
		DocumentPath: doc,
		ScriptPath:   script,
		OutputPath:   out,
		Stderr:       &stderr,
	})

	if err := app.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	want := `{"name":"new","tags":["a","b"]}` + "\n"
	if string(got) != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	if app.Stack().Len() != 2 || app.Stack().Position() != 1 {
		t.Errorf("Len/Position = %d/%d, want 2/1", app.Stack().Len(), app.Stack().Position())
	}

	summary := stderr.String()
	for _, want := range []string{
		"history: 2/10 transactions, position 1",
		"rename",
		"revstack_history_transactions_completed_total 2",
		"revstack_history_rollbacks_total 1",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestRunWritesStdout(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "edit.lua", `doc.set("a", 1)`)

	var stdout, stderr bytes.Buffer
	app := newTestApp(t, Options{ScriptPath: script, Stdout: &stdout, Stderr: &stderr})
	if err := app.Run(); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got := stdout.String(); got != `{"a":1}`+"\n" {
		t.Errorf("stdout = %q", got)
	}
	if app.Registry() != nil {
		t.Error("Registry should be nil when metrics are disabled")
	}
}

func TestRunWithoutScript(t *testing.T) {
	app := newTestApp(t, Options{Stderr: &bytes.Buffer{}})
	if err := app.Run(); !errors.Is(err, ErrNoScript) {
		t.Errorf("Run() = %v, want ErrNoScript", err)
	}
}

func TestRunScriptError(t *testing.T) {
	dir := t.TempDir()
	script := writeFile(t, dir, "bad.lua", `error("boom")`)

	app := newTestApp(t, Options{ScriptPath: script, Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	err := app.Run()

	var opErr *OperationError
	if !errors.As(err, &opErr) {
		t.Fatalf("Run() = %v, want *OperationError", err)
	}
	if opErr.Op != "run script" || opErr.Target != script {
		t.Errorf("OperationError = %+v", opErr)
	}
}

func TestNewInvalidDocument(t *testing.T) {
	dir := t.TempDir()
	doc := writeFile(t, dir, "doc.json", `{not json`)

	_, err := New(context.Background(), Options{DocumentPath: doc})
	if !errors.Is(err, ErrInitialization) {
		t.Errorf("New() = %v, want ErrInitialization", err)
	}
}

func TestNewMissingConfig(t *testing.T) {
	_, err := New(context.Background(), Options{ConfigPath: filepath.Join(t.TempDir(), "missing.yaml")})
	if !errors.Is(err, ErrInitialization) {
		t.Errorf("New() = %v, want ErrInitialization", err)
	}
}

func TestOperationError(t *testing.T) {
	inner := errors.New("inner")
	tests := []struct {
		err  *OperationError
		want string
	}{
		{&OperationError{Op: "read", Target: "a.json", Err: inner}, "read a.json: inner"},
		{&OperationError{Op: "read", Err: inner}, "read: inner"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
		if !errors.Is(tt.err, inner) {
			t.Error("OperationError should unwrap to inner error")
		}
	}
}
