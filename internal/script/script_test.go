package script

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/revstack/internal/history"
	"github.com/dshills/revstack/internal/propedit"
)

func newTestState(t *testing.T, raw string, opts ...StateOption) (*State, *propedit.Editor) {
	t.Helper()
	doc, err := propedit.NewDocument([]byte(raw))
	require.NoError(t, err)
	stack, err := history.NewStack(10)
	require.NoError(t, err)
	editor := propedit.NewEditor(doc, stack)

	s := NewState(editor, opts...)
	t.Cleanup(func() { _ = s.Close() })
	return s, editor
}

func TestTransactionAndUndo(t *testing.T) {
	s, editor := newTestState(t, `{"title":"draft","tags":[]}`)

	err := s.DoString(`
		history.transaction("Edit", function()
			doc.set("title", "final")
			doc.append("tags", "a")
			doc.append("tags", "b")
		end)
		assert(history.len() == 1)
		assert(history.can_undo())
		history.undo()
		assert(doc.get("title") == "draft")
		assert(not history.can_undo())
		history.redo()
	`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"final","tags":["a","b"]}`, editor.Document().String())
	assert.Equal(t, 1, editor.Stack().Position())
}

func TestEditOutsideTransactionIsRecorded(t *testing.T) {
	s, editor := newTestState(t, `{"n":1}`)

	require.NoError(t, s.DoString(`doc.set("n", 2)`))
	assert.JSONEq(t, `{"n":2}`, editor.Document().String())

	ts := editor.Stack().Transactions()
	require.Len(t, ts, 1)
	assert.Equal(t, "set n", ts[0].Name())

	require.NoError(t, s.DoString(`history.undo()`))
	assert.JSONEq(t, `{"n":1}`, editor.Document().String())
}

func TestTransactionErrorRevertsEdits(t *testing.T) {
	s, editor := newTestState(t, `{"n":1,"tags":["a"]}`)

	err := s.DoString(`
		history.transaction("Broken", function()
			doc.set("n", 2)
			doc.append("tags", "b")
			error("boom")
		end)
	`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.JSONEq(t, `{"n":1,"tags":["a"]}`, editor.Document().String())
	assert.Equal(t, 0, editor.Stack().Len())
	assert.Equal(t, 0, editor.Stack().Depth())
}

func TestSavePoints(t *testing.T) {
	s, editor := newTestState(t, `{}`)

	err := s.DoString(`
		history.transaction("One", function() doc.set("a", 1) end)
		local saved = history.savepoint()
		history.transaction("Two", function() doc.set("b", { x = 1, y = { 1, 2 } }) end)
		assert(not history.at_savepoint(saved))
		history.revert_to(saved)
		assert(history.at_savepoint(saved))
	`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, editor.Document().String())
	assert.True(t, editor.Stack().CanRollforward())
}

func TestDocRemoveAndGet(t *testing.T) {
	s, editor := newTestState(t, `{"items":["a","b","c"],"meta":{"v":2}}`)

	err := s.DoString(`
		history.transaction("Remove", function() doc.remove("items", 2) end)
		local meta = doc.get("meta")
		assert(meta.v == 2)
		assert(doc.get("items.1") == "c")
	`)
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":["a","c"],"meta":{"v":2}}`, editor.Document().String())
}

func TestSandbox(t *testing.T) {
	s, _ := newTestState(t, `{}`)

	require.Error(t, s.DoString(`os.exit(1)`))
	require.Error(t, s.DoString(`io.write("x")`))
	require.Error(t, s.DoString(`dofile("x.lua")`))
}

func TestExecutionTimeout(t *testing.T) {
	s, _ := newTestState(t, `{}`, WithExecutionTimeout(50*time.Millisecond))

	err := s.DoString(`while true do end`)
	require.ErrorIs(t, err, ErrExecutionTimeout)
}

func TestDoFile(t *testing.T) {
	s, editor := newTestState(t, `{}`)
	path := filepath.Join(t.TempDir(), "edit.lua")
	require.NoError(t, os.WriteFile(path, []byte(`history.transaction("F", function() doc.set("f", true) end)`), 0o600))

	require.NoError(t, s.DoFile(path))
	assert.JSONEq(t, `{"f":true}`, editor.Document().String())
}

func TestClosedState(t *testing.T) {
	s, _ := newTestState(t, `{}`)
	require.NoError(t, s.Close())
	require.ErrorIs(t, s.DoString(`x = 1`), ErrStateClosed)
	require.NoError(t, s.Close())
}
