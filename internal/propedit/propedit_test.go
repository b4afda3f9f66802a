package propedit

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/revstack/internal/history"
)

func newEditor(t *testing.T, raw string, capacity int) *Editor {
	t.Helper()
	doc, err := NewDocument([]byte(raw))
	require.NoError(t, err)
	stack, err := history.NewStack(capacity)
	require.NoError(t, err)
	return NewEditor(doc, stack)
}

func TestNewDocumentInvalid(t *testing.T) {
	_, err := NewDocument([]byte(`{"a":`))
	require.ErrorIs(t, err, ErrInvalidJSON)

	doc, err := NewDocument(nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, doc.String())
}

func TestSetRollbackRollforward(t *testing.T) {
	e := newEditor(t, `{"title":"draft"}`, 10)
	ctx := context.Background()

	err := e.Stack().Do(ctx, "Edit", func(*history.Transaction) error {
		if err := e.Set("title", "final"); err != nil {
			return err
		}
		return e.Set("count", 3)
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"final","count":3}`, e.Document().String())

	require.NoError(t, e.Stack().Rollback())
	assert.JSONEq(t, `{"title":"draft"}`, e.Document().String())

	require.NoError(t, e.Stack().Rollforward())
	assert.JSONEq(t, `{"title":"final","count":3}`, e.Document().String())
}

func TestSetMergesSameProperty(t *testing.T) {
	e := newEditor(t, `{"x":0}`, 10)
	ctx := context.Background()

	tx, err := e.Stack().CreateTransaction(ctx, history.Named("Drag"))
	require.NoError(t, err)
	for i := 1; i <= 5; i++ {
		require.NoError(t, e.Set("x", i))
	}
	require.NoError(t, e.Set("y", 1))
	require.NoError(t, tx.Complete(ctx))

	assert.Equal(t, 2, tx.Len())
	assert.JSONEq(t, `{"x":5,"y":1}`, e.Document().String())

	require.NoError(t, e.Stack().Rollback())
	assert.JSONEq(t, `{"x":0}`, e.Document().String())

	require.NoError(t, e.Stack().Rollforward())
	assert.JSONEq(t, `{"x":5,"y":1}`, e.Document().String())
}

func TestSetDoesNotMergeAcrossDocuments(t *testing.T) {
	a, err := NewDocument([]byte(`{"x":0}`))
	require.NoError(t, err)
	b, err := NewDocument([]byte(`{"x":0}`))
	require.NoError(t, err)

	ea, err := a.Set("x", 1)
	require.NoError(t, err)
	eb, err := b.Set("x", 1)
	require.NoError(t, err)

	assert.False(t, ea.CanMerge(eb))
	assert.False(t, ea.CanMerge(&DeleteProperty{doc: a, path: "x"}))
}

func TestDelete(t *testing.T) {
	e := newEditor(t, `{"a":{"b":1},"c":2}`, 10)
	ctx := context.Background()

	require.NoError(t, e.Stack().Do(ctx, "Delete", func(*history.Transaction) error {
		return e.Delete("a.b")
	}))
	assert.JSONEq(t, `{"a":{},"c":2}`, e.Document().String())

	require.NoError(t, e.Stack().Rollback())
	assert.JSONEq(t, `{"a":{"b":1},"c":2}`, e.Document().String())

	_, err := e.Document().Delete("missing")
	require.ErrorIs(t, err, ErrPathNotFound)
}

func TestDeleteArrayElement(t *testing.T) {
	e := newEditor(t, `{"items":["a","b","c"]}`, 10)
	ctx := context.Background()

	err := e.Stack().Do(ctx, "Delete", func(*history.Transaction) error {
		return e.Delete("items.0")
	})
	require.ErrorIs(t, err, ErrArrayElement)
	assert.JSONEq(t, `{"items":["a","b","c"]}`, e.Document().String())
	assert.Equal(t, 0, e.Stack().Len())

	root, err := NewDocument([]byte(`["a","b"]`))
	require.NoError(t, err)
	_, err = root.Delete("0")
	require.ErrorIs(t, err, ErrArrayElement)

	require.NoError(t, e.Stack().Do(ctx, "Remove", func(*history.Transaction) error {
		return e.Remove("items", 0)
	}))
	assert.JSONEq(t, `{"items":["b","c"]}`, e.Document().String())

	require.NoError(t, e.Stack().Rollback())
	assert.JSONEq(t, `{"items":["a","b","c"]}`, e.Document().String())

	require.NoError(t, e.Stack().Rollforward())
	assert.JSONEq(t, `{"items":["b","c"]}`, e.Document().String())
}

func TestSetCreatesParents(t *testing.T) {
	tests := []struct {
		name  string
		start string
		path  string
		after string
	}{
		{"empty document", `{}`, "a.b.c", `{"a":{"b":{"c":1}}}`},
		{"partial parents", `{"a":{"x":1}}`, "a.b.c", `{"a":{"x":1,"b":{"c":1}}}`},
		{"existing leaf", `{"a":{"b":{"c":0}}}`, "a.b.c", `{"a":{"b":{"c":1}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEditor(t, tt.start, 10)
			ctx := context.Background()

			require.NoError(t, e.Stack().Do(ctx, "Set", func(*history.Transaction) error {
				return e.Set(tt.path, 1)
			}))
			assert.JSONEq(t, tt.after, e.Document().String())

			require.NoError(t, e.Stack().Rollback())
			assert.JSONEq(t, tt.start, e.Document().String())

			require.NoError(t, e.Stack().Rollforward())
			assert.JSONEq(t, tt.after, e.Document().String())
		})
	}
}

func TestAppendCreatesParents(t *testing.T) {
	e := newEditor(t, `{}`, 10)
	ctx := context.Background()

	require.NoError(t, e.Stack().Do(ctx, "Append", func(*history.Transaction) error {
		return e.Append("meta.tags", "x")
	}))
	assert.JSONEq(t, `{"meta":{"tags":["x"]}}`, e.Document().String())

	require.NoError(t, e.Stack().Rollback())
	assert.JSONEq(t, `{}`, e.Document().String())

	require.NoError(t, e.Stack().Rollforward())
	assert.JSONEq(t, `{"meta":{"tags":["x"]}}`, e.Document().String())
}

func TestSetArrayElement(t *testing.T) {
	e := newEditor(t, `{"items":[1,2]}`, 10)
	ctx := context.Background()

	require.NoError(t, e.Stack().Do(ctx, "Replace", func(*history.Transaction) error {
		return e.Set("items.1", 5)
	}))
	assert.JSONEq(t, `{"items":[1,5]}`, e.Document().String())

	require.NoError(t, e.Stack().Do(ctx, "Extend", func(*history.Transaction) error {
		return e.Set("items.2", 3)
	}))
	assert.JSONEq(t, `{"items":[1,5,3]}`, e.Document().String())

	require.NoError(t, e.Stack().RollbackAll())
	assert.JSONEq(t, `{"items":[1,2]}`, e.Document().String())
}

func TestSetPathErrors(t *testing.T) {
	doc, err := NewDocument([]byte(`{"name":"x","items":[1,2]}`))
	require.NoError(t, err)

	tests := []struct {
		path string
		want error
	}{
		{"items.5", ErrIndexOutOfRange},
		{"items.x", ErrInvalidPath},
		{"name.first", ErrInvalidPath},
		{"items.#", ErrInvalidPath},
		{"a..b", ErrInvalidPath},
		{"@this", ErrInvalidPath},
	}
	for _, tt := range tests {
		_, err := doc.Set(tt.path, 1)
		assert.ErrorIs(t, err, tt.want, tt.path)
	}
	assert.JSONEq(t, `{"name":"x","items":[1,2]}`, doc.String())
}

func TestAppendAndRemove(t *testing.T) {
	e := newEditor(t, `{"items":["a","b","c"]}`, 10)
	ctx := context.Background()

	require.NoError(t, e.Stack().Do(ctx, "Append", func(*history.Transaction) error {
		return e.Append("items", "d")
	}))
	assert.JSONEq(t, `{"items":["a","b","c","d"]}`, e.Document().String())

	require.NoError(t, e.Stack().Do(ctx, "Remove", func(*history.Transaction) error {
		return e.Remove("items", 1)
	}))
	assert.JSONEq(t, `{"items":["a","c","d"]}`, e.Document().String())

	require.NoError(t, e.Stack().Rollback())
	assert.JSONEq(t, `{"items":["a","b","c","d"]}`, e.Document().String())

	require.NoError(t, e.Stack().Rollback())
	assert.JSONEq(t, `{"items":["a","b","c"]}`, e.Document().String())

	require.NoError(t, e.Stack().RollforwardAll())
	assert.JSONEq(t, `{"items":["a","c","d"]}`, e.Document().String())
}

func TestAppendCreatesArray(t *testing.T) {
	e := newEditor(t, `{}`, 10)
	ctx := context.Background()

	require.NoError(t, e.Stack().Do(ctx, "Append", func(*history.Transaction) error {
		return e.Append("tags", "new")
	}))
	assert.JSONEq(t, `{"tags":["new"]}`, e.Document().String())

	require.NoError(t, e.Stack().Rollback())
	assert.JSONEq(t, `{}`, e.Document().String())

	require.NoError(t, e.Stack().Rollforward())
	assert.JSONEq(t, `{"tags":["new"]}`, e.Document().String())
}

func TestCollectionErrors(t *testing.T) {
	doc, err := NewDocument([]byte(`{"name":"x","items":[1]}`))
	require.NoError(t, err)

	_, err = doc.Append("name", 1)
	require.ErrorIs(t, err, ErrNotArray)

	_, err = doc.Remove("items", 3)
	require.ErrorIs(t, err, ErrIndexOutOfRange)

	_, err = doc.Set("", 1)
	require.ErrorIs(t, err, ErrInvalidPath)
}

func TestEditorRevertsWithoutTransaction(t *testing.T) {
	e := newEditor(t, `{"title":"draft"}`, 10)

	err := e.Set("title", "lost")
	require.ErrorIs(t, err, history.ErrNoTransactionInProgress)
	assert.JSONEq(t, `{"title":"draft"}`, e.Document().String())
}

func TestEvictionReleasesEdits(t *testing.T) {
	e := newEditor(t, `{"n":0}`, 1)
	ctx := context.Background()

	var first *SetProperty
	require.NoError(t, e.Stack().Do(ctx, "One", func(*history.Transaction) error {
		edit, err := e.Document().Set("n", 1)
		if err != nil {
			return err
		}
		first = edit
		return e.Stack().PushOperation(edit)
	}))
	require.NoError(t, e.Stack().Do(ctx, "Two", func(*history.Transaction) error {
		return e.Set("n", 2)
	}))

	assert.Nil(t, first.oldRaw)
	assert.Nil(t, first.newRaw)
	assert.Equal(t, 1, e.Stack().Len())
}
