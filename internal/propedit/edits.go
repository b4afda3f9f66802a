package propedit

import (
	"fmt"

	"github.com/dshills/revstack/internal/history"
)

// SetProperty records a property write.
// Consecutive writes to the same property of the same document merge into
// one edit that restores the value from before the first write.
type SetProperty struct {
	doc     *Document
	path    string
	created string // outermost path the write created, "" if path existed
	oldRaw  []byte
	newRaw  []byte
}

// Path returns the edited property path.
func (e *SetProperty) Path() string { return e.path }

// Rollback restores the previous value, or removes the property and any
// parents the write created.
func (e *SetProperty) Rollback() error {
	if e.created != "" {
		return e.doc.delete(e.created)
	}
	return e.doc.setRaw(e.path, e.oldRaw)
}

// Rollforward writes the new value again.
func (e *SetProperty) Rollforward() error {
	return e.doc.setRaw(e.path, e.newRaw)
}

// CanMerge reports whether next writes the same property of the same document.
func (e *SetProperty) CanMerge(next history.Reversible) bool {
	n, ok := next.(*SetProperty)
	return ok && n.doc == e.doc && n.path == e.path
}

// Merge keeps the original value and takes the latest one.
func (e *SetProperty) Merge(next history.Reversible) {
	e.newRaw = next.(*SetProperty).newRaw
}

// Release drops the recorded values.
func (e *SetProperty) Release() {
	e.oldRaw, e.newRaw = nil, nil
}

// String describes the edit.
func (e *SetProperty) String() string {
	return fmt.Sprintf("set %s", e.path)
}

// DeleteProperty records a property removal.
type DeleteProperty struct {
	doc    *Document
	path   string
	oldRaw []byte
}

// Path returns the removed property path.
func (e *DeleteProperty) Path() string { return e.path }

// Rollback puts the removed value back.
func (e *DeleteProperty) Rollback() error {
	return e.doc.setRaw(e.path, e.oldRaw)
}

// Rollforward removes the property again.
func (e *DeleteProperty) Rollforward() error {
	return e.doc.delete(e.path)
}

// Release drops the removed value.
func (e *DeleteProperty) Release() {
	e.oldRaw = nil
}

// String describes the edit.
func (e *DeleteProperty) String() string {
	return fmt.Sprintf("delete %s", e.path)
}

// AppendElement records an element appended to an array.
type AppendElement struct {
	doc     *Document
	path    string
	index   int
	created string // outermost path the append created, "" if the array existed
	raw     []byte
}

// Index returns the position of the appended element.
func (e *AppendElement) Index() int { return e.index }

// Rollback removes the element, and the array and its parents if the
// append created them.
func (e *AppendElement) Rollback() error {
	if e.created != "" {
		return e.doc.delete(e.created)
	}
	return e.doc.delete(elementPath(e.path, e.index))
}

// Rollforward adds the element again at its original index.
func (e *AppendElement) Rollforward() error {
	if e.created != "" {
		return e.doc.setRaw(e.path, append(append([]byte("["), e.raw...), ']'))
	}
	return e.doc.insert(e.path, e.index, e.raw)
}

// Release drops the element value.
func (e *AppendElement) Release() {
	e.raw = nil
}

// String describes the edit.
func (e *AppendElement) String() string {
	return fmt.Sprintf("append %s[%d]", e.path, e.index)
}

// RemoveElement records an element removed from an array.
type RemoveElement struct {
	doc   *Document
	path  string
	index int
	raw   []byte
}

// Index returns the position the element was removed from.
func (e *RemoveElement) Index() int { return e.index }

// Rollback inserts the element back at its index.
func (e *RemoveElement) Rollback() error {
	return e.doc.insert(e.path, e.index, e.raw)
}

// Rollforward removes the element again.
func (e *RemoveElement) Rollforward() error {
	return e.doc.delete(elementPath(e.path, e.index))
}

// Release drops the element value.
func (e *RemoveElement) Release() {
	e.raw = nil
}

// String describes the edit.
func (e *RemoveElement) String() string {
	return fmt.Sprintf("remove %s[%d]", e.path, e.index)
}
