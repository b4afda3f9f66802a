package propedit

import (
	"errors"

	"github.com/dshills/revstack/internal/history"
)

// Editor applies document edits and records them in the innermost open
// transaction of a stack.
type Editor struct {
	doc   *Document
	stack *history.Stack
}

// NewEditor binds a document to a stack.
func NewEditor(doc *Document, stack *history.Stack) *Editor {
	return &Editor{doc: doc, stack: stack}
}

// Document returns the edited document.
func (e *Editor) Document() *Document {
	return e.doc
}

// Stack returns the history the edits are recorded in.
func (e *Editor) Stack() *history.Stack {
	return e.stack
}

// Set writes a property.
func (e *Editor) Set(path string, value any) error {
	edit, err := e.doc.Set(path, value)
	if err != nil {
		return err
	}
	return e.record(edit)
}

// Delete removes a property. Array elements are removed with Remove.
func (e *Editor) Delete(path string) error {
	edit, err := e.doc.Delete(path)
	if err != nil {
		return err
	}
	return e.record(edit)
}

// Append adds an element to an array property.
func (e *Editor) Append(path string, value any) error {
	edit, err := e.doc.Append(path, value)
	if err != nil {
		return err
	}
	return e.record(edit)
}

// Remove deletes an element of an array property.
func (e *Editor) Remove(path string, index int) error {
	edit, err := e.doc.Remove(path, index)
	if err != nil {
		return err
	}
	return e.record(edit)
}

// record pushes an applied edit. An edit that cannot be recorded is
// reverted before the error is returned.
func (e *Editor) record(edit history.Reversible) error {
	err := e.stack.PushOperation(edit)
	if err == nil {
		return nil
	}
	if rbErr := edit.Rollback(); rbErr != nil {
		return errors.Join(err, rbErr)
	}
	return err
}
