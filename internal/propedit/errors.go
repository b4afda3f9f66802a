package propedit

import "errors"

// Errors returned by document edits.
var (
	// ErrInvalidJSON indicates the document is not valid JSON.
	ErrInvalidJSON = errors.New("invalid JSON document")

	// ErrInvalidPath indicates an empty or malformed property path.
	ErrInvalidPath = errors.New("invalid property path")

	// ErrPathNotFound indicates the property does not exist.
	ErrPathNotFound = errors.New("property not found")

	// ErrNotArray indicates a collection edit on a non-array property.
	ErrNotArray = errors.New("property is not an array")

	// ErrArrayElement indicates a property edit addressed an array element.
	// Elements are removed with Remove and added with Append.
	ErrArrayElement = errors.New("path addresses an array element")

	// ErrIndexOutOfRange indicates an element index outside the array.
	ErrIndexOutOfRange = errors.New("element index out of range")
)
