// Package propedit records property and collection edits on a JSON document
// as reversible history operations.
package propedit

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Document is a JSON document edited in place.
// Paths use gjson/sjson syntax ("title", "items.0.name").
type Document struct {
	mu   sync.RWMutex
	data []byte
}

// NewDocument creates a document from raw JSON.
func NewDocument(raw []byte) (*Document, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	if !gjson.ValidBytes(raw) {
		return nil, ErrInvalidJSON
	}
	data := make([]byte, len(raw))
	copy(data, raw)
	return &Document{data: data}, nil
}

// Bytes returns a copy of the current JSON.
func (d *Document) Bytes() []byte {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]byte, len(d.data))
	copy(out, d.data)
	return out
}

// String returns the current JSON.
func (d *Document) String() string {
	return string(d.Bytes())
}

// Get returns the value at path.
func (d *Document) Get(path string) gjson.Result {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return gjson.GetBytes(d.data, path)
}

// Set writes value at path and returns the edit that undoes it.
// Missing parent objects are created; undoing the edit removes them again.
// An array element can be replaced, or added at index len, but not
// beyond.
func (d *Document) Set(path string, value any) (*SetProperty, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, fmt.Errorf("set %q: %w", path, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	created, err := d.creationPath(segs)
	if err != nil {
		return nil, fmt.Errorf("set %q: %w", path, err)
	}
	old := gjson.GetBytes(d.data, path)
	data, err := sjson.SetBytes(d.data, path, value)
	if err != nil {
		return nil, fmt.Errorf("set %q: %w", path, err)
	}
	d.data = data

	return &SetProperty{
		doc:     d,
		path:    path,
		created: created,
		oldRaw:  rawOf(old),
		newRaw:  rawOf(gjson.GetBytes(d.data, path)),
	}, nil
}

// Delete removes the property at path and returns the edit that undoes it.
// Array elements are not properties: they fail with ErrArrayElement and
// are removed with Remove.
func (d *Document) Delete(path string) (*DeleteProperty, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, fmt.Errorf("delete %q: %w", path, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.lookup(segs[:len(segs)-1]).IsArray() {
		return nil, fmt.Errorf("delete %q: %w", path, ErrArrayElement)
	}
	old := gjson.GetBytes(d.data, path)
	if !old.Exists() {
		return nil, fmt.Errorf("delete %q: %w", path, ErrPathNotFound)
	}
	if err := d.deleteLocked(path); err != nil {
		return nil, err
	}

	return &DeleteProperty{doc: d, path: path, oldRaw: rawOf(old)}, nil
}

// Append adds value to the end of the array at path. A missing property
// becomes a one element array, created along with any missing parents.
func (d *Document) Append(path string, value any) (*AppendElement, error) {
	segs, err := splitPath(path)
	if err != nil {
		return nil, fmt.Errorf("append to %q: %w", path, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	arr := d.lookup(segs)
	if arr.Exists() && !arr.IsArray() {
		return nil, fmt.Errorf("append to %q: %w", path, ErrNotArray)
	}
	index := len(arr.Array())

	var created string
	if !arr.Exists() {
		if created, err = d.creationPath(segs); err != nil {
			return nil, fmt.Errorf("append to %q: %w", path, err)
		}
	}

	var data []byte
	if arr.Exists() {
		data, err = sjson.SetBytes(d.data, path+".-1", value)
	} else {
		data, err = sjson.SetBytes(d.data, path, []any{value})
	}
	if err != nil {
		return nil, fmt.Errorf("append to %q: %w", path, err)
	}
	d.data = data

	return &AppendElement{
		doc:     d,
		path:    path,
		index:   index,
		created: created,
		raw:     rawOf(gjson.GetBytes(d.data, elementPath(path, index))),
	}, nil
}

// Remove deletes the element at index of the array at path.
func (d *Document) Remove(path string, index int) (*RemoveElement, error) {
	if _, err := splitPath(path); err != nil {
		return nil, fmt.Errorf("remove from %q: %w", path, err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	arr := gjson.GetBytes(d.data, path)
	if !arr.IsArray() {
		return nil, fmt.Errorf("remove from %q: %w", path, ErrNotArray)
	}
	elems := arr.Array()
	if index < 0 || index >= len(elems) {
		return nil, fmt.Errorf("remove %s[%d]: %w", path, index, ErrIndexOutOfRange)
	}
	if err := d.deleteLocked(elementPath(path, index)); err != nil {
		return nil, err
	}

	return &RemoveElement{doc: d, path: path, index: index, raw: []byte(elems[index].Raw)}, nil
}

func (d *Document) setRaw(path string, raw []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	data, err := sjson.SetRawBytes(d.data, path, raw)
	if err != nil {
		return fmt.Errorf("set %q: %w", path, err)
	}
	d.data = data
	return nil
}

func (d *Document) delete(path string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.deleteLocked(path)
}

func (d *Document) deleteLocked(path string) error {
	data, err := sjson.DeleteBytes(d.data, path)
	if err != nil {
		return fmt.Errorf("delete %q: %w", path, err)
	}
	d.data = data
	return nil
}

// insert puts raw at index of the array at path, shifting later elements.
func (d *Document) insert(path string, index int, raw []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	arr := gjson.GetBytes(d.data, path)
	if !arr.IsArray() {
		return fmt.Errorf("insert into %q: %w", path, ErrNotArray)
	}
	elems := arr.Array()
	if index < 0 || index > len(elems) {
		return fmt.Errorf("insert %s[%d]: %w", path, index, ErrIndexOutOfRange)
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i <= len(elems); i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		switch {
		case i == index:
			buf.Write(raw)
		case i < index:
			buf.WriteString(elems[i].Raw)
		default:
			buf.WriteString(elems[i-1].Raw)
		}
	}
	buf.WriteByte(']')

	data, err := sjson.SetRawBytes(d.data, path, buf.Bytes())
	if err != nil {
		return fmt.Errorf("insert into %q: %w", path, err)
	}
	d.data = data
	return nil
}

// lookup returns the value at the path made of segs, or the whole document
// for no segments. Must hold d.mu.
func (d *Document) lookup(segs []string) gjson.Result {
	if len(segs) == 0 {
		return gjson.ParseBytes(d.data)
	}
	return gjson.GetBytes(d.data, strings.Join(segs, "."))
}

// creationPath returns the outermost path along segs that a write would
// create, or "" if the full path exists. Parents that exist must be
// objects, or arrays addressed at an index no greater than their length.
// Must hold d.mu.
func (d *Document) creationPath(segs []string) (string, error) {
	for i, seg := range segs {
		parent := d.lookup(segs[:i])
		switch {
		case parent.IsArray():
			n, err := strconv.Atoi(seg)
			if err != nil {
				return "", fmt.Errorf("%w: %q is not an element index", ErrInvalidPath, seg)
			}
			if n < 0 || n > len(parent.Array()) {
				return "", fmt.Errorf("element %d: %w", n, ErrIndexOutOfRange)
			}
		case !parent.IsObject():
			return "", fmt.Errorf("%w: %q is not an object", ErrInvalidPath, strings.Join(segs[:i], "."))
		}
		if !d.lookup(segs[:i+1]).Exists() {
			return strings.Join(segs[:i+1], "."), nil
		}
	}
	return "", nil
}

// splitPath splits a property path on unescaped dots. Query syntax
// (wildcards, '#', '|' and '@' modifiers) is rejected.
func splitPath(path string) ([]string, error) {
	if path == "" {
		return nil, ErrInvalidPath
	}

	var segs []string
	start := 0
	for i := 0; i < len(path); i++ {
		switch path[i] {
		case '\\':
			i++
		case '*', '?', '#', '|':
			return nil, fmt.Errorf("%w: query syntax in %q", ErrInvalidPath, path)
		case '.':
			segs = append(segs, path[start:i])
			start = i + 1
		}
	}
	segs = append(segs, path[start:])

	for _, seg := range segs {
		if seg == "" || seg[0] == '@' {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return segs, nil
}

func elementPath(path string, index int) string {
	return path + "." + strconv.Itoa(index)
}

func rawOf(r gjson.Result) []byte {
	if !r.Exists() {
		return nil
	}
	return []byte(r.Raw)
}
