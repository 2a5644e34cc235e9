// Package asset defines the in-memory file record that flows between the
// resolver, the stage pipeline and the output sinks.
package asset

import (
	"path/filepath"
	"strings"
)

// File is an in-memory file. A File is never mutated after creation; stages
// derive new records with Clone, WithPath or WithContents.
type File struct {
	// Path is the absolute (or base-joined) location of the file.
	Path string

	// Base is the directory the file is relative to when written downstream.
	Base string

	contents []byte
}

// New creates a File owning a private copy of contents.
func New(path, base string, contents []byte) *File {
	buf := make([]byte, len(contents))
	copy(buf, contents)
	return &File{Path: path, Base: base, contents: buf}
}

// Contents returns a copy of the file contents.
func (f *File) Contents() []byte {
	buf := make([]byte, len(f.contents))
	copy(buf, f.contents)
	return buf
}

// String returns the contents as text.
func (f *File) String() string {
	return string(f.contents)
}

// Len returns the size of the contents in bytes.
func (f *File) Len() int {
	return len(f.contents)
}

// Clone returns an identical, independent record.
func (f *File) Clone() *File {
	return New(f.Path, f.Base, f.contents)
}

// WithPath returns a copy of f located at path.
func (f *File) WithPath(path string) *File {
	c := f.Clone()
	c.Path = path
	return c
}

// WithContents returns a copy of f carrying contents.
func (f *File) WithContents(contents []byte) *File {
	return New(f.Path, f.Base, contents)
}

// Relative returns Path relative to Base. Files without a base, or whose path
// is not below the base, report their path unchanged.
func (f *File) Relative() string {
	if f.Base == "" {
		return filepath.ToSlash(f.Path)
	}
	rel, err := filepath.Rel(f.Base, f.Path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(f.Path)
	}
	return filepath.ToSlash(rel)
}

// Ext returns the file name extension, including the dot.
func (f *File) Ext() string {
	return filepath.Ext(f.Path)
}

// Basename returns the last element of Path.
func (f *File) Basename() string {
	return filepath.Base(f.Path)
}
