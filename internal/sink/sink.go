// Package sink receives the files a build produces.
package sink

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
)

// Sink accepts produced files.
type Sink interface {
	Write(ctx context.Context, f *asset.File) error
}

// Dir writes files below Root at their base-relative path.
type Dir struct {
	Root string
}

// NewDir returns a directory sink. With clean set the directory is emptied first.
func NewDir(root string, clean bool) (*Dir, error) {
	if clean {
		if err := os.RemoveAll(root); err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "cannot clean "+root).Build()
		}
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "cannot create "+root).Build()
	}
	return &Dir{Root: root}, nil
}

// Target returns the path f is written to.
func (d *Dir) Target(f *asset.File) string {
	return filepath.Join(d.Root, filepath.FromSlash(f.Relative()))
}

func (d *Dir) Write(ctx context.Context, f *asset.File) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	target := d.Target(f)
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot create directory for "+target).
			WithContext("path", target).
			Build()
	}
	if err := os.WriteFile(target, f.Contents(), 0o600); err != nil {
		return errors.WrapError(err, errors.CategoryFileSystem, "cannot write "+target).
			WithContext("path", target).
			Build()
	}
	return nil
}

// Memory keeps written files in memory, keyed by their base-relative path.
// The last write of a path wins.
type Memory struct {
	mu    sync.RWMutex
	files map[string]*asset.File
	order []string
}

// NewMemory creates an empty memory sink.
func NewMemory() *Memory {
	return &Memory{files: make(map[string]*asset.File)}
}

func (m *Memory) Write(_ context.Context, f *asset.File) error {
	key := f.Relative()
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.files[key]; !exists {
		m.order = append(m.order, key)
	}
	m.files[key] = f
	return nil
}

// Get returns the file stored at rel.
func (m *Memory) Get(rel string) (*asset.File, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[rel]
	return f, ok
}

// Paths returns the stored paths in first-write order.
func (m *Memory) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...)
}

// Sorted returns the stored paths sorted.
func (m *Memory) Sorted() []string {
	paths := m.Paths()
	sort.Strings(paths)
	return paths
}

// Len returns the number of stored files.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}
