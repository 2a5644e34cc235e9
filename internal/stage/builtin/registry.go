// Package builtin provides the named stages a configuration can reference
// and the registry that resolves those names into stage specs.
package builtin

import (
	"context"
	"sort"
	"sync"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/stage"
)

// Params are the per-entry options of a configured stage.
type Params struct {
	// Name selects the stage constructor.
	Name string

	// Command and Args configure the exec stage.
	Command string
	Args    []string

	// Ext replaces the extension of produced files (exec, markdown).
	Ext string

	// KeepComments keeps ordinary HTML comments in htmlmin.
	KeepComments bool
}

// Constructor builds a stage spec from its parameters.
type Constructor func(p Params) (stage.Spec, error)

// Registry maps stage names to constructors.
type Registry struct {
	mu    sync.RWMutex
	ctors map[string]Constructor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{ctors: make(map[string]Constructor)}
}

// Default returns a registry holding every builtin stage.
func Default() *Registry {
	r := NewRegistry()
	for name, c := range map[string]Constructor{
		"identity": func(Params) (stage.Spec, error) { return stage.Ready(Identity()), nil },
		"htmlmin":  func(p Params) (stage.Spec, error) { return stage.Ready(HTMLMin(p.KeepComments)), nil },
		"cssmin":   func(Params) (stage.Spec, error) { return stage.Ready(CSSMin()), nil },
		"jsmin":    func(Params) (stage.Spec, error) { return stage.Ready(JSMin()), nil },
		"rev":      func(Params) (stage.Spec, error) { return stage.Ready(Rev()), nil },
		"markdown": func(p Params) (stage.Spec, error) { return stage.Ready(Markdown(p.Ext)), nil },
		"exec":     newExecSpec,
	} {
		_ = r.Register(name, c)
	}
	return r
}

// Register adds a constructor. Registering a name twice, or the reserved
// concat name, is an error.
func (r *Registry) Register(name string, c Constructor) error {
	if name == "" || c == nil {
		return errors.ValidationError("stage registration requires a name and a constructor").Build()
	}
	if name == stage.ConcatName {
		return errors.ValidationError("stage name " + name + " is reserved").Build()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.ctors[name]; exists {
		return errors.ValidationError("stage " + name + " already registered").Build()
	}
	r.ctors[name] = c
	return nil
}

// Spec resolves p into a stage spec. The name concat yields the builtin join.
func (r *Registry) Spec(p Params) (stage.Spec, error) {
	if p.Name == stage.ConcatName {
		return stage.Concat(), nil
	}

	r.mu.RLock()
	c, ok := r.ctors[p.Name]
	r.mu.RUnlock()
	if !ok {
		return stage.Spec{}, errors.ConfigError("unknown stage " + p.Name).
			WithContext("stage", p.Name).
			Build()
	}
	return c(p)
}

// Has reports whether name resolves to a stage.
func (r *Registry) Has(name string) bool {
	if name == stage.ConcatName {
		return true
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.ctors[name]
	return ok
}

// Names returns the registered stage names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.ctors))
	for n := range r.ctors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Identity passes files through unchanged.
func Identity() stage.Stage {
	return stage.NewFunc("identity", func(_ context.Context, files []*asset.File) ([]*asset.File, error) {
		return files, nil
	})
}
