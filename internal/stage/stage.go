// Package stage defines the unit of work a block pipeline is built from.
package stage

import (
	"context"

	"git.home.luguber.info/inful/usemin/internal/asset"
)

// Stage consumes the current file set of a pipeline and returns its
// replacement. The returned set may have any size, including zero.
type Stage interface {
	Name() string
	Process(ctx context.Context, files []*asset.File) ([]*asset.File, error)
}

// Factory produces a fresh Stage for one pipeline invocation.
type Factory func() Stage

// Func adapts a plain function to the Stage interface.
type Func func(ctx context.Context, files []*asset.File) ([]*asset.File, error)

type funcStage struct {
	name string
	fn   Func
}

// NewFunc returns a Stage named name that runs fn.
func NewFunc(name string, fn Func) Stage {
	return &funcStage{name: name, fn: fn}
}

func (s *funcStage) Name() string { return s.name }

func (s *funcStage) Process(ctx context.Context, files []*asset.File) ([]*asset.File, error) {
	return s.fn(ctx, files)
}

// MapFiles returns a Stage applying fn to every file independently, in order.
func MapFiles(name string, fn func(ctx context.Context, f *asset.File) (*asset.File, error)) Stage {
	return NewFunc(name, func(ctx context.Context, files []*asset.File) ([]*asset.File, error) {
		out := make([]*asset.File, 0, len(files))
		for _, f := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			g, err := fn(ctx, f)
			if err != nil {
				return nil, err
			}
			out = append(out, g)
		}
		return out, nil
	})
}
