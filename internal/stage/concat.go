package stage

import (
	"bytes"
	"context"
	"path/filepath"

	"git.home.luguber.info/inful/usemin/internal/asset"
)

// DefaultNewLine separates concatenated file contents.
const DefaultNewLine = "\n"

type concat struct {
	outputName string
	newLine    string
}

// NewConcat returns the builtin join stage. All files are joined in order
// into one file named outputName, or after the first file when outputName is
// empty. A relative name is placed under the first file's base.
func NewConcat(outputName, newLine string) Stage {
	return &concat{outputName: outputName, newLine: newLine}
}

func (c *concat) Name() string { return ConcatName }

func (c *concat) Process(_ context.Context, files []*asset.File) ([]*asset.File, error) {
	if len(files) == 0 {
		return nil, nil
	}
	first := files[0]

	name := c.outputName
	if name == "" {
		name = first.Basename()
	}
	path := filepath.FromSlash(name)
	if !filepath.IsAbs(path) {
		path = filepath.Join(first.Base, path)
	}

	parts := make([][]byte, 0, len(files))
	for _, f := range files {
		parts = append(parts, f.Contents())
	}
	return []*asset.File{asset.New(path, first.Base, bytes.Join(parts, []byte(c.newLine)))}, nil
}
