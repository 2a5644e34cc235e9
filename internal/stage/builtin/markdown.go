package builtin

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"

	"github.com/yuin/goldmark"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/stage"
)

// Markdown renders each file as a Markdown fragment and renames it to ext
// (default .html).
func Markdown(ext string) stage.Stage {
	if ext == "" {
		ext = ".html"
	}
	md := goldmark.New()
	return stage.MapFiles("markdown", func(_ context.Context, f *asset.File) (*asset.File, error) {
		var buf bytes.Buffer
		if err := md.Convert(f.Contents(), &buf); err != nil {
			return nil, err
		}
		return asset.New(replaceExt(f.Path, ext), f.Base, buf.Bytes()), nil
	})
}

func replaceExt(path, ext string) string {
	if ext == "" {
		return path
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return strings.TrimSuffix(path, filepath.Ext(path)) + ext
}
