package builtin

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/stage"
)

// Rev renames every file to name-<hash>.ext where hash is derived from the
// file contents.
func Rev() stage.Stage {
	return stage.MapFiles("rev", func(_ context.Context, f *asset.File) (*asset.File, error) {
		return f.WithPath(revPath(f.Path, f.Contents())), nil
	})
}

func revPath(path string, contents []byte) string {
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	sum := fmt.Sprintf("%016x", xxhash.Sum64(contents))
	return stem + "-" + sum[:8] + ext
}
