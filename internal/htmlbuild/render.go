package htmlbuild

import (
	"path"
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/blocks"
)

// renderer emits the tags for one document. jsCount counts script tags in
// document order for attribute cycling.
type renderer struct {
	attrs   Attributes
	jsCount int
}

func (r *renderer) render(sb *strings.Builder, blk *blocks.Block, produced []*asset.File) {
	switch blk.Type {
	case blocks.TypeJS:
		for _, f := range produced {
			if f.Ext() != ".js" {
				continue
			}
			sb.WriteString(`<script src="` + tagPath(blk.DisplayPath, f) + `"` + r.attrs.Render(r.jsCount) + `></script>`)
			r.jsCount++
		}
	case blocks.TypeCSS:
		for _, f := range produced {
			if f.Ext() != ".css" {
				continue
			}
			sb.WriteString(`<link rel="stylesheet" href="` + tagPath(blk.DisplayPath, f) + `"` + media(blk.MediaQuery) + `/>`)
		}
	case blocks.TypeHTMLImport:
		for _, f := range produced {
			if f.Ext() != ".html" {
				continue
			}
			sb.WriteString(`<link rel="import" href="` + tagPath(blk.DisplayPath, f) + `"/>`)
		}
	case blocks.TypeInlineJS:
		if f := last(produced); f != nil {
			sb.WriteString("<script>" + f.String() + "</script>")
		}
	case blocks.TypeInlineCSS:
		if f := last(produced); f != nil {
			sb.WriteString("<style" + media(blk.MediaQuery) + ">" + f.String() + "</style>")
		}
	}
}

// tagPath keeps the directory of the display path and swaps in the produced
// file's name.
func tagPath(display string, f *asset.File) string {
	name := filepath.Base(f.Path)
	if display == "" {
		return name
	}
	return strings.TrimSuffix(display, path.Base(display)) + name
}

func media(mq string) string {
	if mq == "" {
		return ""
	}
	return ` media="` + quote(mq) + `"`
}

func last(files []*asset.File) *asset.File {
	if len(files) == 0 {
		return nil
	}
	return files[len(files)-1]
}
