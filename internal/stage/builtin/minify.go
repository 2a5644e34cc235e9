package builtin

import (
	"context"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/stage"
)

const (
	mimeCSS = "text/css"
	mimeJS  = "application/javascript"
)

// CSSMin minifies stylesheets.
func CSSMin() stage.Stage {
	return minifier("cssmin", mimeCSS)
}

// JSMin minifies scripts.
func JSMin() stage.Stage {
	return minifier("jsmin", mimeJS)
}

func minifier(name, mediatype string) stage.Stage {
	m := minify.New()
	m.AddFunc(mimeCSS, css.Minify)
	m.AddFunc(mimeJS, js.Minify)

	return stage.MapFiles(name, func(_ context.Context, f *asset.File) (*asset.File, error) {
		out, err := m.Bytes(mediatype, f.Contents())
		if err != nil {
			return nil, err
		}
		return f.WithContents(out), nil
	})
}
