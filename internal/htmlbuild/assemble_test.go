package htmlbuild

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/blocks"
	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/stage"
)

var root = filepath.FromSlash("/site")

func src(name, content string) *asset.File {
	return asset.New(filepath.Join(root, filepath.FromSlash(name)), root, []byte(content))
}

func lit(s string) blocks.Segment { return blocks.Segment{Literal: s} }

func blk(b *blocks.Block) blocks.Segment { return blocks.Segment{Block: b} }

func input(segs ...blocks.Segment) Input {
	i := 0
	for _, s := range segs {
		if s.Block != nil {
			s.Block.Index = i
			i++
		}
	}
	return Input{Path: filepath.Join(root, "index.html"), Base: root, Segments: segs}
}

func rename(ext string) stage.Spec {
	return stage.Ready(stage.MapFiles("rename"+ext, func(_ context.Context, f *asset.File) (*asset.File, error) {
		return f.WithPath(strings.TrimSuffix(f.Path, filepath.Ext(f.Path)) + ext), nil
	}))
}

func TestAssemble_ScriptBlock(t *testing.T) {
	in := input(
		lit("<body>"),
		blk(&blocks.Block{Kind: "js", Type: blocks.TypeJS, DisplayPath: "app.js", OutputName: "app.js",
			Files: []*asset.File{src("a.js", "A;"), src("b.js", "B;")}}),
		lit("</body>"),
	)

	out, err := Assemble(context.Background(), in, Options{})
	require.NoError(t, err)
	assert.Equal(t, `<body><script src="app.js"></script></body>`, out.Document.String())
	assert.Equal(t, filepath.Join(root, "index.html"), out.Document.Path)
	require.Len(t, out.Artifacts, 1)
	assert.Equal(t, filepath.Join(root, "app.js"), out.Artifacts[0].Path)
	assert.Equal(t, "A;\nB;", out.Artifacts[0].String())
}

func TestAssemble_StylesheetKeepsDisplayDirectory(t *testing.T) {
	in := input(blk(&blocks.Block{Kind: "css", Type: blocks.TypeCSS, DisplayPath: "/css/site.css", OutputName: "css/site.css",
		MediaQuery: "screen", Files: []*asset.File{src("css/a.css", "a{}")}}))

	revved := stage.Ready(stage.MapFiles("rev", func(_ context.Context, f *asset.File) (*asset.File, error) {
		return f.WithPath(strings.TrimSuffix(f.Path, ".css") + "-abc123.css"), nil
	}))
	in.Segments[0].Block.Stages = []stage.Spec{revved}

	out, err := Assemble(context.Background(), in, Options{})
	require.NoError(t, err)
	assert.Equal(t, `<link rel="stylesheet" href="/css/site-abc123.css" media="screen"/>`, out.Document.String())
	require.Len(t, out.Artifacts, 1)
	assert.Equal(t, filepath.Join(root, "css", "site-abc123.css"), out.Artifacts[0].Path)
}

func TestAssemble_NonScriptOutputNotWired(t *testing.T) {
	in := input(blk(&blocks.Block{Kind: "js", Type: blocks.TypeJS, DisplayPath: "app.js", OutputName: "app.js",
		Files: []*asset.File{src("a.js", "A;")}, Stages: []stage.Spec{rename(".txt")}}))

	out, err := Assemble(context.Background(), in, Options{})
	require.NoError(t, err)
	assert.Empty(t, out.Document.String())
	require.Len(t, out.Artifacts, 1, "unwired files are still forwarded")
	assert.Equal(t, filepath.Join(root, "app.txt"), out.Artifacts[0].Path)
}

func TestAssemble_InlineBlocks(t *testing.T) {
	in := input(
		blk(&blocks.Block{Kind: "inlinejs", Type: blocks.TypeInlineJS, Files: []*asset.File{src("a.js", "A;"), src("b.js", "B;")}}),
		blk(&blocks.Block{Kind: "inlinecss", Type: blocks.TypeInlineCSS, MediaQuery: "print", Files: []*asset.File{src("p.css", "p{}")}}),
	)

	out, err := Assemble(context.Background(), in, Options{})
	require.NoError(t, err)
	assert.Equal(t, "<script>A;\nB;</script><style media=\"print\">p{}</style>", out.Document.String())
	assert.Empty(t, out.Artifacts)
}

func TestAssemble_RemoveAndWrappers(t *testing.T) {
	wrapper := &blocks.Wrapper{Open: "<!--[if lt IE 9]>", Close: "<![endif]-->"}
	in := input(
		lit("a"),
		blk(&blocks.Block{Kind: "remove", Type: blocks.TypeRemove, Wrapper: wrapper}),
		lit("b"),
		blk(&blocks.Block{Kind: "js", Type: blocks.TypeJS, DisplayPath: "ie.js", OutputName: "ie.js",
			Wrapper: wrapper, Files: []*asset.File{src("shiv.js", "S;")}}),
		blk(&blocks.Block{Kind: "js", Type: blocks.TypeJS, DisplayPath: "empty.js", OutputName: "empty.js", Wrapper: wrapper}),
	)

	out, err := Assemble(context.Background(), in, Options{})
	require.NoError(t, err)
	assert.Equal(t, `ab<!--[if lt IE 9]><script src="ie.js"></script><![endif]--><!--[if lt IE 9]><![endif]-->`, out.Document.String())
}

func TestAssemble_JSAttributesCycle(t *testing.T) {
	mk := func(name string) blocks.Segment {
		return blk(&blocks.Block{Kind: "js", Type: blocks.TypeJS, DisplayPath: name, OutputName: name,
			Files: []*asset.File{src(name, "x")}})
	}
	in := input(mk("a.js"), mk("b.js"), mk("c.js"))

	out, err := Assemble(context.Background(), in, Options{JSAttributes: Attributes{
		{Name: "defer", Value: true},
		{Name: "nomodule", Value: false},
		{Name: "async", Value: []any{true, false}},
		{Name: "data-n", Value: []any{1, 2}},
		{Name: "type", Value: "text/javascript"},
	}})
	require.NoError(t, err)
	assert.Equal(t,
		`<script src="a.js" defer async data-n="1" type="text/javascript"></script>`+
			`<script src="b.js" defer data-n="2" type="text/javascript"></script>`+
			`<script src="c.js" defer async data-n="1" type="text/javascript"></script>`,
		out.Document.String())
}

func TestAssemble_OrderIndependentOfCompletion(t *testing.T) {
	slow := stage.Ready(stage.NewFunc("slow", func(ctx context.Context, files []*asset.File) ([]*asset.File, error) {
		select {
		case <-time.After(50 * time.Millisecond):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return files, nil
	}))
	in := input(
		blk(&blocks.Block{Kind: "js", Type: blocks.TypeJS, DisplayPath: "first.js", OutputName: "first.js",
			Files: []*asset.File{src("1.js", "1")}, Stages: []stage.Spec{slow}}),
		lit("|"),
		blk(&blocks.Block{Kind: "js", Type: blocks.TypeJS, DisplayPath: "second.js", OutputName: "second.js",
			Files: []*asset.File{src("2.js", "2")}}),
	)

	out, err := Assemble(context.Background(), in, Options{})
	require.NoError(t, err)
	assert.Equal(t, `<script src="first.js"></script>|<script src="second.js"></script>`, out.Document.String())
	require.Len(t, out.Artifacts, 2)
	assert.Equal(t, filepath.Join(root, "first.js"), out.Artifacts[0].Path)
}

func TestAssemble_BlocksRunConcurrently(t *testing.T) {
	var running, peak int32
	track := stage.Ready(stage.NewFunc("track", func(_ context.Context, files []*asset.File) ([]*asset.File, error) {
		n := atomic.AddInt32(&running, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(30 * time.Millisecond)
		atomic.AddInt32(&running, -1)
		return files, nil
	}))

	var segs []blocks.Segment
	for _, name := range []string{"a.js", "b.js", "c.js"} {
		segs = append(segs, blk(&blocks.Block{Kind: "js", Type: blocks.TypeJS, DisplayPath: name, OutputName: name,
			Files: []*asset.File{src(name, name)}, Stages: []stage.Spec{track}}))
	}

	_, err := Assemble(context.Background(), input(segs...), Options{})
	require.NoError(t, err)
	assert.Greater(t, atomic.LoadInt32(&peak), int32(1))
}

func TestAssemble_StageFailureKeepsRestOfDocument(t *testing.T) {
	boom := stderrors.New("minifier crashed")
	fail := stage.Ready(stage.NewFunc("fail", func(context.Context, []*asset.File) ([]*asset.File, error) {
		return nil, boom
	}))
	in := input(
		lit("<head>"),
		blk(&blocks.Block{Kind: "js", Type: blocks.TypeJS, DisplayPath: "bad.js", OutputName: "bad.js",
			Files: []*asset.File{src("a.js", "A;")}, Stages: []stage.Spec{fail}}),
		blk(&blocks.Block{Kind: "css", Type: blocks.TypeCSS, DisplayPath: "ok.css", OutputName: "ok.css",
			Files: []*asset.File{src("a.css", "a{}")}}),
		lit("</head>"),
	)

	out, err := Assemble(context.Background(), in, Options{})
	require.Error(t, err)
	assert.True(t, errors.IsStage(err))
	assert.ErrorIs(t, err, boom)
	require.NotNil(t, out)
	assert.Equal(t, `<head><link rel="stylesheet" href="ok.css"/></head>`, out.Document.String())
	require.Len(t, out.Artifacts, 1)
}

func TestAssemble_HTMLPipeline(t *testing.T) {
	collapse := stage.Ready(stage.MapFiles("collapse", func(_ context.Context, f *asset.File) (*asset.File, error) {
		return f.WithContents([]byte(strings.ReplaceAll(f.String(), "\n", ""))), nil
	}))
	in := input(
		lit("<body>\n"),
		blk(&blocks.Block{Kind: "js", Type: blocks.TypeJS, DisplayPath: "app.js", OutputName: "app.js",
			Files: []*asset.File{src("a.js", "A;"), src("b.js", "B;")}}),
		lit("\n</body>"),
	)

	out, err := Assemble(context.Background(), in, Options{HTMLStages: []stage.Spec{collapse}})
	require.NoError(t, err)
	assert.Equal(t, `<body><script src="app.js"></script></body>`, out.Document.String())
	assert.Equal(t, filepath.Join(root, "index.html"), out.Document.Path)
	require.Len(t, out.Artifacts, 1)
	assert.Equal(t, "A;\nB;", out.Artifacts[0].String(), "the html pipeline leaves artifacts alone")
}

func TestAssemble_HTMLImport(t *testing.T) {
	in := input(blk(&blocks.Block{Kind: "htmlimport", Type: blocks.TypeHTMLImport, DisplayPath: "elements.html", OutputName: "elements.html",
		Files: []*asset.File{src("a.html", "<a>"), src("b.html", "<b>")}}))

	out, err := Assemble(context.Background(), in, Options{})
	require.NoError(t, err)
	assert.Equal(t, `<link rel="import" href="elements.html"/>`, out.Document.String())
	assert.Equal(t, "<a>\n<b>", out.Artifacts[0].String())
}

func TestTagPath(t *testing.T) {
	f := asset.New(filepath.FromSlash("/out/js/app-1234.js"), "/out", nil)
	assert.Equal(t, "app-1234.js", tagPath("", f))
	assert.Equal(t, "app-1234.js", tagPath("app.js", f))
	assert.Equal(t, "/static/js/app-1234.js", tagPath("/static/js/app.js", f))
}
