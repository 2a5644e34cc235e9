// Package htmlbuild runs the pipelines of a document's blocks and stitches
// their outputs back into the document in original order.
package htmlbuild

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"strings"
	"sync"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/blocks"
	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/logfields"
	"git.home.luguber.info/inful/usemin/internal/metrics"
	"git.home.luguber.info/inful/usemin/internal/observability"
	"git.home.luguber.info/inful/usemin/internal/pipeline"
	"git.home.luguber.info/inful/usemin/internal/stage"
)

// Options configure reassembly.
type Options struct {
	NewLine    string
	SkipConcat bool

	// JSAttributes decorate emitted script tags.
	JSAttributes Attributes

	// HTMLStages run over the reassembled document.
	HTMLStages []stage.Spec

	Recorder metrics.Recorder
}

// Input is a document split into segments.
type Input struct {
	Path     string
	Base     string
	Segments []blocks.Segment
}

// Output is the rewritten document and every artifact produced for it.
type Output struct {
	Document  *asset.File
	Artifacts []*asset.File
}

type blockResult struct {
	files []*asset.File
	err   error
}

// Assemble runs every block pipeline concurrently, then walks the segments in
// order. A failed block renders nothing; its error is returned alongside the
// output, which is still complete for every other block.
func Assemble(ctx context.Context, in Input, opts Options) (*Output, error) {
	rec := metrics.OrNoop(opts.Recorder)
	popts := pipeline.Options{NewLine: opts.NewLine, SkipConcat: opts.SkipConcat, Recorder: rec}

	blks := blocks.Blocks(in.Segments)
	results := make([]blockResult, len(blks))

	var wg sync.WaitGroup
	for i, blk := range blks {
		rec.IncBlocks(blk.Kind)
		if blk.Type == blocks.TypeRemove || blk.Empty() {
			continue
		}
		wg.Add(1)
		go func(i int, blk *blocks.Block) {
			defer wg.Done()
			bctx := observability.WithPipeline(ctx, blk.Kind)
			files, err := pipeline.Run(bctx, blk.OutputName, blk.Files, blk.Stages, popts)
			results[i] = blockResult{files: files, err: err}
		}(i, blk)
	}
	wg.Wait()

	var (
		sb        strings.Builder
		out       Output
		errs      []error
		r         = renderer{attrs: opts.JSAttributes}
		nextBlock int
	)
	for _, seg := range in.Segments {
		if !seg.IsBlock() {
			sb.WriteString(seg.Literal)
			continue
		}
		blk := seg.Block
		res := results[nextBlock]
		nextBlock++

		if blk.Type == blocks.TypeRemove {
			continue
		}
		if res.err != nil {
			observability.ErrorContext(ctx, "Block pipeline failed",
				logfields.Block(blk.Index),
				logfields.BlockKind(blk.Kind),
				logfields.Error(res.err))
			errs = append(errs, res.err)
		}

		if blk.Wrapper != nil {
			sb.WriteString(blk.Wrapper.Open)
		}
		r.render(&sb, blk, res.files)
		if blk.Wrapper != nil {
			sb.WriteString(blk.Wrapper.Close)
		}

		if !blk.Type.Inline() {
			for _, f := range res.files {
				observability.DebugContext(ctx, "Produced artifact", logfields.Artifact(f.Path))
			}
			out.Artifacts = append(out.Artifacts, res.files...)
		}
	}

	doc, extra, err := runHTML(ctx, in, sb.String(), opts, popts)
	if err != nil {
		errs = append(errs, err)
	}
	out.Document = doc
	out.Artifacts = append(out.Artifacts, extra...)
	rec.AddArtifacts(len(out.Artifacts))

	return &out, stderrors.Join(errs...)
}

// runHTML passes the reassembled text through the html pipeline. The first
// produced file is the document; further files are artifacts. On failure the
// unprocessed text is kept as the document.
func runHTML(ctx context.Context, in Input, text string, opts Options, popts pipeline.Options) (*asset.File, []*asset.File, error) {
	base := in.Base
	if base == "" {
		base = filepath.Dir(in.Path)
	}
	reassembled := asset.New(in.Path, base, []byte(text))

	hctx := observability.WithPipeline(ctx, "html")
	produced, err := pipeline.Run(hctx, reassembled.Relative(), []*asset.File{reassembled}, opts.HTMLStages, popts)
	if err != nil {
		return reassembled, nil, err
	}
	if len(produced) == 0 {
		return reassembled, nil, errors.StageError("html pipeline produced no document for " + in.Path).
			WithContext("document", in.Path).
			Build()
	}
	return produced[0], produced[1:], nil
}
