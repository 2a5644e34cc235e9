// Package usemin rewrites HTML documents: it resolves the annotated build
// blocks, runs their pipelines and emits the rewritten document together with
// every produced artifact.
package usemin

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/blocks"
	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/htmlbuild"
	"git.home.luguber.info/inful/usemin/internal/logfields"
	"git.home.luguber.info/inful/usemin/internal/metrics"
	"git.home.luguber.info/inful/usemin/internal/observability"
	"git.home.luguber.info/inful/usemin/internal/resolve"
	"git.home.luguber.info/inful/usemin/internal/stage"
)

// HTMLPipeline is the pipeline identifier applied to whole documents.
const HTMLPipeline = "html"

// Options configure a Processor.
type Options struct {
	// Pipelines maps a pipeline identifier to its stage list.
	Pipelines map[string][]stage.Spec

	AssetsDir          string
	Path               string
	OutputRelativePath string

	EnableHTMLComment    bool
	SkipMissingResources bool
	SkipConcat           bool

	// NewLine separates joined file contents.
	NewLine string

	JSAttributes htmlbuild.Attributes

	// Source supplies referenced files; defaults to the local filesystem.
	Source resolve.Source

	Recorder metrics.Recorder
}

// Document is one input HTML document. Contents must be fully buffered; a
// Document carrying only Reader is rejected.
type Document struct {
	Path     string
	Base     string
	Contents []byte
	Reader   io.Reader
}

// Result is the output of processing one document.
type Result struct {
	Document  *asset.File
	Artifacts []*asset.File

	// Blocks is the number of build blocks found.
	Blocks int
}

// Files returns the artifacts followed by the document.
func (r *Result) Files() []*asset.File {
	files := make([]*asset.File, 0, len(r.Artifacts)+1)
	files = append(files, r.Artifacts...)
	if r.Document != nil {
		files = append(files, r.Document)
	}
	return files
}

// Processor processes documents. It holds no per-document state and is safe
// for concurrent use.
type Processor struct {
	opts    Options
	rec     metrics.Recorder
	builder *blocks.Builder
}

// New creates a Processor.
func New(opts Options) *Processor {
	if opts.NewLine == "" {
		opts.NewLine = stage.DefaultNewLine
	}
	rec := metrics.OrNoop(opts.Recorder)
	resolver := resolve.New(resolve.Options{
		AssetsDir:         opts.AssetsDir,
		Path:              opts.Path,
		EnableHTMLComment: opts.EnableHTMLComment,
		SkipMissing:       opts.SkipMissingResources,
		Source:            opts.Source,
	})
	return &Processor{
		opts: opts,
		rec:  rec,
		builder: blocks.NewBuilder(blocks.Options{
			Resolver:           resolver,
			Pipelines:          opts.Pipelines,
			OutputRelativePath: opts.OutputRelativePath,
		}),
	}
}

// Segments splits doc into its block model without running any stage.
func (p *Processor) Segments(ctx context.Context, doc Document) ([]blocks.Segment, error) {
	if err := checkBuffered(doc); err != nil {
		return nil, err
	}
	return p.builder.Build(ctx, blocks.Document{Path: doc.Path, Base: baseOf(doc), Text: string(doc.Contents)})
}

// Process rewrites one document. Resolution and configuration errors abort
// the document and return a nil Result. Stage errors are returned together
// with a Result in which the failed blocks render nothing.
func (p *Processor) Process(ctx context.Context, doc Document) (*Result, error) {
	if err := checkBuffered(doc); err != nil {
		p.rec.IncDocumentOutcome(metrics.OutcomeFailed)
		return nil, err
	}
	base := baseOf(doc)
	ctx = observability.WithDocument(ctx, doc.Path)
	t0 := time.Now()
	defer func() { p.rec.ObserveDocumentDuration(time.Since(t0)) }()

	if doc.Contents == nil {
		p.rec.IncDocumentOutcome(metrics.OutcomeSuccess)
		return &Result{Document: asset.New(doc.Path, base, nil)}, nil
	}

	segs, err := p.builder.Build(ctx, blocks.Document{Path: doc.Path, Base: base, Text: string(doc.Contents)})
	if err != nil {
		p.rec.IncDocumentOutcome(outcomeFor(ctx, err))
		return nil, err
	}

	found := len(blocks.Blocks(segs))
	if found == 0 {
		observability.DebugContext(ctx, "No build blocks, passing document through")
		p.rec.IncDocumentOutcome(metrics.OutcomeSuccess)
		return &Result{Document: asset.New(doc.Path, base, doc.Contents)}, nil
	}

	out, err := htmlbuild.Assemble(ctx, htmlbuild.Input{Path: doc.Path, Base: base, Segments: segs}, htmlbuild.Options{
		NewLine:      p.opts.NewLine,
		SkipConcat:   p.opts.SkipConcat,
		JSAttributes: p.opts.JSAttributes,
		HTMLStages:   p.opts.Pipelines[HTMLPipeline],
		Recorder:     p.rec,
	})
	res := &Result{Document: out.Document, Artifacts: out.Artifacts, Blocks: found}

	if err != nil {
		p.rec.IncDocumentOutcome(outcomeFor(ctx, err))
		return res, err
	}
	p.rec.IncDocumentOutcome(metrics.OutcomeSuccess)
	observability.InfoContext(ctx, "Processed document",
		logfields.Blocks(found),
		logfields.Files(len(res.Artifacts)),
		logfields.DurationMS(float64(time.Since(t0).Microseconds())/1000))
	return res, nil
}

func checkBuffered(doc Document) error {
	if doc.Contents == nil && doc.Reader != nil {
		return errors.ConfigError("Streams are not supported!").
			WithContext("document", doc.Path).
			Build()
	}
	return nil
}

func baseOf(doc Document) string {
	if doc.Base != "" {
		return doc.Base
	}
	return filepath.Dir(doc.Path)
}

func outcomeFor(ctx context.Context, err error) metrics.OutcomeLabel {
	switch {
	case ctx.Err() != nil:
		return metrics.OutcomeCanceled
	case errors.IsStage(err):
		return metrics.OutcomePartial
	default:
		return metrics.OutcomeFailed
	}
}
