package blocks

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/logfields"
	"git.home.luguber.info/inful/usemin/internal/markers"
	"git.home.luguber.info/inful/usemin/internal/observability"
	"git.home.luguber.info/inful/usemin/internal/resolve"
	"git.home.luguber.info/inful/usemin/internal/stage"
)

// Options configure a Builder.
type Options struct {
	// Resolver loads block references; a default resolver is used when nil.
	Resolver *resolve.Resolver

	// Pipelines maps a pipeline identifier to its stage list.
	Pipelines map[string][]stage.Spec

	// OutputRelativePath prefixes every output name.
	OutputRelativePath string
}

// Document identifies the document being split. Nothing else outlives a
// single Build call.
type Document struct {
	Path string
	Base string
	Text string
}

// Builder turns documents into segment sequences.
type Builder struct {
	opts Options
}

// NewBuilder creates a Builder.
func NewBuilder(opts Options) *Builder {
	if opts.Resolver == nil {
		opts.Resolver = resolve.New(resolve.Options{})
	}
	return &Builder{opts: opts}
}

// Build splits doc into segments in a single left-to-right pass. Concatenating
// the literal text of a document without blocks reproduces it exactly.
func (b *Builder) Build(ctx context.Context, doc Document) ([]Segment, error) {
	docDir := filepath.Dir(doc.Path)
	base := doc.Base
	if base == "" {
		base = docDir
	}

	var (
		segs    []Segment
		literal strings.Builder
		index   int
	)
	flush := func() {
		if literal.Len() > 0 {
			segs = append(segs, Segment{Literal: literal.String()})
			literal.Reset()
		}
	}

	for _, sec := range markers.Sections(doc.Text) {
		start, ok := markers.FindStart(sec.Text)
		if !ok || !sec.Terminated() {
			literal.WriteString(sec.Text)
			literal.WriteString(sec.EndMarker)
			continue
		}

		literal.WriteString(sec.Text[:start.Start])
		flush()

		blk, err := b.block(ctx, start, sec.Text[start.End:], docDir, base)
		if err != nil {
			return nil, annotate(err, doc.Path, index)
		}
		blk.Index = index
		index++
		segs = append(segs, Segment{Block: blk})
	}
	flush()
	return segs, nil
}

func (b *Builder) block(ctx context.Context, start markers.Start, body, docDir, base string) (*Block, error) {
	script := markers.HasScript(body)
	blk := &Block{
		Kind:        start.Kind,
		Type:        typeFor(start.Kind, script),
		AltPath:     start.AltPath,
		DisplayPath: start.DisplayPath,
		Body:        body,
		Stages:      b.opts.Pipelines[start.Kind],
	}
	if start.Name != "" {
		blk.OutputName = b.opts.OutputRelativePath + start.Name
	}
	if open, closing, ok := markers.Wrapper(body); ok {
		blk.Wrapper = &Wrapper{Open: open, Close: closing}
	}
	if blk.Type == TypeRemove {
		return blk, nil
	}

	kind := markers.RefStylesheet
	if script && blk.Type != TypeHTMLImport {
		kind = markers.RefScript
	}

	res, err := b.opts.Resolver.Resolve(ctx, resolve.Request{
		Body:    body,
		Kind:    kind,
		AltPath: start.AltPath,
		DocDir:  docDir,
		Base:    base,
	})
	if err != nil {
		return nil, err
	}
	blk.Files = res.Files
	blk.MediaQuery = res.MediaQuery

	observability.DebugContext(ctx, "Resolved block",
		logfields.BlockKind(blk.Kind),
		logfields.Files(len(blk.Files)))
	return blk, nil
}

// annotate attaches the document and block position to a block error.
func annotate(err error, doc string, index int) error {
	if ce, ok := err.(*errors.ClassifiedError); ok {
		return ce.WithContext("document", doc).WithContext("block", index)
	}
	return errors.WrapError(err, errors.CategoryInternal, "block "+strconv.Itoa(index)+" in "+doc).
		WithContext("document", doc).
		WithContext("block", index).
		Build()
}
