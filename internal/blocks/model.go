// Package blocks splits an HTML document into literal text and annotated
// build blocks with their resolved source files.
package blocks

import (
	"strings"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/stage"
)

// Type decides how a block is rendered back into the document.
type Type string

const (
	TypeJS         Type = "js"
	TypeCSS        Type = "css"
	TypeInlineJS   Type = "inlinejs"
	TypeInlineCSS  Type = "inlinecss"
	TypeHTMLImport Type = "htmlimport"
	TypeRemove     Type = "remove"
)

// Reserved block kinds.
const (
	KindRemove     = "remove"
	KindHTMLImport = "htmlimport"
)

// Inline reports whether blocks of this type embed their output.
func (t Type) Inline() bool {
	return t == TypeInlineJS || t == TypeInlineCSS
}

// Wrapper is a conditional comment pair bracketing a block.
type Wrapper struct {
	Open  string
	Close string
}

// Block is one annotated region of a document.
type Block struct {
	// Index is the position of the block among the document's blocks.
	Index int

	// Kind is the declared pipeline identifier from the open marker.
	Kind string
	Type Type

	AltPath string

	// DisplayPath is the path written in the open marker, kept for the rewritten tag.
	DisplayPath string

	// OutputName is the artifact name handed to the join stage.
	OutputName string

	Files      []*asset.File
	MediaQuery string
	Wrapper    *Wrapper
	Stages     []stage.Spec

	// Body is the verbatim text between the open and close markers.
	Body string
}

// Empty reports whether the block resolved no source files.
func (b *Block) Empty() bool {
	return len(b.Files) == 0
}

// Segment is either literal document text or a block.
type Segment struct {
	Literal string
	Block   *Block
}

// IsBlock reports whether the segment holds a block.
func (s Segment) IsBlock() bool {
	return s.Block != nil
}

// Blocks returns the blocks of segs in document order.
func Blocks(segs []Segment) []*Block {
	var out []*Block
	for _, s := range segs {
		if s.Block != nil {
			out = append(out, s.Block)
		}
	}
	return out
}

// typeFor maps a declared kind and the sniffed reference kind to a render type.
func typeFor(kind string, script bool) Type {
	switch {
	case kind == KindRemove:
		return TypeRemove
	case kind == KindHTMLImport:
		return TypeHTMLImport
	case strings.Contains(kind, "inline") && script:
		return TypeInlineJS
	case strings.Contains(kind, "inline"):
		return TypeInlineCSS
	case script:
		return TypeJS
	default:
		return TypeCSS
	}
}
