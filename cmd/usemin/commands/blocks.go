package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/usemin/internal/blocks"
	"git.home.luguber.info/inful/usemin/internal/pipeline"
	"git.home.luguber.info/inful/usemin/internal/usemin"
)

// BlocksCmd implements the 'blocks' command.
type BlocksCmd struct {
	Files []string `arg:"" help:"Documents to inspect" type:"path"`
}

type documentView struct {
	Document string      `yaml:"document"`
	Blocks   []blockView `yaml:"blocks"`
}

type blockView struct {
	Index       int      `yaml:"index"`
	Kind        string   `yaml:"kind"`
	Type        string   `yaml:"type"`
	DisplayPath string   `yaml:"display_path,omitempty"`
	OutputName  string   `yaml:"output_name,omitempty"`
	AltPath     string   `yaml:"alt_path,omitempty"`
	Media       string   `yaml:"media,omitempty"`
	Conditional string   `yaml:"conditional,omitempty"`
	Files       []string `yaml:"files,omitempty"`
	Stages      []string `yaml:"stages,omitempty"`
}

func (b *BlocksCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	engine, err := cfg.EngineOptions(g.registry())
	if err != nil {
		return err
	}
	base, err := filepath.Abs(cfg.Input.Base)
	if err != nil {
		return err
	}
	docs, err := usemin.LoadDocuments(b.Files, base)
	if err != nil {
		return err
	}
	return describe(context.Background(), os.Stdout, usemin.New(engine), docs, cfg.SkipConcat)
}

// describe writes the block model of every document as YAML.
func describe(ctx context.Context, w io.Writer, p *usemin.Processor, docs []usemin.Document, skipConcat bool) error {
	views := make([]documentView, 0, len(docs))
	for _, doc := range docs {
		segs, err := p.Segments(ctx, doc)
		if err != nil {
			return err
		}
		view := documentView{Document: doc.Path, Blocks: []blockView{}}
		for _, blk := range blocks.Blocks(segs) {
			bv, err := viewOf(blk, skipConcat)
			if err != nil {
				return err
			}
			view.Blocks = append(view.Blocks, bv)
		}
		views = append(views, view)
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(views); err != nil {
		return fmt.Errorf("encode block model: %w", err)
	}
	return enc.Close()
}

func viewOf(blk *blocks.Block, skipConcat bool) (blockView, error) {
	bv := blockView{
		Index:       blk.Index,
		Kind:        blk.Kind,
		Type:        string(blk.Type),
		DisplayPath: blk.DisplayPath,
		OutputName:  blk.OutputName,
		AltPath:     blk.AltPath,
		Media:       blk.MediaQuery,
	}
	if blk.Wrapper != nil {
		bv.Conditional = blk.Wrapper.Open
	}
	for _, f := range blk.Files {
		bv.Files = append(bv.Files, f.Relative())
	}
	if blk.Type == blocks.TypeRemove {
		return bv, nil
	}
	plan, err := pipeline.Plan(blk.Stages, skipConcat)
	if err != nil {
		return blockView{}, err
	}
	bv.Stages = pipeline.Names(plan)
	return bv, nil
}
