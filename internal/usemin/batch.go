package usemin

import (
	"context"
	stderrors "errors"
	"sync"

	"git.home.luguber.info/inful/usemin/internal/logfields"
	"git.home.luguber.info/inful/usemin/internal/observability"
	"git.home.luguber.info/inful/usemin/internal/sink"
)

// DefaultConcurrency bounds the documents processed at once by Run.
const DefaultConcurrency = 4

// Summary reports the outcome of a batch.
type Summary struct {
	Documents int      `json:"documents"`
	Blocks    int      `json:"blocks"`
	Artifacts int      `json:"artifacts"`
	Failed    []string `json:"failed,omitempty"`
}

// Run processes docs with at most concurrency documents in flight and writes
// every produced file to out in input order. A failing document does not stop
// the others; all errors are joined.
func (p *Processor) Run(ctx context.Context, docs []Document, concurrency int, out sink.Sink) (Summary, error) {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	type outcome struct {
		res *Result
		err error
	}
	outcomes := make([]outcome, len(docs))

	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	for i, doc := range docs {
		i, doc := i, doc
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			res, err := p.Process(ctx, doc)
			outcomes[i] = outcome{res: res, err: err}
		}()
	}
	wg.Wait()

	var (
		summary Summary
		errs    []error
	)
	for i, o := range outcomes {
		summary.Documents++
		if o.err != nil {
			observability.ErrorContext(ctx, "Document failed",
				logfields.Document(docs[i].Path),
				logfields.Error(o.err))
			summary.Failed = append(summary.Failed, docs[i].Path)
			errs = append(errs, o.err)
		}
		if o.res == nil {
			continue
		}
		summary.Blocks += o.res.Blocks
		summary.Artifacts += len(o.res.Artifacts)
		for _, f := range o.res.Files() {
			if err := out.Write(ctx, f); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return summary, stderrors.Join(errs...)
}
