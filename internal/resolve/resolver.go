// Package resolve turns the references inside a block body into loaded
// source files.
package resolve

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"git.home.luguber.info/inful/usemin/internal/asset"
	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/logfields"
	"git.home.luguber.info/inful/usemin/internal/markers"
	"git.home.luguber.info/inful/usemin/internal/observability"
)

// Source supplies files to the resolver.
type Source interface {
	// Glob expands an absolute path pattern to the matching file paths.
	Glob(pattern string) ([]string, error)

	// ReadFile returns the bytes of the named file.
	ReadFile(name string) ([]byte, error)
}

// OSSource reads from the local filesystem. Patterns support "**".
type OSSource struct{}

func (OSSource) Glob(pattern string) ([]string, error) {
	return doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
}

func (OSSource) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(filepath.Clean(name))
}

// Options configure path resolution.
type Options struct {
	// AssetsDir re-roots resolved paths (relative to the document base) under this directory.
	AssetsDir string

	// Path is the global fallback directory references are resolved against.
	Path string

	// EnableHTMLComment scans references inside HTML comments instead of dropping them.
	EnableHTMLComment bool

	// SkipMissing drops patterns that match nothing instead of failing.
	SkipMissing bool

	// Source defaults to OSSource.
	Source Source
}

// Request describes one block body to resolve.
type Request struct {
	Body    string
	Kind    markers.RefKind
	AltPath string

	// DocDir is the directory of the containing document.
	DocDir string

	// Base is the base directory of the containing document.
	Base string
}

// Result is the ordered, path-unique list of loaded files and the block's media query.
type Result struct {
	Files      []*asset.File
	MediaQuery string
}

// Resolver resolves and loads block references.
type Resolver struct {
	opts Options
}

// New creates a Resolver.
func New(opts Options) *Resolver {
	if opts.Source == nil {
		opts.Source = OSSource{}
	}
	return &Resolver{opts: opts}
}

// Resolve extracts the references of req.Kind from req.Body, expands them and
// loads every matching file.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	scanned := markers.StripWrappers(req.Body)
	if !r.opts.EnableHTMLComment {
		scanned = markers.StripComments(scanned)
	}

	var res Result
	if req.Kind == markers.RefStylesheet {
		mq, err := mediaQuery(scanned)
		if err != nil {
			return Result{}, err
		}
		res.MediaQuery = mq
	}

	seen := make(map[string]struct{})
	for _, ref := range markers.References(scanned, req.Kind) {
		pattern, err := r.absolute(ref, req)
		if err != nil {
			return Result{}, err
		}

		matches, err := r.opts.Source.Glob(pattern)
		if err != nil {
			return Result{}, errors.WrapError(err, errors.CategoryResolution, "invalid pattern "+pattern).
				WithContext("path", pattern).
				Build()
		}
		if len(matches) == 0 {
			if r.opts.SkipMissing {
				observability.WarnContext(ctx, "Skipping missing resource", logfields.Path(pattern))
				continue
			}
			return Result{}, errors.ResolutionError("Path " + pattern + " not found!").
				WithContext("path", pattern).
				Build()
		}
		sort.Strings(matches)

		for _, match := range matches {
			if _, dup := seen[match]; dup {
				continue
			}
			seen[match] = struct{}{}

			f, err := r.load(match, req.Base)
			if err != nil {
				return Result{}, err
			}
			res.Files = append(res.Files, f)
		}
	}
	return res, nil
}

// absolute applies the alternate path, configured path and assets directory
// rules to one reference.
func (r *Resolver) absolute(ref string, req Request) (string, error) {
	dir := req.AltPath
	if dir == "" {
		dir = r.opts.Path
	}
	if dir == "" {
		dir = req.DocDir
	}

	p, err := filepath.Abs(filepath.Join(dir, ref))
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryResolution, "cannot resolve "+ref).Build()
	}
	if r.opts.AssetsDir == "" {
		return p, nil
	}

	rel, err := filepath.Rel(req.Base, p)
	if err != nil {
		return "", errors.WrapError(err, errors.CategoryResolution, "cannot relate "+p+" to "+req.Base).Build()
	}
	return filepath.Abs(filepath.Join(r.opts.AssetsDir, rel))
}

func (r *Resolver) load(path, base string) (*asset.File, error) {
	data, err := r.opts.Source.ReadFile(path)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "cannot read "+path).
			WithContext("path", path).
			Build()
	}
	return asset.New(path, base, stripBOM(data)), nil
}

// stripBOM drops a leading byte order mark, transcoding UTF-16 input to UTF-8.
// Input without a BOM is returned as is.
func stripBOM(data []byte) []byte {
	out, _, err := transform.Bytes(unicode.BOMOverride(transform.Nop), data)
	if err != nil {
		return data
	}
	return out
}

// mediaQuery returns the single media query shared by all link tags in text.
func mediaQuery(text string) (string, error) {
	var mq string
	for _, m := range markers.MediaQueries(text) {
		if mq == "" {
			mq = m.Value
			continue
		}
		if mq != m.Value {
			return "", errors.ConfigError("incompatible css media query for " + m.Tag + " detected.").
				WithContext("media", []string{mq, m.Value}).
				Build()
		}
	}
	return mq, nil
}
