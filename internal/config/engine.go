package config

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
	"git.home.luguber.info/inful/usemin/internal/htmlbuild"
	"git.home.luguber.info/inful/usemin/internal/retry"
	"git.home.luguber.info/inful/usemin/internal/stage"
	"git.home.luguber.info/inful/usemin/internal/stage/builtin"
	"git.home.luguber.info/inful/usemin/internal/usemin"
)

// EngineOptions converts cfg into processor options, resolving every stage
// name through reg.
func (c *Config) EngineOptions(reg *builtin.Registry) (usemin.Options, error) {
	if reg == nil {
		reg = builtin.Default()
	}

	pipelines := make(map[string][]stage.Spec, len(c.Pipelines))
	for id, list := range c.Pipelines {
		specs := make([]stage.Spec, 0, len(list))
		for _, s := range list {
			spec, err := reg.Spec(builtin.Params{
				Name:         s.Name,
				Command:      s.Command,
				Args:         s.Args,
				Ext:          s.Ext,
				KeepComments: s.KeepComments,
			})
			if err != nil {
				return usemin.Options{}, err
			}
			specs = append(specs, spec)
		}
		pipelines[id] = specs
	}

	attrs := make(htmlbuild.Attributes, 0, len(c.JSAttributes))
	for _, a := range c.JSAttributes {
		attrs = append(attrs, htmlbuild.Attribute{Name: a.Name, Value: a.Value})
	}

	return usemin.Options{
		Pipelines:            pipelines,
		AssetsDir:            c.AssetsDir,
		Path:                 c.Path,
		OutputRelativePath:   c.OutputRelativePath,
		EnableHTMLComment:    c.EnableHTMLComment,
		SkipMissingResources: c.SkipMissingResources,
		SkipConcat:           c.SkipConcat,
		NewLine:              c.NewLine,
		JSAttributes:         attrs,
	}, nil
}

// RetryPolicy is the notify retry policy.
func (c *Config) RetryPolicy() retry.Policy {
	backoff, _ := retry.ParseBackoff(c.Notify.Backoff)
	return retry.NewPolicy(backoff, 0, 0, c.Notify.MaxRetries)
}

// InputFiles returns the documents selected by the input patterns, as
// absolute paths in sorted order.
func (c *Config) InputFiles() ([]string, error) {
	base, err := filepath.Abs(c.Input.Base)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryFileSystem, "cannot resolve input base").Build()
	}
	fsys := os.DirFS(base)

	seen := make(map[string]struct{})
	for _, pattern := range c.Input.Include {
		matches, err := doublestar.Glob(fsys, pattern, doublestar.WithFilesOnly())
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryConfig, "invalid include pattern "+pattern).Build()
		}
		for _, m := range matches {
			if c.excluded(m) {
				continue
			}
			seen[m] = struct{}{}
		}
	}

	files := make([]string, 0, len(seen))
	for m := range seen {
		files = append(files, filepath.Join(base, filepath.FromSlash(m)))
	}
	sort.Strings(files)
	return files, nil
}

// excluded reports whether the path, relative to the input base, matches an
// exclude pattern.
func (c *Config) excluded(rel string) bool {
	for _, pattern := range c.Input.Exclude {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}

// Matches reports whether an absolute path is a selected input document.
func (c *Config) Matches(path string) bool {
	base, err := filepath.Abs(c.Input.Base)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(base, path)
	if err != nil || !fs.ValidPath(filepath.ToSlash(rel)) {
		return false
	}
	rel = filepath.ToSlash(rel)
	if c.excluded(rel) {
		return false
	}
	for _, pattern := range c.Input.Include {
		if ok, _ := doublestar.Match(pattern, rel); ok {
			return true
		}
	}
	return false
}
