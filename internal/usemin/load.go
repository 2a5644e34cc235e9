package usemin

import (
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/usemin/internal/foundation/errors"
)

// LoadDocuments reads every path into a Document sharing base.
func LoadDocuments(paths []string, base string) ([]Document, error) {
	docs := make([]Document, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(filepath.Clean(p))
		if err != nil {
			return nil, errors.WrapError(err, errors.CategoryFileSystem, "cannot read document").
				WithContext("document", p).
				Build()
		}
		if data == nil {
			data = []byte{}
		}
		docs = append(docs, Document{Path: p, Base: base, Contents: data})
	}
	return docs, nil
}
