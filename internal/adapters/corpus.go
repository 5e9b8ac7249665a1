// Package adapters contains the production implementations of the
// collaborator interfaces in pkg/collab: thin HTTP clients and filesystem
// readers. None of them carry business logic; failure handling beyond
// returning an error belongs to the steps that call them.
package adapters

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/storieswithjai/ghostflow/pkg/collab"
)

// DirCorpus reads an author's reference texts from a directory of .txt and
// .md files, in filename order.
type DirCorpus struct {
	Dir string
}

var _ collab.StyleCorpusSource = (*DirCorpus)(nil)

func (c *DirCorpus) ListReferenceTexts(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".txt" || ext == ".md" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	texts := make([]string, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(c.Dir, name))
		if err != nil {
			return nil, err
		}
		texts = append(texts, string(data))
	}
	return texts, nil
}
