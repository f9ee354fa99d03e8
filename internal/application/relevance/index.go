// Package relevance restricts a replacement run to a known set of articles
// and supplies each article's publication year.
package relevance

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/pkg/errors"
)

const (
	pmidColumn = 0
	yearColumn = 1
)

// Index maps PMID to publication year.
type Index struct {
	years map[string]string
}

// NewIndex builds an index from a pmid->year map. Used by tests and the API.
func NewIndex(years map[string]string) *Index {
	cp := make(map[string]string, len(years))
	for k, v := range years {
		cp[k] = v
	}
	return &Index{years: cp}
}

// Year returns the publication year of pmid and whether pmid is relevant.
func (ix *Index) Year(pmid string) (string, bool) {
	y, ok := ix.years[pmid]
	return y, ok
}

// Len is the number of relevant articles.
func (ix *Index) Len() int {
	return len(ix.years)
}

// LoadDir reads every *.tsv file in dir in name order. Each line holds
// pmid<TAB>year[<TAB>...]; later files win on duplicate PMIDs. Lines with
// fewer than two fields are skipped.
func LoadDir(ctx context.Context, dir string, logger logging.Logger) (*Index, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.tsv"))
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeRelevanceIndexInvalid, "invalid relevance directory pattern")
	}
	if len(files) == 0 {
		return nil, errors.New(errors.ErrCodeRelevanceIndexInvalid, "no relevance files found").WithDetail(dir)
	}
	sort.Strings(files)

	ix := &Index{years: make(map[string]string)}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := ix.loadFile(f)
		if err != nil {
			return nil, err
		}
		logger.Info("loaded relevance file", logging.String("file", filepath.Base(f)), logging.Int("articles", n))
	}
	return ix, nil
}

func (ix *Index) loadFile(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeRelevanceIndexInvalid, "failed to open relevance file").WithDetail(path)
	}
	defer f.Close()
	n, err := ix.read(f)
	if err != nil {
		return n, errors.Wrap(err, errors.ErrCodeRelevanceIndexInvalid, "failed to read relevance file").WithDetail(path)
	}
	return n, nil
}

func (ix *Index) read(r io.Reader) (int, error) {
	br := bufio.NewReader(r)
	n := 0
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			fields := strings.Split(strings.TrimSpace(line), "\t")
			if len(fields) > yearColumn && fields[pmidColumn] != "" {
				ix.years[fields[pmidColumn]] = fields[yearColumn]
				n++
			}
		}
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read: %w", err)
		}
	}
}

//Personal.AI order the ending
