// Package allowset builds concept allow-sets from files or from MeSH
// descriptor hierarchies, and writes them back out.
package allowset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/turtacn/pubconcept/internal/domain/concept"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// Parse reads category<TAB>id lines. Lines that do not have exactly two
// tab-separated fields are ignored; both fields are trimmed.
func Parse(r io.Reader) (*concept.AllowSet, error) {
	set := concept.NewAllowSet()
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			fields := strings.Split(line, "\t")
			if len(fields) == 2 {
				category := strings.TrimSpace(fields[0])
				id := strings.TrimSpace(fields[1])
				if category != "" && id != "" {
					set.Add(category, id)
				}
			}
		}
		if err == io.EOF {
			return set, nil
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeAllowSetInvalid, "failed to read allow-set")
		}
	}
}

// LoadFile parses the allow-set file at path.
func LoadFile(path string) (*concept.AllowSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAllowSetInvalid, "failed to open allow-set").WithDetail(path)
	}
	defer f.Close()
	return Parse(f)
}

// WriteFile writes set to path in the format LoadFile reads.
func WriteFile(path string, set *concept.AllowSet) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to create allow-set directory").WithDetail(dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to create allow-set").WithDetail(path)
	}
	if err := WriteTSV(f, set); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to close allow-set").WithDetail(path)
	}
	return nil
}

// WriteTSV writes set as category<TAB>id lines, sorted.
func WriteTSV(w io.Writer, set *concept.AllowSet) error {
	bw := bufio.NewWriter(w)
	for _, p := range set.Pairs() {
		if _, err := fmt.Fprintf(bw, "%s\t%s\n", p.Category, p.ID); err != nil {
			return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to write allow-set")
		}
	}
	if err := bw.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to write allow-set")
	}
	return nil
}

//Personal.AI order the ending
