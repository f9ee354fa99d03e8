package allowset

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/turtacn/pubconcept/internal/domain/concept"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// DescriptorStore persists MeSH descriptors and their tree positions.
type DescriptorStore interface {
	UpsertDescriptor(ctx context.Context, d concept.Descriptor, trees []concept.TreePosition) error
}

// MeshLoadStats counts the lines LoadMesh handled.
type MeshLoadStats struct {
	Loaded  int `json:"loaded"`
	Skipped int `json:"skipped"`
}

// LoadMesh reads ui<TAB>label<TAB>tree-numbers lines, tree numbers separated
// by ';', and upserts each descriptor into store. A tree number's parent is
// the number with its last segment removed. Blank lines and lines starting
// with '#' are ignored. Lines with fewer than two fields or an invalid UI are
// skipped and counted. A store failure stops the load.
func LoadMesh(ctx context.Context, r io.Reader, store DescriptorStore, logger logging.Logger) (MeshLoadStats, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	var stats MeshLoadStats
	br := bufio.NewReader(r)
	lineNo := 0
	for {
		line, readErr := br.ReadString('\n')
		if line != "" {
			lineNo++
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			d, trees, ok := parseMeshLine(line)
			switch {
			case !ok:
			case d.UI == "":
				stats.Skipped++
				logger.Warn("skipping malformed MeSH line", logging.Int("line", lineNo))
			case concept.ValidateDescriptor(d.UI) != nil:
				stats.Skipped++
				logger.Warn("skipping invalid MeSH descriptor", logging.Int("line", lineNo), logging.String("ui", d.UI))
			default:
				if err := store.UpsertDescriptor(ctx, d, trees); err != nil {
					return stats, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to store MeSH descriptor").
						WithDetail(fmt.Sprintf("line %d: %s", lineNo, d.UI))
				}
				stats.Loaded++
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return stats, errors.Wrap(readErr, errors.ErrCodeSourceDecode, "failed to read MeSH file")
		}
	}
	logger.Info("MeSH descriptors loaded", logging.Int("loaded", stats.Loaded), logging.Int("skipped", stats.Skipped))
	return stats, nil
}

// parseMeshLine returns ok=false for lines to ignore, and an empty UI for a
// malformed line.
func parseMeshLine(line string) (concept.Descriptor, []concept.TreePosition, bool) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
		return concept.Descriptor{}, nil, false
	}
	fields := strings.Split(line, "\t")
	if len(fields) < 2 {
		return concept.Descriptor{}, nil, true
	}
	d := concept.Descriptor{UI: strings.TrimSpace(fields[0]), Label: strings.TrimSpace(fields[1])}
	var trees []concept.TreePosition
	if len(fields) > 2 {
		for _, id := range strings.Split(fields[2], ";") {
			if id = strings.TrimSpace(id); id != "" {
				trees = append(trees, concept.NewTreePosition(id))
			}
		}
	}
	return d, trees, true
}

//Personal.AI order the ending
