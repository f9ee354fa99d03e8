package article

import (
	"fmt"

	"github.com/turtacn/pubconcept/pkg/errors"
)

// Stats counts what a Reader has seen so far.
type Stats struct {
	LinesRead         int64 `json:"lines_read"`
	RecordsEmitted    int64 `json:"records_emitted"`
	UnrecognizedLines int64 `json:"unrecognized_lines"`
	MalformedRecords  int64 `json:"malformed_records"`
}

// ExpectCount compares the number of emitted records with the number the
// caller expected, e.g. the size of a requested batch. A mismatch means some
// article never reached its blank-line terminator and is not recoverable.
func ExpectCount(expected, emitted int) error {
	if expected == emitted {
		return nil
	}
	return errors.New(errors.CodeRecordCountMismatch, "record count mismatch").
		WithDetail(fmt.Sprintf("expected %d records, emitted %d", expected, emitted))
}

//Personal.AI order the ending
