package article

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// readAll drains r, collecting records and every non-EOF error.
func readAll(t *testing.T, r *Reader) ([]*ArticleRecord, []error) {
	t.Helper()
	var recs []*ArticleRecord
	var errs []error
	for i := 0; i < 1000; i++ {
		rec, err := r.Next(context.Background())
		if err == io.EOF {
			return recs, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		recs = append(recs, rec)
	}
	t.Fatal("reader did not reach EOF")
	return nil, nil
}

const twoRecords = "100|t|Study of X.\n" +
	"100|a|X causes Y.\n" +
	"100\t9\t10\tX\tGene\t50\n" +
	"100\t21\t22\tY\tDisease\tMESH:D001\n" +
	"\n" +
	"200|t|Second title \n" +
	"200|a|\n" +
	"\n"

func TestReader_TwoRecords(t *testing.T) {
	r := NewReader(strings.NewReader(twoRecords))
	recs, errs := readAll(t, r)

	require.Empty(t, errs)
	require.Len(t, recs, 2)

	assert.Equal(t, "100", recs[0].PMID)
	assert.Equal(t, "Study of X. ", recs[0].Title)
	assert.Equal(t, "X causes Y.", recs[0].Abstract)
	require.Len(t, recs[0].Annotations, 2)
	assert.Equal(t, RawAnnotation{Start: 9, End: 10, Surface: "X", Category: "Gene", RawID: "50"}, recs[0].Annotations[0])
	assert.Equal(t, "MESH:D001", recs[0].Annotations[1].RawID)

	assert.Equal(t, "Second title ", recs[1].Title, "already whitespace-terminated titles are unchanged")
	assert.Equal(t, "", recs[1].Abstract)
	assert.Empty(t, recs[1].Annotations)

	st := r.Stats()
	assert.Equal(t, int64(8), st.LinesRead)
	assert.Equal(t, int64(2), st.RecordsEmitted)
	assert.Zero(t, st.UnrecognizedLines)
	assert.Zero(t, st.MalformedRecords)
}

func TestReader_CRLFLineEndings(t *testing.T) {
	in := strings.ReplaceAll(twoRecords, "\n", "\r\n")
	recs, errs := readAll(t, NewReader(strings.NewReader(in)))

	require.Empty(t, errs)
	require.Len(t, recs, 2)
	assert.Equal(t, "X causes Y.", recs[0].Abstract)
	assert.Equal(t, "MESH:D001", recs[0].Annotations[1].RawID)
}

func TestReader_SurfaceWithTabs(t *testing.T) {
	in := "1|t|T\n1|a|abc def\n1\t2\t9\tc\td ef\tChemical\tMESH:D1\n\n"
	recs, errs := readAll(t, NewReader(strings.NewReader(in)))

	require.Empty(t, errs)
	require.Len(t, recs, 1)
	ann := recs[0].Annotations[0]
	assert.Equal(t, "c\td ef", ann.Surface)
	assert.Equal(t, "Chemical", ann.Category)
	assert.Equal(t, "MESH:D1", ann.RawID)
}

func TestReader_DuplicateAnnotationsKept(t *testing.T) {
	in := "1|t|T\n1|a|abc\n1\t0\t1\tT\tGene\t7\n1\t0\t1\tT\tGene\t7\n\n"
	recs, _ := readAll(t, NewReader(strings.NewReader(in)))

	require.Len(t, recs, 1)
	assert.Len(t, recs[0].Annotations, 2)
}

func TestReader_UnrecognizedLinesAreSkipped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	in := "1|t|T\n1|a|abc\ngarbage here\n1\tx\t1\tT\tGene\t7\n1\t0\t1\tT\tGe-ne\t7\n\n"
	r := NewReader(strings.NewReader(in), WithLogger(logging.NewLoggerFromCore(core)), WithSourceName("in.txt"))
	recs, errs := readAll(t, r)

	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].Annotations)
	assert.Equal(t, int64(3), r.Stats().UnrecognizedLines)
	assert.Equal(t, 3, logs.FilterMessage("line does not match any pattern").Len())
	assert.Equal(t, "in.txt", logs.All()[0].ContextMap()["source"])
}

func TestReader_OrphanLines(t *testing.T) {
	in := "1|a|orphan abstract\n1\t0\t1\tT\tGene\t7\n2|t|Title\n2\t0\t1\tT\tGene\t7\n2|a|abc\n2|a|second abstract\n\n"
	r := NewReader(strings.NewReader(in))
	recs, errs := readAll(t, r)

	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "abc", recs[0].Abstract)
	assert.Empty(t, recs[0].Annotations)
	assert.Equal(t, int64(4), r.Stats().UnrecognizedLines)
}

func TestReader_ExtraBlankLinesIgnored(t *testing.T) {
	in := "\n\n1|t|T\n1|a|a\n\n\n\n2|t|U\n2|a|b\n\n"
	recs, errs := readAll(t, NewReader(strings.NewReader(in)))

	require.Empty(t, errs)
	assert.Len(t, recs, 2)
}

func TestReader_MissingAbstractAtBlank(t *testing.T) {
	in := "1|t|Only title\n\n2|t|T\n2|a|a\n\n"
	r := NewReader(strings.NewReader(in))

	_, err := r.Next(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeMissingAbstract))
	assert.Contains(t, err.Error(), "pmid=1")

	rec, err := r.Next(context.Background())
	require.NoError(t, err, "the cursor stays usable after a structural error")
	assert.Equal(t, "2", rec.PMID)

	_, err = r.Next(context.Background())
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, int64(1), r.Stats().MalformedRecords)
}

func TestReader_MissingAbstractBeforeNextTitle(t *testing.T) {
	in := "1|t|Only title\n2|t|T\n2|a|a\n\n"
	recs, errs := readAll(t, NewReader(strings.NewReader(in)))

	require.Len(t, errs, 1)
	assert.True(t, errors.IsCode(errs[0], errors.CodeMissingAbstract))
	require.Len(t, recs, 1)
	assert.Equal(t, "2", recs[0].PMID)
	assert.Equal(t, "T ", recs[0].Title)
}

func TestReader_MissingAbstractAtEOF(t *testing.T) {
	recs, errs := readAll(t, NewReader(strings.NewReader("1|t|Only title")))

	assert.Empty(t, recs)
	require.Len(t, errs, 1)
	assert.True(t, errors.IsCode(errs[0], errors.CodeMissingAbstract))
}

func TestReader_UnterminatedRecordDropped(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	in := "1|t|T\n1|a|a\n2|t|U\n2|a|b\n\n3|t|V\n3|a|c\n3\t0\t1\tV\tGene\t1"
	r := NewReader(strings.NewReader(in), WithLogger(logging.NewLoggerFromCore(core)))
	recs, errs := readAll(t, r)

	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, "2", recs[0].PMID)
	assert.Equal(t, int64(2), r.Stats().MalformedRecords)
	assert.Equal(t, 2, logs.FilterMessage("dropping record without blank-line terminator").Len())

	assert.Error(t, ExpectCount(3, len(recs)), "the count check catches dropped records")
}

func TestReader_LongLine(t *testing.T) {
	abstract := strings.Repeat("word ", 200000)
	in := "1|t|T\n1|a|" + abstract + "\n\n"
	recs, errs := readAll(t, NewReader(strings.NewReader(in)))

	require.Empty(t, errs)
	require.Len(t, recs, 1)
	assert.Equal(t, abstract, recs[0].Abstract)
}

func TestReader_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader(strings.NewReader(twoRecords)).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestReader_ReadFailureIsTerminal(t *testing.T) {
	r := NewReader(failingReader{})
	_, err := r.Next(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRecordReadFailed))

	_, err = r.Next(context.Background())
	assert.Equal(t, io.EOF, err)
}

func TestReader_PatternsArePerInstance(t *testing.T) {
	a := NewReader(strings.NewReader(""))
	b := NewReader(strings.NewReader(""))
	assert.NotSame(t, a.cls, b.cls)
}

func TestClassify(t *testing.T) {
	c := newClassifier()
	cases := []struct {
		line string
		kind lineKind
	}{
		{"", lineBlank},
		{"12|t|A title", lineTitle},
		{"12|t|", lineUnrecognized},
		{"12|a|", lineAbstract},
		{"12|a|text", lineAbstract},
		{"12\t0\t4\tword\tGene\t1", lineAnnotation},
		{"12\t0\t4\tword\tGene", lineUnrecognized},
		{"12\t0\t4\tword\tGene\t", lineAnnotation},
		{"x|t|title", lineUnrecognized},
		{" ", lineUnrecognized},
	}
	for _, tc := range cases {
		t.Run(tc.line, func(t *testing.T) {
			assert.Equal(t, tc.kind, c.classify(tc.line).kind, tc.kind.String())
		})
	}
}

//Personal.AI order the ending
