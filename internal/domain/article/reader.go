package article

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// lineKind is the shape of one offset-file line.
type lineKind uint8

const (
	lineUnrecognized lineKind = iota
	lineBlank
	lineTitle
	lineAbstract
	lineAnnotation
)

func (k lineKind) String() string {
	switch k {
	case lineBlank:
		return "blank"
	case lineTitle:
		return "title"
	case lineAbstract:
		return "abstract"
	case lineAnnotation:
		return "annotation"
	default:
		return "unrecognized"
	}
}

// classifier holds the line patterns. Each Reader owns one.
type classifier struct {
	title    *regexp.Regexp
	abstract *regexp.Regexp
	category *regexp.Regexp
}

func newClassifier() *classifier {
	return &classifier{
		title:    regexp.MustCompile(`^(\d+)\|t\|(.+)$`),
		abstract: regexp.MustCompile(`^(\d+)\|a\|(.*)$`),
		category: regexp.MustCompile(`^\w+$`),
	}
}

type classified struct {
	kind  lineKind
	pmid  string
	text  string
	annot RawAnnotation
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// classify recognizes one line with its end-of-line already stripped.
func (c *classifier) classify(line string) classified {
	if line == "" {
		return classified{kind: lineBlank}
	}
	if m := c.title.FindStringSubmatch(line); m != nil {
		return classified{kind: lineTitle, pmid: m[1], text: m[2]}
	}
	if m := c.abstract.FindStringSubmatch(line); m != nil {
		return classified{kind: lineAbstract, pmid: m[1], text: m[2]}
	}

	// pmid, start, end, surface..., category, identifier. The surface may
	// itself contain tabs, so category and identifier are the last two fields.
	fields := strings.Split(line, "\t")
	n := len(fields)
	if n < 6 || !isDigits(fields[0]) || !isDigits(fields[1]) || !isDigits(fields[2]) {
		return classified{kind: lineUnrecognized}
	}
	if !c.category.MatchString(fields[n-2]) {
		return classified{kind: lineUnrecognized}
	}
	start, err1 := strconv.Atoi(fields[1])
	end, err2 := strconv.Atoi(fields[2])
	if err1 != nil || err2 != nil {
		return classified{kind: lineUnrecognized}
	}
	return classified{
		kind: lineAnnotation,
		pmid: fields[0],
		annot: RawAnnotation{
			Start:    start,
			End:      end,
			Surface:  strings.Join(fields[3:n-2], "\t"),
			Category: fields[n-2],
			RawID:    fields[n-1],
		},
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Reader
// ─────────────────────────────────────────────────────────────────────────────

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithLogger sets the logger used for skipped lines and dropped records.
func WithLogger(l logging.Logger) ReaderOption {
	return func(r *Reader) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithSourceName labels log entries with the input name.
func WithSourceName(name string) ReaderOption {
	return func(r *Reader) { r.source = name }
}

// pending is the record currently being assembled.
type pending struct {
	pmid        string
	title       string
	abstract    string
	hasAbstract bool
	annotations []RawAnnotation
}

func (p *pending) record() *ArticleRecord {
	return &ArticleRecord{
		PMID:        p.pmid,
		Title:       p.title,
		Abstract:    p.abstract,
		Annotations: p.annotations,
	}
}

// Reader is a pull cursor over an offset stream. It holds at most one record
// in memory. A Reader is not safe for concurrent use.
type Reader struct {
	br     *bufio.Reader
	cls    *classifier
	logger logging.Logger
	source string

	cur   *pending
	done  bool
	stats Stats
}

// NewReader wraps r. Lines of any length are accepted.
func NewReader(r io.Reader, opts ...ReaderOption) *Reader {
	rd := &Reader{
		br:     bufio.NewReaderSize(r, 64*1024),
		cls:    newClassifier(),
		logger: logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(rd)
	}
	if rd.source != "" {
		rd.logger = rd.logger.With(logging.String("source", rd.source))
	}
	return rd
}

// Stats returns a snapshot of the counters.
func (r *Reader) Stats() Stats {
	return r.stats
}

// Next returns the next complete record, or io.EOF once the stream is
// exhausted. Structural defects (CodeMissingAbstract) are returned as errors
// that leave the cursor usable: calling Next again continues with the
// following record. Any other error is terminal.
func (r *Reader) Next(ctx context.Context) (*ArticleRecord, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if r.done {
			return nil, io.EOF
		}

		raw, err := r.br.ReadString('\n')
		if err != nil && err != io.EOF {
			r.done = true
			return nil, errors.Wrap(err, errors.ErrCodeRecordReadFailed, "failed to read offset stream").
				WithDetail(fmt.Sprintf("after line %d", r.stats.LinesRead))
		}
		if raw == "" && err == io.EOF {
			r.done = true
			return nil, r.finishAtEOF()
		}
		r.stats.LinesRead++

		rec, perr := r.consume(trimEOL(raw))
		if perr != nil || rec != nil {
			return rec, perr
		}
	}
}

// consume folds one line into the reader state. It returns a record when the
// line completes one.
func (r *Reader) consume(line string) (*ArticleRecord, error) {
	c := r.cls.classify(line)

	switch c.kind {
	case lineBlank:
		if r.cur == nil {
			return nil, nil
		}
		p := r.cur
		r.cur = nil
		if !p.hasAbstract {
			return nil, r.missingAbstract(p.pmid)
		}
		r.stats.RecordsEmitted++
		return p.record(), nil

	case lineTitle:
		var err error
		if p := r.cur; p != nil {
			if !p.hasAbstract {
				err = r.missingAbstract(p.pmid)
			} else {
				r.dropUnterminated(p.pmid, "next title line reached")
			}
		}
		r.cur = &pending{pmid: c.pmid, title: NormalizeTitle(c.text)}
		return nil, err

	case lineAbstract:
		if r.cur == nil || r.cur.hasAbstract {
			r.unrecognized(line, "abstract line without an open title")
			return nil, nil
		}
		r.cur.abstract = c.text
		r.cur.hasAbstract = true
		return nil, nil

	case lineAnnotation:
		if r.cur == nil || !r.cur.hasAbstract {
			r.unrecognized(line, "annotation line outside a record")
			return nil, nil
		}
		r.cur.annotations = append(r.cur.annotations, c.annot)
		return nil, nil

	default:
		r.unrecognized(line, "line does not match any pattern")
		return nil, nil
	}
}

func (r *Reader) finishAtEOF() error {
	p := r.cur
	r.cur = nil
	if p == nil {
		return io.EOF
	}
	if !p.hasAbstract {
		return r.missingAbstract(p.pmid)
	}
	r.dropUnterminated(p.pmid, "end of stream reached")
	return io.EOF
}

func (r *Reader) missingAbstract(pmid string) error {
	r.stats.MalformedRecords++
	return errors.New(errors.CodeMissingAbstract, "record has no abstract line").
		WithDetail("pmid=" + pmid)
}

func (r *Reader) dropUnterminated(pmid, why string) {
	r.stats.MalformedRecords++
	r.logger.Warn("dropping record without blank-line terminator",
		logging.PMID(pmid), logging.String("reason", why))
}

func (r *Reader) unrecognized(line, why string) {
	r.stats.UnrecognizedLines++
	if len(line) > 200 {
		line = line[:200]
	}
	r.logger.Warn(why,
		logging.Int64("line", r.stats.LinesRead),
		logging.String("content", line),
		logging.String("code", string(errors.CodeUnrecognizedLine)))
}

//Personal.AI order the ending
