package file

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/pgzip"

	"github.com/turtacn/pubconcept/internal/application/replacement"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// TSVSink writes one line per article:
//
//	pmid<TAB>text
//	pmid<TAB>year<TAB>text   (when the article carries a year)
//
// Every Write flushes, so a later fatal error leaves all earlier lines on
// disk.
type TSVSink struct {
	mu     sync.Mutex
	w      *bufio.Writer
	gz     *pgzip.Writer
	closer io.Closer
	closed bool
}

// NewTSVSink writes to w. If w is an io.Closer it is closed by Close.
func NewTSVSink(w io.Writer) *TSVSink {
	s := &TSVSink{w: bufio.NewWriter(w)}
	if c, ok := w.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// NewStreamSink writes to w and leaves it open on Close.
func NewStreamSink(w io.Writer) *TSVSink {
	return &TSVSink{w: bufio.NewWriter(w)}
}

// CreateTSVSink creates path, or writes stdout for "-". A ".gz" path is
// gzip-compressed; its lines become durable only on Close.
func CreateTSVSink(path string) (*TSVSink, error) {
	if path == StdinURI {
		return NewStreamSink(os.Stdout), nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to create output directory").WithDetail(dir)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to create output").WithDetail(path)
	}
	if filepath.Ext(path) != ".gz" {
		return NewTSVSink(f), nil
	}
	gz := pgzip.NewWriter(f)
	return &TSVSink{w: bufio.NewWriter(gz), gz: gz, closer: f}, nil
}

func (s *TSVSink) Name() string { return "tsv" }

func (s *TSVSink) Write(_ context.Context, a replacement.ReplacedArticle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New(errors.ErrCodeSinkClosed, "tsv sink is closed")
	}

	s.w.WriteString(a.PMID)
	s.w.WriteByte('\t')
	if a.Year != "" {
		s.w.WriteString(a.Year)
		s.w.WriteByte('\t')
	}
	s.w.WriteString(a.Text)
	s.w.WriteByte('\n')
	if err := s.w.Flush(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to write article").WithDetail("pmid=" + a.PMID)
	}
	return nil
}

func (s *TSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	err := s.w.Flush()
	if s.gz != nil {
		if gerr := s.gz.Close(); err == nil {
			err = gerr
		}
	}
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSinkWriteFailed, "failed to close output")
	}
	return nil
}

var _ replacement.Sink = (*TSVSink)(nil)

//Personal.AI order the ending
