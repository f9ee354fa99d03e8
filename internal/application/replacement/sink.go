package replacement

import (
	"context"
	stderrors "errors"
	"io"
	"sync"
	"time"

	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// ReplacedArticle is one output record.
type ReplacedArticle struct {
	RunID string `json:"run_id"`
	PMID  string `json:"pmid"`
	// Year is set only when a relevance index restricts the run.
	Year  string `json:"year,omitempty"`
	Text  string `json:"text"`
	Spans int    `json:"spans"`
}

// Sink persists replaced articles. Write must make the record durable (or
// hand it to a durable system) before returning, so that a later fatal error
// leaves every earlier record written.
type Sink interface {
	Name() string
	Write(ctx context.Context, a ReplacedArticle) error
	Close() error
}

// Source opens an offset stream by URI: a local path, "-" for stdin, a .gz
// file or s3://bucket/key.
type Source interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// MultiSink writes each article to every sink in order and stops at the
// first failure.
type MultiSink struct {
	sinks   []Sink
	metrics *prometheus.PipelineMetrics
}

// NewMultiSink fans out to sinks. metrics may be nil.
func NewMultiSink(metrics *prometheus.PipelineMetrics, sinks ...Sink) *MultiSink {
	if metrics == nil {
		metrics = prometheus.NewNopPipelineMetrics()
	}
	return &MultiSink{sinks: sinks, metrics: metrics}
}

func (m *MultiSink) Name() string { return "multi" }

func (m *MultiSink) Write(ctx context.Context, a ReplacedArticle) error {
	for _, s := range m.sinks {
		start := time.Now()
		err := s.Write(ctx, a)
		prometheus.RecordSinkWrite(m.metrics, s.Name(), time.Since(start), err)
		if err != nil {
			code := errors.GetCode(err)
			if code == errors.CodeUnknown {
				code = errors.ErrCodeSinkWriteFailed
			}
			return errors.Wrap(err, code, "sink "+s.Name()+" failed").WithDetail("pmid=" + a.PMID)
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// MemorySink keeps articles in memory. The HTTP API collects batch results
// with it.
type MemorySink struct {
	mu       sync.Mutex
	articles []ReplacedArticle
	closed   bool
}

func NewMemorySink() *MemorySink { return &MemorySink{} }

func (m *MemorySink) Name() string { return "memory" }

func (m *MemorySink) Write(_ context.Context, a ReplacedArticle) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return errors.New(errors.ErrCodeSinkClosed, "sink is closed")
	}
	m.articles = append(m.articles, a)
	return nil
}

func (m *MemorySink) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Articles returns a copy of what was written.
func (m *MemorySink) Articles() []ReplacedArticle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ReplacedArticle, len(m.articles))
	copy(out, m.articles)
	return out
}

//Personal.AI order the ending
