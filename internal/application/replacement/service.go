// Package replacement drives offset records through filtering, normalization
// and splicing, and hands the replaced text to sinks.
package replacement

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/pubconcept/internal/domain/article"
	"github.com/turtacn/pubconcept/internal/domain/concept"
	domain "github.com/turtacn/pubconcept/internal/domain/replacement"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// Run modes, used as metric labels.
const (
	ModeStream = "stream"
	ModeBatch  = "batch"
)

// Relevance restricts a run to known PMIDs and supplies their year.
type Relevance interface {
	Year(pmid string) (string, bool)
}

// RunRequest describes one replacement run.
type RunRequest struct {
	// Input is passed to Source.Open.
	Input string
	// Sink receives every replaced article. Required.
	Sink Sink
	// AllowSet overrides the service default when non-nil.
	AllowSet *concept.AllowSet
	// ExpectedCount, when set, is compared with the number of records read.
	ExpectedCount *int
	// Strict makes structural record errors fatal.
	Strict bool
	// Relevance, when set, drops unknown PMIDs and fills ReplacedArticle.Year.
	Relevance Relevance
}

// RunSummary reports what a run did.
type RunSummary struct {
	RunID             string           `json:"run_id"`
	Input             string           `json:"input"`
	Reader            article.Stats    `json:"reader"`
	Written           int64            `json:"written"`
	SkippedIrrelevant int64            `json:"skipped_irrelevant"`
	SkippedStructural int64            `json:"skipped_structural"`
	SpansApplied      int64            `json:"spans_applied"`
	Verdicts          map[string]int64 `json:"verdicts"`
	StartedAt         time.Time        `json:"started_at"`
	Duration          time.Duration    `json:"duration"`
}

func newSummary(runID, input string) *RunSummary {
	s := &RunSummary{
		RunID:     runID,
		Input:     input,
		Verdicts:  make(map[string]int64, len(concept.Verdicts())),
		StartedAt: time.Now(),
	}
	for _, v := range concept.Verdicts() {
		s.Verdicts[v.String()] = 0
	}
	return s
}

// Option configures a Service.
type Option func(*Service)

// WithDefaultAllowSet sets the allow-set used when a request carries none.
func WithDefaultAllowSet(a *concept.AllowSet) Option {
	return func(s *Service) { s.allow = a }
}

// WithNormalizer replaces the default identifier table.
func WithNormalizer(n *concept.Normalizer) Option {
	return func(s *Service) {
		if n != nil {
			s.normalizer = n
		}
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *prometheus.PipelineMetrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// Service runs the replacement pipeline. One record is in flight at a time.
type Service struct {
	source     Source
	allow      *concept.AllowSet
	normalizer *concept.Normalizer
	metrics    *prometheus.PipelineMetrics
	logger     logging.Logger
}

// NewService builds a Service reading from source.
func NewService(source Source, opts ...Option) *Service {
	s := &Service{
		source:     source,
		normalizer: concept.NewNormalizer(),
		metrics:    prometheus.NewNopPipelineMetrics(),
		logger:     logging.NewNopLogger(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Run opens req.Input and streams it through the pipeline into req.Sink.
// The sink is not closed. On a fatal error the returned summary still
// reflects the records written so far.
func (s *Service) Run(ctx context.Context, req RunRequest) (*RunSummary, error) {
	if req.Input == "" {
		return nil, errors.InvalidParam("input is required")
	}
	if req.Sink == nil {
		return nil, errors.InvalidParam("sink is required")
	}

	rc, err := s.source.Open(ctx, req.Input)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return s.run(ctx, rc, req, ModeStream)
}

// ReplaceText runs the pipeline over an in-memory offset body, as returned by
// a batch export, and returns the replaced articles. A non-negative expected
// is checked against the number of records read.
func (s *Service) ReplaceText(ctx context.Context, body string, expected int) ([]ReplacedArticle, *RunSummary, error) {
	sink := NewMemorySink()
	req := RunRequest{Input: "inline", Sink: sink}
	if expected >= 0 {
		req.ExpectedCount = &expected
	}
	summary, err := s.run(ctx, strings.NewReader(body), req, ModeBatch)
	return sink.Articles(), summary, err
}

func (s *Service) run(ctx context.Context, r io.Reader, req RunRequest, mode string) (summary *RunSummary, err error) {
	runID := uuid.NewString()
	summary = newSummary(runID, req.Input)
	logger := s.logger.With(logging.String("run_id", runID), logging.String("input", req.Input))

	allow := req.AllowSet
	if allow == nil {
		allow = s.allow
	}

	s.metrics.RunsActive.WithLabelValues(mode).Inc()
	defer func() {
		s.metrics.RunsActive.WithLabelValues(mode).Dec()
		summary.Duration = time.Since(summary.StartedAt)
		prometheus.RecordRun(s.metrics, mode, err, summary.Duration)
	}()

	logger.Info("replacement run started",
		logging.Bool("strict", req.Strict),
		logging.Int("allow_set_size", allow.Len()),
		logging.Bool("relevance", req.Relevance != nil))

	reader := article.NewReader(r, article.WithLogger(logger.Named("reader")))
	defer func() {
		summary.Reader = reader.Stats()
		s.recordReaderStats(req.Input, summary.Reader)
	}()

	for {
		rec, nerr := reader.Next(ctx)
		if nerr == io.EOF {
			break
		}
		if nerr != nil {
			if s.tolerate(nerr, req.Strict, summary, logger) {
				continue
			}
			return summary, nerr
		}

		var year string
		if req.Relevance != nil {
			y, ok := req.Relevance.Year(rec.PMID)
			if !ok {
				summary.SkippedIrrelevant++
				s.metrics.RecordsSkipped.WithLabelValues("irrelevant").Inc()
				continue
			}
			year = y
		}

		start := time.Now()
		text, spans, rerr := s.replace(rec, allow, summary)
		s.metrics.RecordDuration.WithLabelValues().Observe(time.Since(start).Seconds())
		if rerr != nil {
			if s.tolerate(rerr, req.Strict, summary, logger.With(logging.PMID(rec.PMID))) {
				continue
			}
			return summary, rerr
		}

		out := ReplacedArticle{RunID: runID, PMID: rec.PMID, Year: year, Text: text, Spans: spans}
		if werr := req.Sink.Write(ctx, out); werr != nil {
			logger.Error("sink write failed", logging.PMID(rec.PMID), logging.Err(werr))
			return summary, werr
		}
		summary.Written++
		summary.SpansApplied += int64(spans)
		s.metrics.RecordsWritten.WithLabelValues().Inc()
		s.metrics.SpansApplied.WithLabelValues().Add(float64(spans))
	}

	if req.ExpectedCount != nil {
		emitted := int(reader.Stats().RecordsEmitted)
		if cerr := article.ExpectCount(*req.ExpectedCount, emitted); cerr != nil {
			logger.Error("record count mismatch",
				logging.Int("expected", *req.ExpectedCount), logging.Int("emitted", emitted))
			return summary, cerr
		}
	}

	logger.Info("replacement run finished",
		logging.Int64("written", summary.Written),
		logging.Int64("skipped_structural", summary.SkippedStructural),
		logging.Int64("skipped_irrelevant", summary.SkippedIrrelevant))
	return summary, nil
}

// tolerate logs a structural error and reports whether the run may go on.
func (s *Service) tolerate(err error, strict bool, summary *RunSummary, logger logging.Logger) bool {
	if strict || !errors.IsStructural(err) {
		return false
	}
	summary.SkippedStructural++
	s.metrics.RecordsSkipped.WithLabelValues(string(errors.GetCode(err))).Inc()
	logger.Warn("skipping malformed record", logging.Err(err))
	return true
}

// ReplaceRecord filters, normalizes and splices one record with the default
// normalizer. It returns the replaced text and the number of distinct spans
// applied.
func (s *Service) ReplaceRecord(rec *article.ArticleRecord, allow *concept.AllowSet) (string, int, error) {
	return s.replace(rec, allow, nil)
}

func (s *Service) replace(rec *article.ArticleRecord, allow *concept.AllowSet, summary *RunSummary) (string, int, error) {
	total := rec.TextLen()
	set := domain.NewSpanSet()
	for _, ann := range rec.Annotations {
		v := concept.Evaluate(ann, total, allow)
		var span domain.NormalizedSpan
		if v == concept.Accepted {
			span = domain.NormalizedSpan{Start: ann.Start, End: ann.End, Token: s.normalizer.Normalize(ann.Category, ann.RawID)}
			// The filter only bounds Start; a span running past the text is dropped too.
			if !span.Fits(total) {
				v = concept.RejectedOutOfBounds
			}
		}
		s.metrics.AnnotationsEvaluated.WithLabelValues(v.String()).Inc()
		if summary != nil {
			summary.Verdicts[v.String()]++
		}
		if v != concept.Accepted {
			continue
		}
		set.Add(span.Start, span.End, span.Token)
	}

	spans := set.Spans()
	text, err := domain.Splice(rec.Text(), spans)
	if err != nil {
		return "", 0, errors.Wrap(err, errors.CodeUnknown, "failed to splice record").WithDetail("pmid=" + rec.PMID)
	}
	return text, set.Len(), nil
}

func (s *Service) recordReaderStats(input string, st article.Stats) {
	s.metrics.LinesRead.WithLabelValues(input).Add(float64(st.LinesRead))
	s.metrics.RecordsEmitted.WithLabelValues(input).Add(float64(st.RecordsEmitted))
	s.metrics.UnrecognizedLines.WithLabelValues(input).Add(float64(st.UnrecognizedLines))
	s.metrics.MalformedRecords.WithLabelValues(input).Add(float64(st.MalformedRecords))
}

//Personal.AI order the ending
