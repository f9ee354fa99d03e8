package prometheus

import (
	"strconv"
	"time"
)

// PipelineMetrics holds every metric pubconcept exports.
type PipelineMetrics struct {
	// Reader
	LinesRead         CounterVec
	RecordsEmitted    CounterVec
	UnrecognizedLines CounterVec
	MalformedRecords  CounterVec

	// Filter / splice
	AnnotationsEvaluated CounterVec
	SpansApplied         CounterVec
	RecordsWritten       CounterVec
	RecordsSkipped       CounterVec
	RecordDuration       HistogramVec

	// Runs
	RunsTotal   CounterVec
	RunDuration HistogramVec
	RunsActive  GaugeVec

	// Infrastructure
	SinkWriteDuration  HistogramVec
	SinkErrors         CounterVec
	CacheHits          CounterVec
	CacheMisses        CounterVec
	GraphQueryDuration HistogramVec

	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
}

var (
	DefaultRecordDurationBuckets = []float64{.0001, .0005, .001, .005, .01, .05, .1, .5}
	DefaultRunDurationBuckets    = []float64{.1, 1, 10, 60, 300, 900, 3600, 14400}
	DefaultIODurationBuckets     = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 5}
)

// NewPipelineMetrics registers all metrics on collector.
func NewPipelineMetrics(collector MetricsCollector) *PipelineMetrics {
	m := &PipelineMetrics{}

	m.LinesRead = collector.RegisterCounter("reader_lines_total", "Offset file lines read", "source")
	m.RecordsEmitted = collector.RegisterCounter("reader_records_total", "Records assembled by the reader", "source")
	m.UnrecognizedLines = collector.RegisterCounter("reader_unrecognized_lines_total", "Lines matching no pattern", "source")
	m.MalformedRecords = collector.RegisterCounter("reader_malformed_records_total", "Records dropped for structural defects", "source")

	m.AnnotationsEvaluated = collector.RegisterCounter("annotations_total", "Annotations evaluated by verdict", "verdict")
	m.SpansApplied = collector.RegisterCounter("spans_applied_total", "Distinct spans spliced into text")
	m.RecordsWritten = collector.RegisterCounter("records_written_total", "Replaced records written to sinks")
	m.RecordsSkipped = collector.RegisterCounter("records_skipped_total", "Records not written", "reason")
	m.RecordDuration = collector.RegisterHistogram("record_duration_seconds", "Per-record filter, normalize and splice time", DefaultRecordDurationBuckets)

	m.RunsTotal = collector.RegisterCounter("runs_total", "Replacement runs", "mode", "status")
	m.RunDuration = collector.RegisterHistogram("run_duration_seconds", "Replacement run duration", DefaultRunDurationBuckets, "mode")
	m.RunsActive = collector.RegisterGauge("runs_active", "Replacement runs in progress", "mode")

	m.SinkWriteDuration = collector.RegisterHistogram("sink_write_duration_seconds", "Sink write latency", DefaultIODurationBuckets, "sink")
	m.SinkErrors = collector.RegisterCounter("sink_errors_total", "Sink write failures", "sink")
	m.CacheHits = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMisses = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.GraphQueryDuration = collector.RegisterHistogram("graph_query_duration_seconds", "MeSH graph query duration", DefaultIODurationBuckets, "query")

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", nil, "method", "path")

	return m
}

// NewNopPipelineMetrics returns metrics that record nothing.
func NewNopPipelineMetrics() *PipelineMetrics {
	return NewPipelineMetrics(NewNopCollector())
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func RecordHTTPRequest(m *PipelineMetrics, method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

func RecordRun(m *PipelineMetrics, mode string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.RunsTotal.WithLabelValues(mode, status).Inc()
	m.RunDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func RecordSinkWrite(m *PipelineMetrics, sink string, duration time.Duration, err error) {
	m.SinkWriteDuration.WithLabelValues(sink).Observe(duration.Seconds())
	if err != nil {
		m.SinkErrors.WithLabelValues(sink).Inc()
	}
}

func RecordCacheAccess(m *PipelineMetrics, cache string, hit bool) {
	if hit {
		m.CacheHits.WithLabelValues(cache).Inc()
	} else {
		m.CacheMisses.WithLabelValues(cache).Inc()
	}
}

//Personal.AI order the ending
