// Package replacement splices normalized concept tokens into article text.
package replacement

import (
	"fmt"
	"sort"
)

// NormalizedSpan replaces text[Start:End] (code points) with Token.
type NormalizedSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Token string `json:"token"`
}

func (s NormalizedSpan) String() string {
	return fmt.Sprintf("[%d,%d)%q", s.Start, s.End, s.Token)
}

// valid reports 0 <= Start < End <= textLen.
func (s NormalizedSpan) valid(textLen int) bool {
	return s.Start >= 0 && s.Start < s.End && s.End <= textLen
}

// Fits reports whether Splice would apply s to a text of textLen code points.
func (s NormalizedSpan) Fits(textLen int) bool {
	return s.valid(textLen)
}

func less(a, b NormalizedSpan) bool {
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End < b.End
	}
	return a.Token < b.Token
}

// SpanSet accumulates the spans of one record. Exact duplicates collapse.
type SpanSet struct {
	spans map[NormalizedSpan]struct{}
}

// NewSpanSet returns an empty set.
func NewSpanSet() *SpanSet {
	return &SpanSet{spans: make(map[NormalizedSpan]struct{})}
}

// Add inserts a span and reports whether it was new.
func (s *SpanSet) Add(start, end int, token string) bool {
	k := NormalizedSpan{Start: start, End: end, Token: token}
	if _, ok := s.spans[k]; ok {
		return false
	}
	s.spans[k] = struct{}{}
	return true
}

// Len is the number of distinct spans.
func (s *SpanSet) Len() int {
	return len(s.spans)
}

// Spans returns the distinct spans ordered by start, end, token.
func (s *SpanSet) Spans() []NormalizedSpan {
	out := make([]NormalizedSpan, 0, len(s.spans))
	for k := range s.spans {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

//Personal.AI order the ending
