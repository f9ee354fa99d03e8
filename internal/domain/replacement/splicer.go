package replacement

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/turtacn/pubconcept/pkg/errors"
)

// Splice replaces each span of text with its token and copies the gaps
// between spans byte for byte. Offsets are code points; an invalid UTF-8 byte
// counts as one.
//
// Spans outside 0 <= Start < End <= len(text) are discarded, exact duplicates
// collapse, and the rest are applied in (Start, End, Token) order. Overlapping
// spans are a data-quality defect of the record and yield
// CodeOverlappingSpans; no repair is attempted. With no spans the text is
// returned unchanged.
func Splice(text string, spans []NormalizedSpan) (string, error) {
	if len(spans) == 0 {
		return text, nil
	}

	n := utf8.RuneCountInString(text)

	seen := make(map[NormalizedSpan]struct{}, len(spans))
	ordered := make([]NormalizedSpan, 0, len(spans))
	for _, s := range spans {
		if !s.valid(n) {
			continue
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		ordered = append(ordered, s)
	}
	if len(ordered) == 0 {
		return text, nil
	}
	sort.Slice(ordered, func(i, j int) bool { return less(ordered[i], ordered[j]) })

	var sb strings.Builder
	sb.Grow(len(text))
	cursor, pos, gap := 0, 0, 0
	advance := func(to int) {
		for ; cursor < to; cursor++ {
			_, w := utf8.DecodeRuneInString(text[pos:])
			pos += w
		}
	}
	var prev NormalizedSpan
	for i, s := range ordered {
		if i > 0 && s.Start < cursor {
			return "", errors.New(errors.CodeOverlappingSpans, "replacement spans overlap").
				WithDetail(fmt.Sprintf("%s and %s", prev, s))
		}
		advance(s.Start)
		sb.WriteString(text[gap:pos])
		sb.WriteString(s.Token)
		advance(s.End)
		gap = pos
		prev = s
	}
	sb.WriteString(text[gap:])
	return sb.String(), nil
}

//Personal.AI order the ending
