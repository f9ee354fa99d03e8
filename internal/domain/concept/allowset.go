// Package concept decides which annotations qualify for replacement and maps
// their identifiers to normalized tokens.
package concept

import (
	"sort"
)

// Pair is one (category, identifier) entry of an allow-set.
type Pair struct {
	Category string `json:"category"`
	ID       string `json:"id"`
}

// AllowSet is the set of concepts a run may replace. A nil *AllowSet means no
// allow-set filtering; an empty non-nil set admits nothing.
type AllowSet struct {
	pairs map[Pair]struct{}
}

// NewAllowSet returns a set holding pairs.
func NewAllowSet(pairs ...Pair) *AllowSet {
	s := &AllowSet{pairs: make(map[Pair]struct{}, len(pairs))}
	for _, p := range pairs {
		s.Add(p.Category, p.ID)
	}
	return s
}

// Add inserts (category, id).
func (s *AllowSet) Add(category, id string) {
	if s.pairs == nil {
		s.pairs = make(map[Pair]struct{})
	}
	s.pairs[Pair{Category: category, ID: id}] = struct{}{}
}

// Contains reports whether (category, id) is in the set. A nil set contains
// everything.
func (s *AllowSet) Contains(category, id string) bool {
	if s == nil {
		return true
	}
	_, ok := s.pairs[Pair{Category: category, ID: id}]
	return ok
}

// Merge adds every pair of other.
func (s *AllowSet) Merge(other *AllowSet) {
	if other == nil {
		return
	}
	for p := range other.pairs {
		s.Add(p.Category, p.ID)
	}
}

// Len is the number of pairs. A nil set has length 0.
func (s *AllowSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.pairs)
}

// Pairs returns the entries sorted by category then id.
func (s *AllowSet) Pairs() []Pair {
	if s == nil {
		return nil
	}
	out := make([]Pair, 0, len(s.pairs))
	for p := range s.pairs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].ID < out[j].ID
	})
	return out
}

//Personal.AI order the ending
