package concept

import (
	"strings"

	"github.com/turtacn/pubconcept/internal/domain/article"
)

// Verdict is the outcome of evaluating one annotation. Anything other than
// Accepted names the first rule that rejected it.
type Verdict uint8

const (
	Accepted Verdict = iota
	RejectedOutOfBounds
	RejectedHumanSpecies
	RejectedMutation
	RejectedPlaceholderID
	RejectedNotAllowed
)

// String is used as the metric label.
func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case RejectedOutOfBounds:
		return "out_of_bounds"
	case RejectedHumanSpecies:
		return "human_species"
	case RejectedMutation:
		return "mutation"
	case RejectedPlaceholderID:
		return "placeholder_id"
	case RejectedNotAllowed:
		return "not_allowed"
	default:
		return "unknown"
	}
}

// Verdicts lists every verdict in rule order.
func Verdicts() []Verdict {
	return []Verdict{Accepted, RejectedOutOfBounds, RejectedHumanSpecies, RejectedMutation, RejectedPlaceholderID, RejectedNotAllowed}
}

const (
	humanTaxon   = "9606"
	speciesCat   = "Species"
	mutationMark = "Mutation"
	multiIDSep   = ";"
)

func isPlaceholderID(id string) bool {
	return id == "" || id == "-" || id == "None"
}

// Evaluate applies the exclusion rules in order: bounds, human species,
// mutation categories, placeholder identifiers, then the allow-set. totalLen
// is len(title+abstract) in code points.
func Evaluate(ann article.RawAnnotation, totalLen int, allow *AllowSet) Verdict {
	if ann.Start >= totalLen {
		return RejectedOutOfBounds
	}
	if ann.Category == speciesCat && ann.RawID == humanTaxon {
		return RejectedHumanSpecies
	}
	if strings.Contains(ann.Category, mutationMark) {
		return RejectedMutation
	}
	if isPlaceholderID(ann.RawID) {
		return RejectedPlaceholderID
	}
	if allow != nil && !allowsAny(allow, ann.Category, ann.RawID) {
		return RejectedNotAllowed
	}
	return Accepted
}

// Qualifies reports whether ann should be replaced.
func Qualifies(ann article.RawAnnotation, totalLen int, allow *AllowSet) bool {
	return Evaluate(ann, totalLen, allow) == Accepted
}

// allowsAny matches a multi-identifier field if any one of its ids is allowed.
func allowsAny(allow *AllowSet, category, rawID string) bool {
	for _, id := range strings.Split(rawID, multiIDSep) {
		if allow.Contains(category, id) {
			return true
		}
	}
	return false
}

//Personal.AI order the ending
