package concept

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/pubconcept/internal/domain/article"
)

func ann(start int, category, id string) article.RawAnnotation {
	return article.RawAnnotation{Start: start, End: start + 1, Category: category, RawID: id}
}

func TestEvaluate_RuleOrder(t *testing.T) {
	allow := NewAllowSet(Pair{"Gene", "1019"})

	cases := []struct {
		name  string
		ann   article.RawAnnotation
		allow *AllowSet
		want  Verdict
	}{
		{"accepted without allow-set", ann(0, "Disease", "MESH:D001"), nil, Accepted},
		{"start at length", ann(100, "Gene", "1019"), nil, RejectedOutOfBounds},
		{"start beyond length", ann(250, "Species", "9606"), nil, RejectedOutOfBounds},
		{"human species", ann(0, "Species", "9606"), nil, RejectedHumanSpecies},
		{"mouse species", ann(0, "Species", "10090"), nil, Accepted},
		{"dna mutation", ann(0, "DNAMutation", "c.123A>G"), nil, RejectedMutation},
		{"protein mutation", ann(0, "ProteinMutation", "p.V600E"), nil, RejectedMutation},
		{"empty id", ann(0, "Chemical", ""), nil, RejectedPlaceholderID},
		{"dash id", ann(0, "Chemical", "-"), nil, RejectedPlaceholderID},
		{"None id", ann(0, "Chemical", "None"), nil, RejectedPlaceholderID},
		{"allowed gene", ann(0, "Gene", "1019"), allow, Accepted},
		{"gene not allowed", ann(0, "Gene", "1020"), allow, RejectedNotAllowed},
		{"category must match too", ann(0, "Chemical", "1019"), allow, RejectedNotAllowed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Evaluate(tc.ann, 100, tc.allow)
			assert.Equal(t, tc.want, got, "got %s", got)
			assert.Equal(t, tc.want == Accepted, Qualifies(tc.ann, 100, tc.allow))
		})
	}
}

func TestEvaluate_HumanSpeciesIgnoresAllowSet(t *testing.T) {
	allow := NewAllowSet(Pair{"Species", "9606"})
	assert.False(t, Qualifies(ann(0, "Species", "9606"), 10, allow))
}

func TestEvaluate_MutationIgnoresAllowSet(t *testing.T) {
	allow := NewAllowSet(Pair{"DNAMutation", "rs123"})
	assert.False(t, Qualifies(ann(0, "DNAMutation", "rs123"), 10, allow))
}

func TestEvaluate_MultiIDMatchesAny(t *testing.T) {
	a := ann(0, "Gene", "1019;1021")

	assert.True(t, Qualifies(a, 10, NewAllowSet(Pair{"Gene", "1019"})))
	assert.True(t, Qualifies(a, 10, NewAllowSet(Pair{"Gene", "1021"})))
	assert.False(t, Qualifies(a, 10, NewAllowSet(Pair{"Gene", "1020"})))
	assert.False(t, Qualifies(a, 10, NewAllowSet()), "an empty set admits nothing")
}

func TestVerdict_String(t *testing.T) {
	seen := map[string]bool{}
	for _, v := range Verdicts() {
		s := v.String()
		assert.NotEqual(t, "unknown", s)
		assert.False(t, seen[s], "duplicate label %s", s)
		seen[s] = true
	}
	assert.Equal(t, "unknown", Verdict(99).String())
}

//Personal.AI order the ending
