package concept

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Table(t *testing.T) {
	cases := []struct {
		category, id, want string
	}{
		{"Gene", "1019", " NCBIGene1019 "},
		{"Gene", "1019;1021", " NCBIGene1019  NCBIGene1021 "},
		{"Disease", "MESH:D012175", " MESHD012175 "},
		{"Chemical", "MESH:C000123;MESH:D001", " MESHC000123  MESHD001 "},
		{"SNP", "RS113488022", " SNPrs113488022 "},
		{"Species", "10090", " NCBITaxon10090 "},
		{"CellLine", "CVCL:0030", " CVCL0030 "},
		{"DomainMotif", "plain", " plain "},
	}
	for _, tc := range cases {
		t.Run(tc.category+"/"+tc.id, func(t *testing.T) {
			assert.Equal(t, tc.want, Normalize(tc.category, tc.id))
		})
	}
}

func TestNormalize_EveryPiecePadded(t *testing.T) {
	got := Normalize("Gene", "1;2;3")
	assert.Equal(t, 3, strings.Count(got, "NCBIGene"))
	assert.True(t, strings.HasPrefix(got, " "))
	assert.True(t, strings.HasSuffix(got, " "))
	assert.Equal(t, " NCBIGene1  NCBIGene2  NCBIGene3 ", got)
}

func TestNormalizer_WithRuleIsAdditive(t *testing.T) {
	base := NewNormalizer()
	ext := base.WithRule("CellLine", Prefix("Cellosaurus"))

	assert.Equal(t, " CellosaurusCVCL:0030 ", ext.Normalize("CellLine", "CVCL:0030"))
	assert.Equal(t, " CVCL0030 ", base.Normalize("CellLine", "CVCL:0030"), "receiver is unchanged")
	assert.Equal(t, " NCBIGene7 ", ext.Normalize("Gene", "7"), "existing rules survive")
}

func TestRules(t *testing.T) {
	assert.Equal(t, "SNPrs1", LowerPrefix("SNP")("RS1"))
	assert.Equal(t, "MESHD1", StripColons("MESH:D1"))
	assert.Equal(t, "ab", StripColons("a::b"))
}

//Personal.AI order the ending
