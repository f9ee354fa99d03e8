package concept

import (
	"strings"
)

// Rule formats a single identifier, without padding.
type Rule func(id string) string

// Prefix returns a Rule that prepends p.
func Prefix(p string) Rule {
	return func(id string) string { return p + id }
}

// LowerPrefix returns a Rule that prepends p to the lowercased id.
func LowerPrefix(p string) Rule {
	return func(id string) string { return p + strings.ToLower(id) }
}

// StripColons is the fallback rule: "MESH:D015759" becomes "MESHD015759".
func StripColons(id string) string {
	return strings.ReplaceAll(id, ":", "")
}

// Normalizer maps (category, raw identifier field) to a replacement token.
// The zero value is not usable; start from NewNormalizer.
type Normalizer struct {
	rules    map[string]Rule
	fallback Rule
}

// NewNormalizer returns a Normalizer with the default table:
//
//	Gene    -> NCBIGene<id>
//	SNP     -> SNP<lowercase id>
//	Species -> NCBITaxon<id>
//	other   -> <id without ':'>
func NewNormalizer() *Normalizer {
	return &Normalizer{
		rules: map[string]Rule{
			"Gene":    Prefix("NCBIGene"),
			"SNP":     LowerPrefix("SNP"),
			"Species": Prefix("NCBITaxon"),
		},
		fallback: StripColons,
	}
}

// WithRule returns a copy of n with rule registered for category. The
// receiver is not modified.
func (n *Normalizer) WithRule(category string, rule Rule) *Normalizer {
	rules := make(map[string]Rule, len(n.rules)+1)
	for k, v := range n.rules {
		rules[k] = v
	}
	rules[category] = rule
	return &Normalizer{rules: rules, fallback: n.fallback}
}

// Normalize splits rawID on ';', formats each piece by category, pads each
// with one space on both sides and concatenates them in order.
func (n *Normalizer) Normalize(category, rawID string) string {
	rule, ok := n.rules[category]
	if !ok {
		rule = n.fallback
	}
	ids := strings.Split(rawID, multiIDSep)
	var sb strings.Builder
	for _, id := range ids {
		sb.WriteByte(' ')
		sb.WriteString(rule(id))
		sb.WriteByte(' ')
	}
	return sb.String()
}

var defaultNormalizer = NewNormalizer()

// Normalize uses the default table.
func Normalize(category, rawID string) string {
	return defaultNormalizer.Normalize(category, rawID)
}

//Personal.AI order the ending
