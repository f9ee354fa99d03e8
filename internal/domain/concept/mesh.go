package concept

import (
	"context"
	"regexp"
	"strings"

	"github.com/turtacn/pubconcept/pkg/errors"
)

// MeSHPrefix is the vocabulary prefix PubTator uses for MeSH identifiers.
const MeSHPrefix = "MESH:"

var descriptorPattern = regexp.MustCompile(`^D(\d{6}|\d{9})$`)

// ValidateDescriptor checks a MeSH descriptor unique identifier such as
// D009369 or D000069295.
func ValidateDescriptor(ui string) error {
	if !descriptorPattern.MatchString(ui) {
		return errors.New(errors.ErrCodeDescriptorInvalid, "descriptor must be D followed by 6 or 9 digits").
			WithDetail(ui)
	}
	return nil
}

// Descriptor is one MeSH descriptor.
type Descriptor struct {
	UI    string `json:"ui"`
	Label string `json:"label"`
}

// TreePosition places a descriptor in the hierarchy. Parent is empty for a
// top-level tree number.
type TreePosition struct {
	ID     string
	Parent string
}

// ParentTreeNumber returns the tree number one level up, C04.588.274 ->
// C04.588, or "" for a top-level number such as C04.
func ParentTreeNumber(id string) string {
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		return id[:i]
	}
	return ""
}

// NewTreePosition places id under its parent tree number.
func NewTreePosition(id string) TreePosition {
	return TreePosition{ID: id, Parent: ParentTreeNumber(id)}
}

// DescendantResolver looks up the MeSH hierarchy.
type DescendantResolver interface {
	// Descendants returns every descriptor below ui, excluding ui itself.
	Descendants(ctx context.Context, ui string) ([]Descriptor, error)
	// Lookup returns ui's own descriptor, or a not-found error.
	Lookup(ctx context.Context, ui string) (*Descriptor, error)
}

//Personal.AI order the ending
