package allowset

import (
	"context"
	"sort"

	"github.com/turtacn/pubconcept/internal/domain/concept"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// DefaultCategories are the annotation categories MeSH descriptors map to.
var DefaultCategories = []string{"Disease", "Chemical"}

// Builder expands descriptor roots into allow-sets.
type Builder struct {
	resolver concept.DescendantResolver
	logger   logging.Logger
}

// NewBuilder returns a Builder over resolver.
func NewBuilder(resolver concept.DescendantResolver, logger logging.Logger) *Builder {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Builder{resolver: resolver, logger: logger}
}

// Expand returns the sorted union of roots and all their descendants.
func (b *Builder) Expand(ctx context.Context, roots []string) ([]string, error) {
	if len(roots) == 0 {
		return nil, errors.InvalidParam("at least one descriptor is required")
	}
	seen := make(map[string]struct{})
	for _, root := range roots {
		if err := concept.ValidateDescriptor(root); err != nil {
			return nil, err
		}
		seen[root] = struct{}{}

		desc, err := b.resolver.Descendants(ctx, root)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeUnknown, "failed to resolve descendants").WithDetail(root)
		}
		for _, d := range desc {
			seen[d.UI] = struct{}{}
		}
		b.logger.Info("resolved descriptor", logging.String("ui", root), logging.Int("descendants", len(desc)))
	}

	out := make([]string, 0, len(seen))
	for ui := range seen {
		out = append(out, ui)
	}
	sort.Strings(out)
	return out, nil
}

// FromDescriptors expands roots and emits (category, "MESH:"+ui) for every
// descriptor and every category. Empty categories means DefaultCategories.
func (b *Builder) FromDescriptors(ctx context.Context, roots, categories []string) (*concept.AllowSet, error) {
	if len(categories) == 0 {
		categories = DefaultCategories
	}
	uis, err := b.Expand(ctx, roots)
	if err != nil {
		return nil, err
	}
	set := concept.NewAllowSet()
	for _, ui := range uis {
		for _, c := range categories {
			set.Add(c, concept.MeSHPrefix+ui)
		}
	}
	return set, nil
}

// Check validates ui and returns its descriptor.
func (b *Builder) Check(ctx context.Context, ui string) (*concept.Descriptor, error) {
	if err := concept.ValidateDescriptor(ui); err != nil {
		return nil, err
	}
	return b.resolver.Lookup(ctx, ui)
}

//Personal.AI order the ending
