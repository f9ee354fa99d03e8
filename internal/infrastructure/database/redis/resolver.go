package redis

import (
	"context"
	"time"

	"github.com/turtacn/pubconcept/internal/domain/concept"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/pubconcept/pkg/errors"
)

const (
	descendantsKeyPrefix = "mesh:desc:"
	descriptorKeyPrefix  = "mesh:ui:"
	cacheName            = "mesh"
)

// CachingResolver fronts a DescendantResolver with the cache. MeSH is
// republished yearly, so entries live for the cache's TTL and can be dropped
// with Invalidate.
type CachingResolver struct {
	next    concept.DescendantResolver
	cache   Cache
	ttl     time.Duration
	metrics *prometheus.PipelineMetrics
	logger  logging.Logger
}

// NewCachingResolver wraps next. A zero ttl uses the cache default.
func NewCachingResolver(next concept.DescendantResolver, cache Cache, ttl time.Duration, metrics *prometheus.PipelineMetrics, log logging.Logger) *CachingResolver {
	if metrics == nil {
		metrics = prometheus.NewNopPipelineMetrics()
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &CachingResolver{next: next, cache: cache, ttl: ttl, metrics: metrics, logger: log}
}

// Descendants returns the cached descendants of ui, resolving on a miss.
func (r *CachingResolver) Descendants(ctx context.Context, ui string) ([]concept.Descriptor, error) {
	var out []concept.Descriptor
	hit := true
	err := r.cache.GetOrSet(ctx, descendantsKeyPrefix+ui, &out, r.ttl, func(ctx context.Context) (interface{}, error) {
		hit = false
		d, err := r.next.Descendants(ctx, ui)
		if err != nil {
			return nil, err
		}
		if d == nil {
			d = []concept.Descriptor{}
		}
		return d, nil
	})
	prometheus.RecordCacheAccess(r.metrics, cacheName, hit)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Lookup returns the cached descriptor for ui. Unknown descriptors are cached
// as nulls so repeated typos do not reach the graph.
func (r *CachingResolver) Lookup(ctx context.Context, ui string) (*concept.Descriptor, error) {
	var out concept.Descriptor
	hit := true
	err := r.cache.GetOrSet(ctx, descriptorKeyPrefix+ui, &out, r.ttl, func(ctx context.Context) (interface{}, error) {
		hit = false
		d, err := r.next.Lookup(ctx, ui)
		if errors.IsCode(err, errors.ErrCodeDescriptorNotFound) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return d, nil
	})
	prometheus.RecordCacheAccess(r.metrics, cacheName, hit)
	if err == ErrCacheMiss {
		return nil, errors.New(errors.ErrCodeDescriptorNotFound, "MeSH descriptor not found").WithDetail(ui)
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// Invalidate drops every cached MeSH entry.
func (r *CachingResolver) Invalidate(ctx context.Context) (int64, error) {
	n, err := r.cache.DeleteByPrefix(ctx, "mesh:")
	if err != nil {
		return n, errors.Wrap(err, errors.ErrCodeCacheError, "failed to invalidate MeSH cache")
	}
	r.logger.Info("MeSH cache invalidated", logging.Int64("keys", n))
	return n, nil
}

var _ concept.DescendantResolver = (*CachingResolver)(nil)

//Personal.AI order the ending
