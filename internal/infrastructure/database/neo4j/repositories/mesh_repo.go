// Package repositories holds Neo4j-backed repositories.
package repositories

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/pubconcept/internal/domain/concept"
	driver "github.com/turtacn/pubconcept/internal/infrastructure/database/neo4j"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// The MeSH graph is loaded from the NLM RDF dump as
//
//	(:Descriptor {ui, label})-[:TREE_NUMBER]->(:TreeNumber {id})
//	(:TreeNumber)-[:PARENT_TREE_NUMBER]->(:TreeNumber)
//
// A descriptor may sit at several tree positions; its descendants are the
// descriptors under any of them.
const (
	descendantsQuery = `
		MATCH (root:Descriptor {ui: $ui})-[:TREE_NUMBER]->(:TreeNumber)
		      <-[:PARENT_TREE_NUMBER*1..]-(:TreeNumber)<-[:TREE_NUMBER]-(d:Descriptor)
		WHERE d.ui <> $ui
		RETURN DISTINCT d.ui AS ui, d.label AS label
		ORDER BY ui
	`
	lookupQuery = `
		MATCH (d:Descriptor {ui: $ui})
		RETURN d.ui AS ui, d.label AS label
	`
	upsertDescriptorQuery = `
		MERGE (d:Descriptor {ui: $ui})
		SET d.label = $label
		WITH d
		UNWIND $trees AS tree
		MERGE (t:TreeNumber {id: tree.id})
		MERGE (d)-[:TREE_NUMBER]->(t)
		FOREACH (pid IN CASE WHEN tree.parent = '' THEN [] ELSE [tree.parent] END |
			MERGE (p:TreeNumber {id: pid})
			MERGE (t)-[:PARENT_TREE_NUMBER]->(p))
	`
)

// MeshRepository resolves MeSH descriptors from Neo4j.
type MeshRepository struct {
	driver  driver.DriverInterface
	log     logging.Logger
	metrics *prometheus.PipelineMetrics
}

// MeshOption configures a MeshRepository.
type MeshOption func(*MeshRepository)

// WithMetrics times every graph query.
func WithMetrics(m *prometheus.PipelineMetrics) MeshOption {
	return func(r *MeshRepository) {
		if m != nil {
			r.metrics = m
		}
	}
}

// NewMeshRepository returns a repository over d.
func NewMeshRepository(d driver.DriverInterface, log logging.Logger, opts ...MeshOption) *MeshRepository {
	if log == nil {
		log = logging.NewNopLogger()
	}
	r := &MeshRepository{driver: d, log: log, metrics: prometheus.NewNopPipelineMetrics()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Descendants returns every descriptor below ui, ordered by ui.
func (r *MeshRepository) Descendants(ctx context.Context, ui string) ([]concept.Descriptor, error) {
	defer prometheus.NewTimer(r.metrics.GraphQueryDuration.WithLabelValues("descendants")).ObserveDuration()
	res, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		result, err := tx.Run(ctx, descendantsQuery, map[string]any{"ui": ui})
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, result, mapDescriptor)
	})
	if err != nil {
		return nil, err
	}
	descs, _ := res.([]concept.Descriptor)
	r.log.Debug("descendants resolved", logging.String("ui", ui), logging.Int("count", len(descs)))
	return descs, nil
}

// Lookup returns ui's descriptor.
func (r *MeshRepository) Lookup(ctx context.Context, ui string) (*concept.Descriptor, error) {
	defer prometheus.NewTimer(r.metrics.GraphQueryDuration.WithLabelValues("lookup")).ObserveDuration()
	res, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		result, err := tx.Run(ctx, lookupQuery, map[string]any{"ui": ui})
		if err != nil {
			return nil, err
		}
		return driver.ExtractSingleRecord(ctx, result, mapDescriptor)
	})
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeNotFound) {
			return nil, errors.New(errors.ErrCodeDescriptorNotFound, "MeSH descriptor not found").WithDetail(ui)
		}
		return nil, err
	}
	d := res.(concept.Descriptor)
	return &d, nil
}

// UpsertDescriptor writes a descriptor and its tree positions.
func (r *MeshRepository) UpsertDescriptor(ctx context.Context, d concept.Descriptor, trees []concept.TreePosition) error {
	if err := concept.ValidateDescriptor(d.UI); err != nil {
		return err
	}
	params := make([]map[string]any, 0, len(trees))
	for _, t := range trees {
		params = append(params, map[string]any{"id": t.ID, "parent": t.Parent})
	}
	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		_, err := tx.Run(ctx, upsertDescriptorQuery, map[string]any{
			"ui":    d.UI,
			"label": d.Label,
			"trees": params,
		})
		return nil, err
	})
	return err
}

func mapDescriptor(rec *neo4j.Record) (concept.Descriptor, error) {
	ui, ok := rec.Get("ui")
	if !ok {
		return concept.Descriptor{}, fmt.Errorf("record has no ui column")
	}
	d := concept.Descriptor{}
	d.UI, _ = ui.(string)
	if label, ok := rec.Get("label"); ok && label != nil {
		d.Label, _ = label.(string)
	}
	return d, nil
}

var _ concept.DescendantResolver = (*MeshRepository)(nil)

//Personal.AI order the ending
