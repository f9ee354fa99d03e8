package repositories

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/pubconcept/internal/domain/concept"
	infraNeo4j "github.com/turtacn/pubconcept/internal/infrastructure/database/neo4j"
	"github.com/turtacn/pubconcept/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/pubconcept/pkg/errors"
)

// MockInfraDriver runs the work function against a canned transaction.
type MockInfraDriver struct {
	mock.Mock
	tx *MockInfraTransaction
}

func (m *MockInfraDriver) ExecuteRead(ctx context.Context, work infraNeo4j.TransactionWork) (any, error) {
	m.Called(ctx)
	res, err := work(m.tx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "neo4j read failed")
	}
	return res, nil
}

func (m *MockInfraDriver) ExecuteWrite(ctx context.Context, work infraNeo4j.TransactionWork) (any, error) {
	m.Called(ctx)
	res, err := work(m.tx)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "neo4j write failed")
	}
	return res, nil
}

func (m *MockInfraDriver) HealthCheck(ctx context.Context) error { return m.Called(ctx).Error(0) }
func (m *MockInfraDriver) Close(ctx context.Context) error { return m.Called(ctx).Error(0) }

type MockInfraTransaction struct {
	mock.Mock
}

func (m *MockInfraTransaction) Run(ctx context.Context, cypher string, params map[string]any) (infraNeo4j.Result, error) {
	args := m.Called(ctx, cypher, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(infraNeo4j.Result), args.Error(1)
}

type MockResult struct {
	Records []*neo4j.Record
	pos     int
}

func (m *MockResult) Next(context.Context) bool {
	if m.pos < len(m.Records) {
		m.pos++
		return true
	}
	return false
}

func (m *MockResult) Record() *neo4j.Record { return m.Records[m.pos-1] }
func (m *MockResult) Err() error { return nil }
func (m *MockResult) Consume(context.Context) (neo4j.ResultSummary, error) {
	return nil, nil
}

func descriptorRecord(ui, label string) *neo4j.Record {
	return &neo4j.Record{Keys: []string{"ui", "label"}, Values: []any{ui, label}}
}

func newRepo() (*MeshRepository, *MockInfraDriver, *MockInfraTransaction) {
	tx := new(MockInfraTransaction)
	d := &MockInfraDriver{tx: tx}
	d.On("ExecuteRead", mock.Anything).Return()
	d.On("ExecuteWrite", mock.Anything).Return()
	return NewMeshRepository(d, nil), d, tx
}

func TestMeshRepository_Descendants(t *testing.T) {
	repo, _, tx := newRepo()
	tx.On("Run", mock.Anything, descendantsQuery, map[string]any{"ui": "D012888"}).
		Return(&MockResult{Records: []*neo4j.Record{
			descriptorRecord("D019292", "Skin Diseases, Metabolic"),
			descriptorRecord("D020294", "Skin Diseases, Vascular"),
		}}, nil)

	got, err := repo.Descendants(context.Background(), "D012888")
	require.NoError(t, err)
	assert.Equal(t, []concept.Descriptor{
		{UI: "D019292", Label: "Skin Diseases, Metabolic"},
		{UI: "D020294", Label: "Skin Diseases, Vascular"},
	}, got)
}

func TestMeshRepository_DescendantsOfLeaf(t *testing.T) {
	repo, _, tx := newRepo()
	tx.On("Run", mock.Anything, descendantsQuery, mock.Anything).Return(&MockResult{}, nil)

	got, err := repo.Descendants(context.Background(), "D000069295")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMeshRepository_DescendantsQueryFails(t *testing.T) {
	repo, _, tx := newRepo()
	tx.On("Run", mock.Anything, descendantsQuery, mock.Anything).Return(nil, fmt.Errorf("connection reset"))

	_, err := repo.Descendants(context.Background(), "D012888")
	assert.True(t, errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func TestMeshRepository_Lookup(t *testing.T) {
	repo, _, tx := newRepo()
	tx.On("Run", mock.Anything, lookupQuery, map[string]any{"ui": "D009369"}).
		Return(&MockResult{Records: []*neo4j.Record{descriptorRecord("D009369", "Neoplasms")}}, nil)
	tx.On("Run", mock.Anything, lookupQuery, map[string]any{"ui": "D999999"}).
		Return(&MockResult{}, nil)

	d, err := repo.Lookup(context.Background(), "D009369")
	require.NoError(t, err)
	assert.Equal(t, "Neoplasms", d.Label)

	_, err = repo.Lookup(context.Background(), "D999999")
	assert.True(t, errors.IsCode(err, errors.ErrCodeDescriptorNotFound))
	assert.Contains(t, err.Error(), "D999999")
}

func TestMeshRepository_QueriesAreTimed(t *testing.T) {
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{Namespace: "pubconcept"}, nil)
	require.NoError(t, err)

	tx := new(MockInfraTransaction)
	d := &MockInfraDriver{tx: tx}
	d.On("ExecuteRead", mock.Anything).Return()
	repo := NewMeshRepository(d, nil, WithMetrics(prometheus.NewPipelineMetrics(collector)))
	tx.On("Run", mock.Anything, descendantsQuery, mock.Anything).Return(&MockResult{}, nil)

	_, err = repo.Descendants(context.Background(), "D012888")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	collector.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `pubconcept_graph_query_duration_seconds_count{query="descendants"} 1`)
}

func TestMeshRepository_UpsertDescriptor(t *testing.T) {
	repo, d, tx := newRepo()
	tx.On("Run", mock.Anything, upsertDescriptorQuery, mock.MatchedBy(func(p map[string]any) bool {
		trees, ok := p["trees"].([]map[string]any)
		return ok && p["ui"] == "D019292" && len(trees) == 1 && trees[0]["parent"] == "C17.800.849"
	})).Return(&MockResult{}, nil)

	err := repo.UpsertDescriptor(context.Background(),
		concept.Descriptor{UI: "D019292", Label: "Skin Diseases, Metabolic"},
		[]concept.TreePosition{concept.NewTreePosition("C17.800.849.617")})
	require.NoError(t, err)
	d.AssertCalled(t, "ExecuteWrite", mock.Anything)

	err = repo.UpsertDescriptor(context.Background(), concept.Descriptor{UI: "bogus"}, nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDescriptorInvalid))
}

func TestMapDescriptor_NullLabel(t *testing.T) {
	d, err := mapDescriptor(&neo4j.Record{Keys: []string{"ui", "label"}, Values: []any{"D1", nil}})
	require.NoError(t, err)
	assert.Equal(t, concept.Descriptor{UI: "D1"}, d)

	_, err = mapDescriptor(&neo4j.Record{Keys: []string{"x"}, Values: []any{1}})
	assert.Error(t, err)
}

//Personal.AI order the ending
