package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
)

func newTestDetector(topN int) RelationshipDetector {
	f := NewFingerprinter(0, nil, zap.NewNop())
	return NewRelationshipDetector(f, topN, zap.NewNop())
}

func TestDetectRelationships_OrdersCustomers(t *testing.T) {
	detector := newTestDetector(0)
	orders, customers := ordersCustomers()

	rels, err := detector.DetectRelationships(context.Background(), []*models.Dataset{orders, customers})
	require.NoError(t, err)
	require.NotEmpty(t, rels)

	best := rels[0]
	// customers.customer_id is near-unique, so it is the referenced TO side.
	assert.Equal(t, orders.ID, best.FromDataset)
	assert.Equal(t, customers.ID, best.ToDataset)
	assert.Equal(t, "customer_id", best.FromColumn)
	assert.Equal(t, "customer_id", best.ToColumn)
	assert.Equal(t, models.OneToMany, best.Type)

	// Orders reference c1..c3; customers hold c1..c3 plus c9. The smaller
	// value set has 3 values, all matched.
	assert.InDelta(t, 1.0, best.MatchScore, 1e-9)
	assert.Equal(t, 3, best.MatchingValues)
	assert.InDelta(t, 1.0, best.NameSimilarity, 1e-9)
	assert.True(t, best.AutoJoinRecommended)
}

func TestDetectRelationships_ScoreBounds(t *testing.T) {
	detector := newTestDetector(0)
	orders, customers := ordersCustomers()

	rels, err := detector.DetectRelationships(context.Background(), []*models.Dataset{orders, customers})
	require.NoError(t, err)

	for _, rel := range rels {
		assert.GreaterOrEqual(t, rel.MatchScore, 0.0)
		assert.LessOrEqual(t, rel.MatchScore, 1.0)
		assert.GreaterOrEqual(t, rel.Confidence, 0.0)
		assert.LessOrEqual(t, rel.Confidence, 1.0)
		assert.GreaterOrEqual(t, rel.NameSimilarity, 0.0)
		assert.LessOrEqual(t, rel.NameSimilarity, 1.0)
		assert.Greater(t, rel.MatchingValues, 0)
	}
}

func TestDetectRelationships_PartialOverlap(t *testing.T) {
	detector := newTestDetector(0)

	// Two of the three referenced customers exist: matchScore 2/3.
	orders := makeDataset("orders", []string{"order_id", "customer_id"}, [][]any{
		{"o1", "c1"},
		{"o2", "c2"},
		{"o3", "cX"},
	})
	customers := makeDataset("customers", []string{"customer_id", "name"}, [][]any{
		{"c1", "Acme"},
		{"c2", "Globex"},
		{"c3", "Initech"},
	})

	rels, err := detector.DetectRelationships(context.Background(), []*models.Dataset{orders, customers})
	require.NoError(t, err)
	require.NotEmpty(t, rels)

	best := rels[0]
	assert.Equal(t, "customer_id", best.FromColumn)
	assert.InDelta(t, 2.0/3.0, best.MatchScore, 1e-9)
	assert.Equal(t, 2, best.MatchingValues)
	assert.False(t, best.AutoJoinRecommended)
}

func TestDetectRelationships_OneToOne(t *testing.T) {
	detector := newTestDetector(0)

	a := makeDataset("users", []string{"user_id", "email"}, [][]any{
		{"u1", "a@x.test"},
		{"u2", "b@x.test"},
		{"u3", "c@x.test"},
	})
	b := makeDataset("profiles", []string{"user_id", "bio"}, [][]any{
		{"u1", "first"},
		{"u2", "second"},
		{"u3", "third"},
	})

	rels, err := detector.DetectRelationships(context.Background(), []*models.Dataset{a, b})
	require.NoError(t, err)
	require.NotEmpty(t, rels)
	assert.Equal(t, models.OneToOne, rels[0].Type)
	assert.InDelta(t, 1.0, rels[0].MatchScore, 1e-9)
}

func TestDetectRelationships_NoValueOverlap(t *testing.T) {
	detector := newTestDetector(0)

	a := makeDataset("alpha", []string{"id"}, [][]any{{"a1"}, {"a2"}})
	b := makeDataset("beta", []string{"id"}, [][]any{{"b1"}, {"b2"}})

	rels, err := detector.DetectRelationships(context.Background(), []*models.Dataset{a, b})
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestDetectRelationships_SingleDataset(t *testing.T) {
	detector := newTestDetector(0)
	orders, _ := ordersCustomers()

	rels, err := detector.DetectRelationships(context.Background(), []*models.Dataset{orders})
	require.NoError(t, err)
	assert.Empty(t, rels)
}

func TestDetectRelationships_TopNPerPair(t *testing.T) {
	detector := newTestDetector(2)

	// Several columns overlap pairwise, producing more than two candidates.
	a := makeDataset("a", []string{"code_id", "ref_id", "tag_id"}, [][]any{
		{"x1", "x1", "x1"},
		{"x2", "x2", "x2"},
		{"x3", "x3", "x3"},
	})
	b := makeDataset("b", []string{"code_id", "ref_id"}, [][]any{
		{"x1", "x1"},
		{"x2", "x2"},
	})

	rels, err := detector.DetectRelationships(context.Background(), []*models.Dataset{a, b})
	require.NoError(t, err)
	assert.LessOrEqual(t, len(rels), 2)
}

func TestDetectRelationships_SortedByMatchScore(t *testing.T) {
	detector := newTestDetector(0)
	orders, customers := ordersCustomers()

	rels, err := detector.DetectRelationships(context.Background(), []*models.Dataset{orders, customers})
	require.NoError(t, err)

	for i := 1; i < len(rels); i++ {
		assert.GreaterOrEqual(t, rels[i-1].MatchScore, rels[i].MatchScore)
	}
}

func TestDetectRelationships_CancelledContext(t *testing.T) {
	detector := newTestDetector(0)
	orders, customers := ordersCustomers()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := detector.DetectRelationships(ctx, []*models.Dataset{orders, customers})
	assert.Error(t, err)
}

func TestInferCardinality(t *testing.T) {
	tests := []struct {
		name     string
		ratioA   float64
		ratioB   float64
		wantType models.RelationshipType
		wantSwap bool
	}{
		{"both unique", 1.0, 0.95, models.OneToOne, false},
		{"only A unique", 1.0, 0.3, models.OneToMany, true},
		{"only B unique", 0.3, 1.0, models.OneToMany, false},
		{"neither unique", 0.4, 0.5, models.ManyToMany, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotType, gotSwap := inferCardinality(tt.ratioA, tt.ratioB)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantSwap, gotSwap)
		})
	}
}

func TestTypesCompatible(t *testing.T) {
	assert.True(t, typesCompatible(models.ColumnTypeNumber, models.ColumnTypeNumber))
	assert.True(t, typesCompatible(models.ColumnTypeString, models.ColumnTypeNumber))
	assert.True(t, typesCompatible(models.ColumnTypeDate, models.ColumnTypeString))
	assert.False(t, typesCompatible(models.ColumnTypeNumber, models.ColumnTypeDate))
	assert.False(t, typesCompatible(models.ColumnTypeBoolean, models.ColumnTypeNumber))
}
