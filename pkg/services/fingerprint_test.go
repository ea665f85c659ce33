package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fuseline-io/fuseline-engine/pkg/models"
	"github.com/fuseline-io/fuseline-engine/pkg/repositories"
)

func TestFingerprintDataset_Basics(t *testing.T) {
	f := NewFingerprinter(0, nil, zap.NewNop())

	ds := makeDataset("people", []string{"id", "city"}, [][]any{
		{"p1", "Lisbon"},
		{"p2", "Lisbon"},
		{"p3", nil},
		{"p4", "Porto"},
	})

	fps := f.FingerprintDataset(context.Background(), ds)
	require.Len(t, fps, 2)

	id := fps[0]
	assert.Equal(t, "id", id.Column)
	assert.Equal(t, 4, id.SampledRows)
	assert.Equal(t, 4, id.DistinctValues)
	assert.InDelta(t, 1.0, id.CardinalityRatio, 1e-9)
	assert.InDelta(t, 0.0, id.NullRate, 1e-9)
	assert.True(t, id.HasValue("p1"))

	city := fps[1]
	assert.Equal(t, 2, city.DistinctValues)
	assert.InDelta(t, 2.0/3.0, city.CardinalityRatio, 1e-9)
	assert.InDelta(t, 0.25, city.NullRate, 1e-9)
}

func TestFingerprintDataset_NormalizesValues(t *testing.T) {
	f := NewFingerprinter(0, nil, zap.NewNop())

	// "West", "west " and "WEST" are the same dimension member; "7" and
	// "7.0" are the same number.
	ds := makeDataset("sales", []string{"region", "qty"}, [][]any{
		{"West", "7"},
		{"west", "7.0"},
		{"WEST", 7},
	})

	fps := f.FingerprintDataset(context.Background(), ds)
	require.Len(t, fps, 2)
	assert.Equal(t, 1, fps[0].DistinctValues)
	assert.Equal(t, 1, fps[1].DistinctValues)
}

func TestFingerprintDataset_Deterministic(t *testing.T) {
	f := NewFingerprinter(50, nil, zap.NewNop())

	cells := make([][]any, 500)
	for i := range cells {
		cells[i] = []any{i, i % 7}
	}
	ds := makeDataset("big", []string{"id", "bucket"}, cells)

	first := f.FingerprintDataset(context.Background(), ds)
	second := f.FingerprintDataset(context.Background(), ds)

	require.Len(t, first, 2)
	for i := range first {
		assert.Equal(t, first[i].SampledRows, second[i].SampledRows)
		assert.Equal(t, first[i].DistinctValues, second[i].DistinctValues)
		assert.Equal(t, first[i].CardinalityRatio, second[i].CardinalityRatio)
		assert.Equal(t, first[i].ValueSet, second[i].ValueSet)
	}
	assert.LessOrEqual(t, first[0].SampledRows, 50)
}

func TestFingerprintDataset_SampleLimit(t *testing.T) {
	f := NewFingerprinter(10, nil, zap.NewNop())

	cells := make([][]any, 100)
	for i := range cells {
		cells[i] = []any{i}
	}
	ds := makeDataset("wide", []string{"n"}, cells)

	fps := f.FingerprintDataset(context.Background(), ds)
	require.Len(t, fps, 1)
	assert.Equal(t, 10, fps[0].SampledRows)
}

func TestFingerprintDataset_UsesCache(t *testing.T) {
	cache := repositories.NewFingerprintCacheRepository()
	f := NewFingerprinter(0, cache, zap.NewNop())

	ds := makeDataset("cached", []string{"id"}, [][]any{{"a"}, {"b"}})

	first := f.FingerprintDataset(context.Background(), ds)
	assert.Equal(t, 1, cache.Len())

	second := f.FingerprintDataset(context.Background(), ds)
	assert.Equal(t, first, second)

	cached, ok := cache.Get(ds.ID, ds.ContentHash())
	require.True(t, ok)
	assert.Equal(t, first, cached)
}

func TestFingerprintAll(t *testing.T) {
	f := NewFingerprinter(0, nil, zap.NewNop())

	orders, customers := ordersCustomers()
	fps, err := f.FingerprintAll(context.Background(), []*models.Dataset{orders, customers})
	require.NoError(t, err)
	require.Len(t, fps, 2)
	assert.Len(t, fps[orders.ID], 3)
	assert.Len(t, fps[customers.ID], 3)
}

func TestFingerprintAll_CancelledContext(t *testing.T) {
	f := NewFingerprinter(0, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	orders, customers := ordersCustomers()
	_, err := f.FingerprintAll(ctx, []*models.Dataset{orders, customers})
	assert.ErrorIs(t, err, context.Canceled)
}
