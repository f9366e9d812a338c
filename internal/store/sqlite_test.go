package store

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrastat/surfacer/internal/interp"
	"github.com/terrastat/surfacer/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLite_DatasetLifecycle(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	ds, err := s.CreateDataset(ctx, "rainfall", "gen")
	require.NoError(t, err)
	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, "rainfall", ds.Name)

	got, err := s.GetDataset(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, ds.ID, got.ID)
	assert.Equal(t, int64(0), got.SampleCount)

	byName, err := s.GetDatasetByName(ctx, "rainfall")
	require.NoError(t, err)
	assert.Equal(t, ds.ID, byName.ID)

	list, err := s.ListDatasets(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteDataset(ctx, ds.ID))
	_, err = s.GetDataset(ctx, ds.ID)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_GetDataset_NotFound(t *testing.T) {
	s := newTestSQLite(t)
	_, err := s.GetDataset(context.Background(), "nope")
	assert.True(t, eris.Is(err, ErrNotFound))

	err = s.DeleteDataset(context.Background(), "nope")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestSQLite_InsertAndListSamples(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	ds, err := s.CreateDataset(ctx, "temps", "import")
	require.NoError(t, err)

	samples := []model.Sample{
		{Lat: 44.0, Lon: -93.0, Value: 12.5},
		{Lat: 45.0, Lon: -94.0, Value: 8.25},
		{Lat: 46.5, Lon: -92.1, Value: 19.0},
	}
	n, err := s.InsertSamples(ctx, ds.ID, samples)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	count, err := s.CountSamples(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	got, err := s.ListSamples(ctx, ds.ID, SampleFilter{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, sm := range got {
		assert.NotEmpty(t, sm.ID)
		assert.Equal(t, ds.ID, sm.DatasetID)
	}

	// Dataset counts reflect the insert.
	refreshed, err := s.GetDataset(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), refreshed.SampleCount)
}

func TestSQLite_ListSamples_BBoxAndLimit(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	ds, err := s.CreateDataset(ctx, "bbox", "")
	require.NoError(t, err)

	_, err = s.InsertSamples(ctx, ds.ID, []model.Sample{
		{Lat: 1, Lon: 1, Value: 1},
		{Lat: 2, Lon: 2, Value: 2},
		{Lat: 3, Lon: 3, Value: 3},
		{Lat: 50, Lon: 50, Value: 4},
	})
	require.NoError(t, err)

	bbox := &interp.BBox{MinLat: 0, MinLon: 0, MaxLat: 10, MaxLon: 10}
	got, err := s.ListSamples(ctx, ds.ID, SampleFilter{BBox: bbox})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = s.ListSamples(ctx, ds.ID, SampleFilter{BBox: bbox, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = s.ListSamples(ctx, ds.ID, SampleFilter{BBox: bbox, Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestSQLite_ListSamples_InsertionOrder(t *testing.T) {
	// A batch shares one created_at and ids are random uuids, so only the
	// rowid ordering keeps ListSamples in insert order. Duplicate locations
	// depend on this: the first inserted sample wins exact-match ties.
	s := newTestSQLite(t)
	ctx := context.Background()

	ds, err := s.CreateDataset(ctx, "ordered", "")
	require.NoError(t, err)

	batch := make([]model.Sample, 10)
	for i := range batch {
		batch[i] = model.Sample{Lat: 5, Lon: 5, Value: float64(i)}
	}
	_, err = s.InsertSamples(ctx, ds.ID, batch)
	require.NoError(t, err)

	got, err := s.ListSamples(ctx, ds.ID, SampleFilter{})
	require.NoError(t, err)
	require.Len(t, got, 10)
	for i, sm := range got {
		assert.Equal(t, float64(i), sm.Value)
	}
}

func TestSQLite_NearestSamples(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	ds, err := s.CreateDataset(ctx, "nearest", "")
	require.NoError(t, err)

	_, err = s.InsertSamples(ctx, ds.ID, []model.Sample{
		{Lat: 0, Lon: 10, Value: 1},
		{Lat: 0, Lon: 1, Value: 2},
		{Lat: 0, Lon: 5, Value: 3},
	})
	require.NoError(t, err)

	got, err := s.NearestSamples(ctx, ds.ID, 0, 0, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[0].Value)
	assert.Equal(t, 3.0, got[1].Value)

	_, err = s.NearestSamples(ctx, ds.ID, 0, 0, 0)
	assert.Error(t, err)
}

func TestSQLite_DeleteDatasetCascades(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	ds, err := s.CreateDataset(ctx, "cascade", "")
	require.NoError(t, err)
	_, err = s.InsertSamples(ctx, ds.ID, []model.Sample{{Lat: 1, Lon: 1, Value: 1}})
	require.NoError(t, err)

	require.NoError(t, s.DeleteDataset(ctx, ds.ID))

	n, err := s.CountSamples(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestResolveDataset(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	ds, err := s.CreateDataset(ctx, "byname", "")
	require.NoError(t, err)

	byID, err := ResolveDataset(ctx, s, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, ds.ID, byID.ID)

	byName, err := ResolveDataset(ctx, s, "byname")
	require.NoError(t, err)
	assert.Equal(t, ds.ID, byName.ID)

	_, err = ResolveDataset(ctx, s, "missing")
	assert.True(t, eris.Is(err, ErrNotFound))

	_, err = ResolveDataset(ctx, s, "")
	assert.Error(t, err)
}
