package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terrastat/surfacer/internal/interp"
	"github.com/terrastat/surfacer/internal/model"
)

func newMockPostgres(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewPostgresFromPool(mock), mock
}

func TestPostgres_Migrate(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`CREATE SCHEMA IF NOT EXISTS surf`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	assert.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CreateDataset(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`INSERT INTO surf\.datasets`).
		WithArgs(pgxmock.AnyArg(), "rain", "import", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	ds, err := s.CreateDataset(context.Background(), "rain", "import")
	require.NoError(t, err)
	assert.NotEmpty(t, ds.ID)
	assert.Equal(t, "rain", ds.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// testDatasetID is a syntactically valid uuid for lookups that should reach
// the database.
const testDatasetID = "7f2a3c84-9a1e-4a5b-8f0d-6c2e5b1a9d43"

func TestPostgres_GetDataset(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT d\.id, d\.name, d\.source, d\.created_at`).
		WithArgs(testDatasetID).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "source", "created_at", "count"}).
			AddRow(testDatasetID, "rain", "import", now, int64(42)))

	ds, err := s.GetDataset(context.Background(), testDatasetID)
	require.NoError(t, err)
	assert.Equal(t, int64(42), ds.SampleCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_GetDataset_NotFound(t *testing.T) {
	s, mock := newMockPostgres(t)

	missing := "4e11b2a0-0d6f-4c2e-9b7a-3f8d1c5e2a90"
	mock.ExpectQuery(`SELECT d\.id, d\.name, d\.source, d\.created_at`).
		WithArgs(missing).
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "source", "created_at", "count"}))

	_, err := s.GetDataset(context.Background(), missing)
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestPostgres_GetDataset_NonUUID(t *testing.T) {
	// A by-name reference must not reach the uuid column; the comparison
	// would fail server-side with SQLSTATE 22P02 instead of matching nothing.
	s, mock := newMockPostgres(t)

	_, err := s.GetDataset(context.Background(), "rainfall")
	assert.True(t, eris.Is(err, ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ResolveDatasetByName(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Now().UTC()

	// Only the by-name query runs; the id lookup is skipped for non-uuids.
	mock.ExpectQuery(`SELECT d\.id, d\.name, d\.source, d\.created_at`).
		WithArgs("rainfall").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "source", "created_at", "count"}).
			AddRow(testDatasetID, "rainfall", "import", now, int64(3)))

	ds, err := ResolveDataset(context.Background(), s, "rainfall")
	require.NoError(t, err)
	assert.Equal(t, testDatasetID, ds.ID)
	assert.Equal(t, "rainfall", ds.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_DeleteDataset(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectExec(`DELETE FROM surf\.datasets`).
		WithArgs("ds-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	require.NoError(t, s.DeleteDataset(context.Background(), "ds-1"))

	mock.ExpectExec(`DELETE FROM surf\.datasets`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	err := s.DeleteDataset(context.Background(), "missing")
	assert.True(t, eris.Is(err, ErrNotFound))
}

func TestPostgres_InsertSamples(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectCopyFrom(pgx.Identifier{"surf", "samples"}, []string{"id", "dataset_id", "lat", "lon", "value", "created_at"}).
		WillReturnResult(2)
	mock.ExpectExec(`UPDATE surf\.samples SET geom`).
		WithArgs("ds-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := s.InsertSamples(context.Background(), "ds-1", []model.Sample{
		{Lat: 1, Lon: 2, Value: 3},
		{Lat: 4, Lon: 5, Value: 6},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_InsertSamples_Empty(t *testing.T) {
	s, mock := newMockPostgres(t)
	n, err := s.InsertSamples(context.Background(), "ds-1", nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_ListSamples_BBox(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, dataset_id, lat, lon, value, created_at FROM surf\.samples`).
		WithArgs("ds-1", -94.0, 44.0, -92.0, 46.0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "dataset_id", "lat", "lon", "value", "created_at"}).
			AddRow("s-1", "ds-1", 45.0, -93.0, 12.5, now))

	bbox := &interp.BBox{MinLat: 44, MinLon: -94, MaxLat: 46, MaxLon: -92}
	got, err := s.ListSamples(context.Background(), "ds-1", SampleFilter{BBox: bbox})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 12.5, got[0].Value)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_NearestSamples(t *testing.T) {
	s, mock := newMockPostgres(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`ORDER BY geom <-> ST_SetSRID`).
		WithArgs("ds-1", -93.0, 45.0, 5).
		WillReturnRows(pgxmock.NewRows([]string{"id", "dataset_id", "lat", "lon", "value", "created_at"}).
			AddRow("s-1", "ds-1", 45.0, -93.0, 1.0, now).
			AddRow("s-2", "ds-1", 45.1, -93.1, 2.0, now))

	got, err := s.NearestSamples(context.Background(), "ds-1", 45.0, -93.0, 5)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgres_CountSamples(t *testing.T) {
	s, mock := newMockPostgres(t)

	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("ds-1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(7)))

	n, err := s.CountSamples(context.Background(), "ds-1")
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
}
