package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/terrastat/surfacer/internal/db"
	"github.com/terrastat/surfacer/internal/model"
)

// PostgresStore implements Store on PostgreSQL with PostGIS. Samples carry a
// geometry column so bbox and proximity queries run on the GIST index.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool, closeFn: func() {}}
}

const postgresMigration = `
CREATE SCHEMA IF NOT EXISTS surf;

CREATE TABLE IF NOT EXISTS surf.datasets (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	source     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS surf.samples (
	id         UUID PRIMARY KEY,
	seq        BIGINT GENERATED ALWAYS AS IDENTITY,
	dataset_id UUID NOT NULL REFERENCES surf.datasets(id) ON DELETE CASCADE,
	lat        DOUBLE PRECISION NOT NULL,
	lon        DOUBLE PRECISION NOT NULL,
	value      DOUBLE PRECISION NOT NULL,
	geom       geometry(Point, 4326),
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_surf_samples_dataset ON surf.samples(dataset_id);
CREATE INDEX IF NOT EXISTS idx_surf_samples_geom ON surf.samples USING GIST(geom);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.closeFn()
	return nil
}

func (s *PostgresStore) CreateDataset(ctx context.Context, name, source string) (*model.Dataset, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO surf.datasets (id, name, source, created_at) VALUES ($1, $2, $3, $4)`,
		id, name, source, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert dataset %s", name)
	}

	return &model.Dataset{ID: id, Name: name, Source: source, CreatedAt: now}, nil
}

const postgresDatasetSelect = `
	SELECT d.id, d.name, d.source, d.created_at,
	       (SELECT COUNT(*) FROM surf.samples WHERE dataset_id = d.id)
	FROM surf.datasets d`

func (s *PostgresStore) GetDataset(ctx context.Context, id string) (*model.Dataset, error) {
	// A non-UUID reference would make the uuid comparison fail server-side
	// (SQLSTATE 22P02) instead of matching nothing.
	if uuid.Validate(id) != nil {
		return nil, ErrNotFound
	}
	return s.queryDataset(ctx, postgresDatasetSelect+` WHERE d.id = $1`, id)
}

func (s *PostgresStore) GetDatasetByName(ctx context.Context, name string) (*model.Dataset, error) {
	return s.queryDataset(ctx, postgresDatasetSelect+` WHERE d.name = $1`, name)
}

func (s *PostgresStore) queryDataset(ctx context.Context, sql string, arg any) (*model.Dataset, error) {
	var d model.Dataset
	err := s.pool.QueryRow(ctx, sql, arg).Scan(&d.ID, &d.Name, &d.Source, &d.CreatedAt, &d.SampleCount)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, eris.Wrap(err, "postgres: get dataset")
	}
	return &d, nil
}

func (s *PostgresStore) ListDatasets(ctx context.Context) ([]model.Dataset, error) {
	rows, err := s.pool.Query(ctx, postgresDatasetSelect+` ORDER BY d.created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list datasets")
	}
	defer rows.Close()

	var datasets []model.Dataset
	for rows.Next() {
		var d model.Dataset
		if err := rows.Scan(&d.ID, &d.Name, &d.Source, &d.CreatedAt, &d.SampleCount); err != nil {
			return nil, eris.Wrap(err, "postgres: scan dataset")
		}
		datasets = append(datasets, d)
	}
	return datasets, eris.Wrap(rows.Err(), "postgres: list datasets iterate")
}

func (s *PostgresStore) DeleteDataset(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM surf.datasets WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete dataset %s", id)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// InsertSamples bulk-loads via COPY, then backfills the geometry column in
// one statement. COPY cannot evaluate ST_MakePoint per row.
func (s *PostgresStore) InsertSamples(ctx context.Context, datasetID string, samples []model.Sample) (int64, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(samples))
	for _, sm := range samples {
		id := sm.ID
		if id == "" {
			id = uuid.New().String()
		}
		rows = append(rows, []any{id, datasetID, sm.Lat, sm.Lon, sm.Value, now})
	}

	n, err := db.CopyFrom(ctx, s.pool, "surf", "samples",
		[]string{"id", "dataset_id", "lat", "lon", "value", "created_at"}, rows)
	if err != nil {
		return 0, eris.Wrapf(err, "postgres: copy samples into %s", datasetID)
	}

	_, err = s.pool.Exec(ctx,
		`UPDATE surf.samples SET geom = ST_SetSRID(ST_MakePoint(lon, lat), 4326)
		 WHERE dataset_id = $1 AND geom IS NULL`,
		datasetID,
	)
	if err != nil {
		return n, eris.Wrap(err, "postgres: backfill sample geometry")
	}
	return n, nil
}

func (s *PostgresStore) ListSamples(ctx context.Context, datasetID string, filter SampleFilter) ([]model.Sample, error) {
	query := `SELECT id, dataset_id, lat, lon, value, created_at FROM surf.samples WHERE dataset_id = $1`
	args := []any{datasetID}

	if filter.BBox != nil {
		query += ` AND geom && ST_MakeEnvelope($2, $3, $4, $5, 4326)`
		args = append(args, filter.BBox.MinLon, filter.BBox.MinLat, filter.BBox.MaxLon, filter.BBox.MaxLat)
	}
	// seq preserves insertion order; created_at is batch-granular and
	// uuids sort arbitrarily.
	query += ` ORDER BY seq`

	if filter.Limit > 0 {
		query += fmt.Sprintf(` LIMIT $%d`, len(args)+1)
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(` OFFSET $%d`, len(args)+1)
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list samples")
	}
	defer rows.Close()
	return collectPgxSamples(rows)
}

// NearestSamples orders by the KNN operator so the GIST index drives the scan.
func (s *PostgresStore) NearestSamples(ctx context.Context, datasetID string, lat, lon float64, k int) ([]model.Sample, error) {
	if k <= 0 {
		return nil, eris.New("postgres: k must be positive")
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, dataset_id, lat, lon, value, created_at FROM surf.samples
		 WHERE dataset_id = $1
		 ORDER BY geom <-> ST_SetSRID(ST_MakePoint($2, $3), 4326), seq
		 LIMIT $4`,
		datasetID, lon, lat, k,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: nearest samples")
	}
	defer rows.Close()
	return collectPgxSamples(rows)
}

func (s *PostgresStore) CountSamples(ctx context.Context, datasetID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM surf.samples WHERE dataset_id = $1`, datasetID,
	).Scan(&n)
	return n, eris.Wrap(err, "postgres: count samples")
}

func collectPgxSamples(rows pgx.Rows) ([]model.Sample, error) {
	var samples []model.Sample
	for rows.Next() {
		var sm model.Sample
		if err := rows.Scan(&sm.ID, &sm.DatasetID, &sm.Lat, &sm.Lon, &sm.Value, &sm.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan sample")
		}
		samples = append(samples, sm)
	}
	return samples, eris.Wrap(rows.Err(), "postgres: iterate samples")
}
