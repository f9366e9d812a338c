package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/terrastat/surfacer/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given DSN and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS datasets (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	source     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS samples (
	id         TEXT PRIMARY KEY,
	dataset_id TEXT NOT NULL REFERENCES datasets(id) ON DELETE CASCADE,
	lat        REAL NOT NULL,
	lon        REAL NOT NULL,
	value      REAL NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_samples_dataset_id ON samples(dataset_id);
CREATE INDEX IF NOT EXISTS idx_samples_lat_lon ON samples(dataset_id, lat, lon);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateDataset(ctx context.Context, name, source string) (*model.Dataset, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO datasets (id, name, source, created_at) VALUES (?, ?, ?, ?)`,
		id, name, source, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert dataset %s", name)
	}

	return &model.Dataset{ID: id, Name: name, Source: source, CreatedAt: now}, nil
}

const sqliteDatasetSelect = `
	SELECT d.id, d.name, d.source, d.created_at,
	       (SELECT COUNT(*) FROM samples WHERE dataset_id = d.id)
	FROM datasets d`

func (s *SQLiteStore) GetDataset(ctx context.Context, id string) (*model.Dataset, error) {
	row := s.db.QueryRowContext(ctx, sqliteDatasetSelect+` WHERE d.id = ?`, id)
	return scanDataset(row)
}

func (s *SQLiteStore) GetDatasetByName(ctx context.Context, name string) (*model.Dataset, error) {
	row := s.db.QueryRowContext(ctx, sqliteDatasetSelect+` WHERE d.name = ?`, name)
	return scanDataset(row)
}

func (s *SQLiteStore) ListDatasets(ctx context.Context) ([]model.Dataset, error) {
	rows, err := s.db.QueryContext(ctx, sqliteDatasetSelect+` ORDER BY d.created_at DESC`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list datasets")
	}
	defer rows.Close()

	var datasets []model.Dataset
	for rows.Next() {
		d, err := scanDataset(rows)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, *d)
	}
	return datasets, eris.Wrap(rows.Err(), "sqlite: list datasets iterate")
}

func (s *SQLiteStore) DeleteDataset(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete dataset %s", id)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) InsertSamples(ctx context.Context, datasetID string, samples []model.Sample) (int64, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin insert samples")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO samples (id, dataset_id, lat, lon, value, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert sample")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, sm := range samples {
		id := sm.ID
		if id == "" {
			id = uuid.New().String()
		}
		if _, err := stmt.ExecContext(ctx, id, datasetID, sm.Lat, sm.Lon, sm.Value, now); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert sample into %s", datasetID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit insert samples")
	}
	return int64(len(samples)), nil
}

func (s *SQLiteStore) ListSamples(ctx context.Context, datasetID string, filter SampleFilter) ([]model.Sample, error) {
	query := `SELECT id, dataset_id, lat, lon, value, created_at FROM samples WHERE dataset_id = ?`
	args := []any{datasetID}

	if filter.BBox != nil {
		query += ` AND lat BETWEEN ? AND ? AND lon BETWEEN ? AND ?`
		args = append(args, filter.BBox.MinLat, filter.BBox.MaxLat, filter.BBox.MinLon, filter.BBox.MaxLon)
	}
	// rowid preserves insertion order; created_at is batch-granular and
	// uuids sort arbitrarily.
	query += ` ORDER BY rowid`

	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
		if filter.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list samples")
	}
	defer rows.Close()
	return collectSamples(rows)
}

// NearestSamples orders by planar squared distance computed in SQL. Good
// enough for the modest per-dataset sample counts this store targets.
func (s *SQLiteStore) NearestSamples(ctx context.Context, datasetID string, lat, lon float64, k int) ([]model.Sample, error) {
	if k <= 0 {
		return nil, eris.New("sqlite: k must be positive")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, dataset_id, lat, lon, value, created_at FROM samples
		 WHERE dataset_id = ?
		 ORDER BY (lat - ?) * (lat - ?) + (lon - ?) * (lon - ?), rowid
		 LIMIT ?`,
		datasetID, lat, lat, lon, lon, k,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: nearest samples")
	}
	defer rows.Close()
	return collectSamples(rows)
}

func (s *SQLiteStore) CountSamples(ctx context.Context, datasetID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM samples WHERE dataset_id = ?`, datasetID,
	).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count samples")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanDataset(row scannable) (*model.Dataset, error) {
	var d model.Dataset
	err := row.Scan(&d.ID, &d.Name, &d.Source, &d.CreatedAt, &d.SampleCount)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan dataset")
	}
	return &d, nil
}

func collectSamples(rows *sql.Rows) ([]model.Sample, error) {
	var samples []model.Sample
	for rows.Next() {
		var sm model.Sample
		if err := rows.Scan(&sm.ID, &sm.DatasetID, &sm.Lat, &sm.Lon, &sm.Value, &sm.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan sample")
		}
		samples = append(samples, sm)
	}
	return samples, eris.Wrap(rows.Err(), "sqlite: iterate samples")
}
