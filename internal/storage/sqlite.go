//go:build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"actuation/internal/model"

	_ "modernc.org/sqlite"
)

type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}

	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveManifest(ctx context.Context, manifest model.LayoutManifest) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	if err := checkVersion(manifest.VersionedRecord); err != nil {
		return err
	}

	payload, err := EncodeManifest(manifest)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO manifests (id, environment, created_at_unix_nano, schema_version, codec_version, payload)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			environment = excluded.environment,
			created_at_unix_nano = excluded.created_at_unix_nano,
			schema_version = excluded.schema_version,
			codec_version = excluded.codec_version,
			payload = excluded.payload
	`, manifest.ID, manifest.Environment, manifest.CreatedAtUTC.UnixNano(), manifest.SchemaVersion, manifest.CodecVersion, payload)
	return err
}

func (s *SQLiteStore) GetManifest(ctx context.Context, id string) (model.LayoutManifest, bool, error) {
	db, err := s.getDB()
	if err != nil {
		return model.LayoutManifest{}, false, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM manifests WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.LayoutManifest{}, false, nil
		}
		return model.LayoutManifest{}, false, err
	}

	manifest, err := DecodeManifest(payload)
	if err != nil {
		return model.LayoutManifest{}, false, fmt.Errorf("decode manifest %s: %w", id, err)
	}
	return manifest, true, nil
}

func (s *SQLiteStore) ListManifests(ctx context.Context, environment string) ([]model.LayoutManifest, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, payload FROM manifests
		WHERE ? = '' OR environment = ?
		ORDER BY created_at_unix_nano, id
	`, environment, environment)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.LayoutManifest, 0)
	for rows.Next() {
		var (
			id      string
			payload []byte
		)
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		manifest, err := DecodeManifest(payload)
		if err != nil {
			return nil, fmt.Errorf("decode manifest %s: %w", id, err)
		}
		out = append(out, manifest)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLiteStore) DeleteManifest(ctx context.Context, id string) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `DELETE FROM manifests WHERE id = ?`, id)
	return err
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS manifests (
			id TEXT PRIMARY KEY,
			environment TEXT NOT NULL,
			created_at_unix_nano INTEGER NOT NULL,
			schema_version INTEGER NOT NULL,
			codec_version INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE INDEX IF NOT EXISTS manifests_environment ON manifests (environment);
	`)
	return err
}
