// Package catalog persists the scanned library: plugins, artists,
// albums, track groups, and tracks, in a SQLite database accessed
// through database/sql.
package catalog

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/google/uuid"

	"github.com/melodia/melodiad/internal/plugin"
)

// Store is the catalog's SQLite-backed persistence layer.
type Store struct {
	*sql.DB
}

// Open creates or opens the catalog database at path, enabling WAL
// journaling so concurrent readers never block the importer's writes,
// and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_journal_mode=WAL&_foreign_keys=on", path))
	if err != nil {
		return nil, fmt.Errorf("catalog: open %q: %w", path, err)
	}

	if _, err := db.Exec(buildSchema()); err != nil {
		db.Close()
		return nil, fmt.Errorf("catalog: apply schema: %w", err)
	}

	return &Store{db}, nil
}

// RegisterPlugin returns the compact plugin ID for pluginUUID,
// inserting a new row on first sight. Satisfies plugin.IDAssigner.
func (s *Store) RegisterPlugin(ctx context.Context, pluginUUID uuid.UUID) (plugin.ID, error) {
	if id, ok, err := s.getPluginID(ctx, pluginUUID); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}

	res, err := s.ExecContext(ctx, `INSERT INTO plugins (uuid) VALUES (?)`, pluginUUID.String())
	if err != nil {
		return 0, fmt.Errorf("catalog: register plugin %s: %w", pluginUUID, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("catalog: register plugin %s: %w", pluginUUID, err)
	}
	return plugin.ID(id), nil
}

func (s *Store) getPluginID(ctx context.Context, pluginUUID uuid.UUID) (plugin.ID, bool, error) {
	var id int64
	err := s.QueryRowContext(ctx, `SELECT plugin_id FROM plugins WHERE uuid = ?`, pluginUUID.String()).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("catalog: lookup plugin %s: %w", pluginUUID, err)
	}
	return plugin.ID(id), true, nil
}

// Stats summarizes catalog size, refreshed after every import batch.
type Stats struct {
	Tracks      int64
	Albums      int64
	Artists     int64
	TrackGroups int64
}

// Stats reports current row counts across the catalog's entity tables.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	var st Stats
	if err := s.QueryRowContext(ctx, `SELECT COUNT(*) FROM tracks`).Scan(&st.Tracks); err != nil {
		return Stats{}, fmt.Errorf("catalog: stats tracks: %w", err)
	}
	if err := s.QueryRowContext(ctx, `SELECT COUNT(*) FROM albums`).Scan(&st.Albums); err != nil {
		return Stats{}, fmt.Errorf("catalog: stats albums: %w", err)
	}
	if err := s.QueryRowContext(ctx, `SELECT COUNT(*) FROM artists`).Scan(&st.Artists); err != nil {
		return Stats{}, fmt.Errorf("catalog: stats artists: %w", err)
	}
	if err := s.QueryRowContext(ctx, `SELECT COUNT(*) FROM track_groups`).Scan(&st.TrackGroups); err != nil {
		return Stats{}, fmt.Errorf("catalog: stats track_groups: %w", err)
	}
	return st, nil
}
