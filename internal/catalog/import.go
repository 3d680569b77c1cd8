package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/melodia/melodiad/internal/plugin"
	"github.com/melodia/melodiad/internal/tags"
)

// ImportTrack resolves a scanned track's artist, album, and track group,
// then upserts the track row keyed by (plugin_id, plugin_data) so
// re-scanning the same track updates it in place instead of duplicating
// it. Returns the track's catalog ID.
func (s *Store) ImportTrack(ctx context.Context, id plugin.UniqueTrackIdentifier, result plugin.ScanResult) (TrackID, error) {
	if result.Tags == nil {
		return 0, fmt.Errorf("catalog: import track: scan result has no tags")
	}
	t := result.Tags

	tx, err := s.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("catalog: import track: %w", err)
	}
	defer tx.Rollback()

	albumID, albumArtistID, err := s.findOrCreateAlbum(ctx, tx, albumInfoFromTags(t))
	if err != nil {
		return 0, err
	}

	artistID, err := s.findOrCreateArtist(ctx, tx, artistInfoFromTags(t))
	if err != nil {
		return 0, err
	}

	trackGroupID, err := s.findOrCreateTrackGroup(ctx, tx, trackGroupInfoFromTrack(t.TrackTitle, t, albumID))
	if err != nil {
		return 0, err
	}

	customBlob, err := marshalCustomTags(t.Custom)
	if err != nil {
		return 0, fmt.Errorf("catalog: marshal custom tags: %w", err)
	}

	var artistIDArg, albumIDArg, albumArtistIDArg any
	if artistID != nil {
		artistIDArg = int64(*artistID)
	}
	if albumID != nil {
		albumIDArg = int64(*albumID)
	}
	if albumArtistID != nil {
		albumArtistIDArg = int64(*albumArtistID)
	}

	cols := []string{
		"track_group_id", "plugin_id", "plugin_data",
		"artist_id", "album_id", "album_artist_id",
		"track_title", "custom_tags_blob",
	}
	args := []any{
		int64(trackGroupID), int64(id.PluginID), string(id.PluginData),
		artistIDArg, albumIDArg, albumArtistIDArg,
		t.TrackTitle, customBlob,
	}

	// The well-known tag set is closed, so the upsert's column list and
	// values are built by enumerating tags.AllKinds rather than naming
	// each field by hand.
	for _, kind := range tags.AllKinds() {
		key := tags.NewKey(kind)
		cols = append(cols, tagColumnName(kind))
		if v, ok := t.Get(key); ok {
			args = append(args, tagColumnValue(v))
		} else {
			args = append(args, nil)
		}
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")

	updates := make([]string, 0, len(cols))
	for _, c := range cols {
		if c == "plugin_id" || c == "plugin_data" {
			continue
		}
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", c, c))
	}

	query := fmt.Sprintf(
		"INSERT INTO tracks (%s) VALUES (%s) ON CONFLICT(plugin_id, plugin_data) DO UPDATE SET %s",
		strings.Join(cols, ", "), placeholders, strings.Join(updates, ", "),
	)

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return 0, fmt.Errorf("catalog: upsert track: %w", err)
	}

	// ON CONFLICT DO UPDATE does not populate LastInsertId on sqlite, so
	// the row's id is always resolved by its unique key.
	var trackRowID int64
	err = tx.QueryRowContext(ctx,
		`SELECT track_id FROM tracks WHERE plugin_id = ? AND plugin_data = ?`,
		int64(id.PluginID), string(id.PluginData)).Scan(&trackRowID)
	if err != nil {
		return 0, fmt.Errorf("catalog: resolve track id after upsert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("catalog: import track: commit: %w", err)
	}
	return TrackID(trackRowID), nil
}

// tagColumnValue renders a tag Value for its typed column: numeric
// fields keep their float64 so SQLite stores them as REAL, everything
// else goes through Value.String().
func tagColumnValue(v tags.Value) any {
	if v.Kind() == tags.ValueFloat {
		f, _ := v.AsFloat()
		return f
	}
	return v.String()
}

// marshalCustomTags packs a plugin's open-ended custom fields into the
// one part of the tag set that doesn't get its own column.
func marshalCustomTags(custom map[string]tags.Value) ([]byte, error) {
	if len(custom) == 0 {
		return nil, nil
	}
	flat := make(map[string]string, len(custom))
	for name, v := range custom {
		flat[name] = v.String()
	}
	return msgpack.Marshal(flat)
}
