package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// findOrCreateArtist resolves info to an ArtistID, in three steps: look
// up by MusicBrainz id, then by name (backfilling the mbid onto that row
// if info carries one the stored row lacks), then insert. Returns nil
// when info carries neither a name nor an mbid — an artistless track is
// valid, not an error.
func (s *Store) findOrCreateArtist(ctx context.Context, tx *sql.Tx, info artistInfo) (*ArtistID, error) {
	if !info.isComplete() {
		return nil, nil
	}

	if info.mbid != nil {
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT artist_id FROM artists WHERE mbid = ?`, *info.mbid).Scan(&id)
		if err == nil {
			aid := ArtistID(id)
			return &aid, nil
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("catalog: lookup artist by mbid: %w", err)
		}
	}

	if info.name != nil {
		var id int64
		var storedMbid sql.NullString
		err := tx.QueryRowContext(ctx, `SELECT artist_id, mbid FROM artists WHERE name = ?`, *info.name).Scan(&id, &storedMbid)
		if err == nil {
			if info.mbid != nil && !storedMbid.Valid {
				if _, err := tx.ExecContext(ctx, `UPDATE artists SET mbid = ? WHERE artist_id = ?`, *info.mbid, id); err != nil {
					return nil, fmt.Errorf("catalog: backfill artist mbid: %w", err)
				}
			}
			aid := ArtistID(id)
			return &aid, nil
		}
		if err != sql.ErrNoRows {
			return nil, fmt.Errorf("catalog: lookup artist by name: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO artists (name, mbid) VALUES (?, ?)`, info.name, info.mbid)
	if err != nil {
		return nil, fmt.Errorf("catalog: insert artist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("catalog: insert artist: %w", err)
	}
	aid := ArtistID(id)
	return &aid, nil
}

// findOrCreateAlbum resolves info to an AlbumID and the artist id its
// album_artist column should carry, using the same mbid-then-name
// strategy as findOrCreateArtist, with mbid backfill on a title+artist
// match.
func (s *Store) findOrCreateAlbum(ctx context.Context, tx *sql.Tx, info albumInfo) (*AlbumID, *ArtistID, error) {
	if !info.isComplete() {
		return nil, nil, nil
	}

	if info.mbid != nil {
		var albumID int64
		var artistID sql.NullInt64
		err := tx.QueryRowContext(ctx, `SELECT album_id, artist_id FROM albums WHERE mbid = ?`, *info.mbid).Scan(&albumID, &artistID)
		if err == nil {
			aid := AlbumID(albumID)
			return &aid, nullableArtistID(artistID), nil
		}
		if err != sql.ErrNoRows {
			return nil, nil, fmt.Errorf("catalog: lookup album by mbid: %w", err)
		}
	}

	albumArtistID, err := s.findOrCreateArtist(ctx, tx, info.albumArtist)
	if err != nil {
		return nil, nil, err
	}
	if albumArtistID == nil {
		albumArtistID, err = s.findOrCreateArtist(ctx, tx, info.artist)
		if err != nil {
			return nil, nil, err
		}
	}

	if info.title != nil && albumArtistID != nil {
		var albumID int64
		var storedMbid sql.NullString
		err := tx.QueryRowContext(ctx,
			`SELECT album_id, mbid FROM albums WHERE title = ? AND artist_id = ?`,
			*info.title, int64(*albumArtistID)).Scan(&albumID, &storedMbid)
		if err == nil {
			if info.mbid != nil && !storedMbid.Valid {
				if _, err := tx.ExecContext(ctx, `UPDATE albums SET mbid = ? WHERE album_id = ?`, *info.mbid, albumID); err != nil {
					return nil, nil, fmt.Errorf("catalog: backfill album mbid: %w", err)
				}
			}
			aid := AlbumID(albumID)
			return &aid, albumArtistID, nil
		}
		if err != sql.ErrNoRows {
			return nil, nil, fmt.Errorf("catalog: lookup album by title and artist: %w", err)
		}
	}

	var artistIDArg any
	if albumArtistID != nil {
		artistIDArg = int64(*albumArtistID)
	}
	res, err := tx.ExecContext(ctx, `INSERT INTO albums (title, mbid, artist_id) VALUES (?, ?, ?)`, info.title, info.mbid, artistIDArg)
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: insert album: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, nil, fmt.Errorf("catalog: insert album: %w", err)
	}
	aid := AlbumID(id)
	return &aid, albumArtistID, nil
}

// findOrCreateTrackGroup resolves info to a TrackGroupID: first by
// MusicBrainz track id (picking the group most other tracks sharing
// that id already landed in), then by (title, album), then by creating
// a fresh empty group.
func (s *Store) findOrCreateTrackGroup(ctx context.Context, tx *sql.Tx, info trackGroupInfo) (TrackGroupID, error) {
	if info.trackMbid != nil {
		var id int64
		err := tx.QueryRowContext(ctx,
			`SELECT track_group_id FROM tracks WHERE musicbrainz_track_id = ? GROUP BY track_group_id ORDER BY COUNT(*) DESC LIMIT 1`,
			*info.trackMbid).Scan(&id)
		if err == nil {
			return TrackGroupID(id), nil
		}
		if err != sql.ErrNoRows {
			return 0, fmt.Errorf("catalog: lookup track group by mbid: %w", err)
		}
	}

	var albumIDArg any
	if info.albumID != nil {
		albumIDArg = int64(*info.albumID)
	}
	var id int64
	err := tx.QueryRowContext(ctx,
		`SELECT track_group_id FROM tracks WHERE track_title = ? AND album_id IS ? GROUP BY track_group_id ORDER BY COUNT(*) DESC LIMIT 1`,
		info.title, albumIDArg).Scan(&id)
	if err == nil {
		return TrackGroupID(id), nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("catalog: lookup track group by title and album: %w", err)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO track_groups DEFAULT VALUES`)
	if err != nil {
		return 0, fmt.Errorf("catalog: insert track group: %w", err)
	}
	newID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("catalog: insert track group: %w", err)
	}
	return TrackGroupID(newID), nil
}

func nullableArtistID(v sql.NullInt64) *ArtistID {
	if !v.Valid {
		return nil
	}
	id := ArtistID(v.Int64)
	return &id
}
