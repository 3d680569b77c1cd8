package catalog

import (
	"fmt"
	"strings"

	"github.com/melodia/melodiad/internal/tags"
)

const baseSchema = `
CREATE TABLE IF NOT EXISTS plugins (
	plugin_id INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS artists (
	artist_id INTEGER PRIMARY KEY AUTOINCREMENT,
	mbid TEXT,
	name TEXT
);
CREATE INDEX IF NOT EXISTS idx_artists_mbid ON artists(mbid) WHERE mbid IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_artists_name ON artists(name) WHERE name IS NOT NULL;

CREATE TABLE IF NOT EXISTS albums (
	album_id INTEGER PRIMARY KEY AUTOINCREMENT,
	mbid TEXT,
	title TEXT,
	artist_id INTEGER REFERENCES artists(artist_id)
);
CREATE INDEX IF NOT EXISTS idx_albums_mbid ON albums(mbid) WHERE mbid IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_albums_title_artist ON albums(title, artist_id);

CREATE TABLE IF NOT EXISTS track_groups (
	track_group_id INTEGER PRIMARY KEY AUTOINCREMENT
);

CREATE TABLE IF NOT EXISTS tracks (
	track_id INTEGER PRIMARY KEY AUTOINCREMENT,
	track_group_id INTEGER NOT NULL REFERENCES track_groups(track_group_id),

	plugin_id INTEGER NOT NULL REFERENCES plugins(plugin_id),
	plugin_data TEXT NOT NULL,

	artist_id INTEGER REFERENCES artists(artist_id),
	album_id INTEGER REFERENCES albums(album_id),
	album_artist_id INTEGER REFERENCES artists(artist_id),

	track_title TEXT NOT NULL,

	-- custom_tags_blob carries whatever a plugin reports under
	-- tags.Tags.Custom: the one part of the tag set that isn't closed,
	-- so it can't get a column of its own. Every well-known field below
	-- is generated from tags.AllKinds.
	custom_tags_blob BLOB,

	%s,

	UNIQUE(plugin_id, plugin_data)
);
CREATE INDEX IF NOT EXISTS idx_tracks_group ON tracks(track_group_id);
CREATE INDEX IF NOT EXISTS idx_tracks_mb_track_id ON tracks(musicbrainz_track_id) WHERE musicbrainz_track_id IS NOT NULL;
CREATE INDEX IF NOT EXISTS idx_tracks_title_album ON tracks(track_title, album_id);
`

// tagColumnType returns the SQLite storage class for a well-known tag
// field. The numeric fields (BPM, ReplayGain levels) get REAL; every
// other field — including MusicBrainz ids, which tags.Value always
// renders to their string form — gets TEXT.
func tagColumnType(kind tags.Kind) string {
	switch kind {
	case tags.KindBpm,
		tags.KindReplayGainAlbumGain, tags.KindReplayGainAlbumPeak,
		tags.KindReplayGainTrackGain, tags.KindReplayGainTrackPeak:
		return "REAL"
	default:
		return "TEXT"
	}
}

// tagColumnName returns the SQL column name for kind, shared between the
// schema and the track importer so the two can never disagree.
func tagColumnName(kind tags.Kind) string {
	return tags.NewKey(kind).String()
}

// buildSchema enumerates tags.AllKinds to add one typed column per
// well-known tag field to the tracks table: the tag set is closed, so
// the schema reflects that instead of collapsing every field into a
// blob.
func buildSchema() string {
	kinds := tags.AllKinds()
	defs := make([]string, len(kinds))
	for i, kind := range kinds {
		defs[i] = fmt.Sprintf("%s %s", tagColumnName(kind), tagColumnType(kind))
	}
	return fmt.Sprintf(baseSchema, strings.Join(defs, ",\n\t"))
}
