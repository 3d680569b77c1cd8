package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/melodia/melodiad/internal/plugin"
	"github.com/melodia/melodiad/internal/tags"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRegisterPluginIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	id := uuid.New()

	first, err := s.RegisterPlugin(ctx, id)
	if err != nil {
		t.Fatalf("RegisterPlugin: %v", err)
	}
	second, err := s.RegisterPlugin(ctx, id)
	if err != nil {
		t.Fatalf("RegisterPlugin (second): %v", err)
	}
	if first != second {
		t.Fatalf("expected idempotent registration, got %v then %v", first, second)
	}
}

func TestImportTrackBackfillsArtistMbid(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pluginUUID := uuid.New()
	pluginID, err := s.RegisterPlugin(ctx, pluginUUID)
	if err != nil {
		t.Fatalf("RegisterPlugin: %v", err)
	}

	name := "Boards of Canada"
	t1 := tags.New("Roygbiv")
	t1.TrackArtist = &name

	if _, err := s.ImportTrack(ctx, plugin.UniqueTrackIdentifier{PluginID: pluginID, PluginData: "track-1"}, plugin.ScanResult{Tags: t1}); err != nil {
		t.Fatalf("ImportTrack (no mbid): %v", err)
	}

	mbid := uuid.New()
	t2 := tags.New("Music Is Math")
	t2.TrackArtist = &name
	if err := t2.Set(tags.NewKey(tags.KindMusicBrainzArtistID), tags.UUIDValue(mbid)); err != nil {
		t.Fatalf("Set mbid: %v", err)
	}

	if _, err := s.ImportTrack(ctx, plugin.UniqueTrackIdentifier{PluginID: pluginID, PluginData: "track-2"}, plugin.ScanResult{Tags: t2}); err != nil {
		t.Fatalf("ImportTrack (with mbid): %v", err)
	}

	var artistCount int
	if err := s.QueryRowContext(ctx, `SELECT COUNT(*) FROM artists WHERE name = ?`, name).Scan(&artistCount); err != nil {
		t.Fatalf("count artists: %v", err)
	}
	if artistCount != 1 {
		t.Fatalf("expected artist to be reused and backfilled, found %d rows for %q", artistCount, name)
	}

	var storedMbid string
	if err := s.QueryRowContext(ctx, `SELECT mbid FROM artists WHERE name = ?`, name).Scan(&storedMbid); err != nil {
		t.Fatalf("read mbid: %v", err)
	}
	if storedMbid != mbid.String() {
		t.Fatalf("mbid = %q, want %q (backfill from second import)", storedMbid, mbid.String())
	}
}

func TestImportTrackUpsertsOnRescan(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pluginUUID := uuid.New()
	pluginID, err := s.RegisterPlugin(ctx, pluginUUID)
	if err != nil {
		t.Fatalf("RegisterPlugin: %v", err)
	}

	ident := plugin.UniqueTrackIdentifier{PluginID: pluginID, PluginData: "same-track"}

	first, err := s.ImportTrack(ctx, ident, plugin.ScanResult{Tags: tags.New("Original Title")})
	if err != nil {
		t.Fatalf("ImportTrack: %v", err)
	}

	second, err := s.ImportTrack(ctx, ident, plugin.ScanResult{Tags: tags.New("Retagged Title")})
	if err != nil {
		t.Fatalf("ImportTrack (rescan): %v", err)
	}

	if first != second {
		t.Fatalf("expected rescan to update the same track row, got %v then %v", first, second)
	}

	var title string
	if err := s.QueryRowContext(ctx, `SELECT track_title FROM tracks WHERE track_id = ?`, int64(second)).Scan(&title); err != nil {
		t.Fatalf("read track_title: %v", err)
	}
	if title != "Retagged Title" {
		t.Fatalf("track_title = %q, want %q", title, "Retagged Title")
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Tracks != 1 {
		t.Fatalf("Stats.Tracks = %d, want 1 (rescan must not duplicate)", stats.Tracks)
	}
}

// TestImportTrackPopulatesTypedTagColumns confirms well-known tag
// fields land in their own columns and custom fields fall back to the
// blob, rather than everything collapsing into one opaque value.
func TestImportTrackPopulatesTypedTagColumns(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	pluginUUID := uuid.New()
	pluginID, err := s.RegisterPlugin(ctx, pluginUUID)
	if err != nil {
		t.Fatalf("RegisterPlugin: %v", err)
	}

	tg := tags.New("Geogaddi")
	genre := "IDM"
	tg.Genre = &genre
	if err := tg.Set(tags.NewKey(tags.KindBpm), tags.FloatValue(120.5)); err != nil {
		t.Fatalf("Set bpm: %v", err)
	}
	if err := tg.Set(tags.CustomKey("mood_board"), tags.StringValue("hazy")); err != nil {
		t.Fatalf("Set custom: %v", err)
	}

	ident := plugin.UniqueTrackIdentifier{PluginID: pluginID, PluginData: "track-1"}
	trackID, err := s.ImportTrack(ctx, ident, plugin.ScanResult{Tags: tg})
	if err != nil {
		t.Fatalf("ImportTrack: %v", err)
	}

	var gotGenre string
	var gotBpm float64
	var gotCustom []byte
	err = s.QueryRowContext(ctx,
		`SELECT genre, bpm, custom_tags_blob FROM tracks WHERE track_id = ?`, int64(trackID),
	).Scan(&gotGenre, &gotBpm, &gotCustom)
	if err != nil {
		t.Fatalf("read typed tag columns: %v", err)
	}
	if gotGenre != genre {
		t.Fatalf("genre column = %q, want %q", gotGenre, genre)
	}
	if gotBpm != 120.5 {
		t.Fatalf("bpm column = %v, want 120.5", gotBpm)
	}
	if len(gotCustom) == 0 {
		t.Fatalf("custom_tags_blob is empty, want the mood_board entry")
	}
}
