package scan

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/melodia/melodiad/internal/catalog"
	"github.com/melodia/melodiad/internal/plugin"
	"github.com/melodia/melodiad/internal/tags"
)

// fakeInstance answers prepare_scan/scan the way a provide_tracks
// plugin would, without a real sandbox.
type fakeInstance struct {
	tracks []plugin.TrackIdentifier
	titles map[plugin.TrackIdentifier]string
}

func (f *fakeInstance) PrepareScan(ctx context.Context) (plugin.PreparedScan, error) {
	return plugin.PreparedScan{Tracks: f.tracks}, nil
}

func (f *fakeInstance) Scan(ctx context.Context, track plugin.TrackIdentifier) (plugin.ScanResult, error) {
	title, ok := f.titles[track]
	if !ok {
		return plugin.ScanResult{}, fmt.Errorf("fake provider: unknown track %q", track)
	}
	return plugin.ScanResult{Tags: tags.New(title)}, nil
}

type fakeHandle struct{ inst ProviderInstance }

func (h fakeHandle) Instance() ProviderInstance { return h.inst }
func (h fakeHandle) Release()                   {}

type fakeProvider struct {
	metadata plugin.Metadata
	inst     ProviderInstance
}

func (p fakeProvider) Acquire(ctx context.Context) (ProviderHandle, error) {
	return fakeHandle{p.inst}, nil
}

func (p fakeProvider) Metadata() plugin.Metadata { return p.metadata }

func openTestStore(t *testing.T) *catalog.Store {
	t.Helper()
	s, err := catalog.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func drainProgress(t *testing.T, h *Handle) Progress {
	t.Helper()
	var final Progress
	for p := range h.Updates() {
		final = p
	}
	if !final.Done {
		t.Fatalf("final progress missing Done, got %+v", final)
	}
	return final
}

// TestPipelineRunScansAndPersistsTracks exercises Run end to end: one
// provider plugin offers two tracks, both get scanned and imported, and
// the catalog's stats reflect them afterward.
func TestPipelineRunScansAndPersistsTracks(t *testing.T) {
	store := openTestStore(t)

	inst := &fakeInstance{
		tracks: []plugin.TrackIdentifier{"track-1", "track-2"},
		titles: map[plugin.TrackIdentifier]string{
			"track-1": "First Light",
			"track-2": "Second Wind",
		},
	}

	p := New(&plugin.Registry{}, store, 2, 0)
	p.resolveProviders = func(ctx context.Context) map[plugin.ID]Provider {
		return map[plugin.ID]Provider{
			1: fakeProvider{metadata: plugin.Metadata{Name: "fake"}, inst: inst},
		}
	}

	final := drainProgress(t, p.Run(context.Background()))
	if final.Err != nil {
		t.Fatalf("scan reported error: %v", final.Err)
	}

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Tracks != 2 {
		t.Fatalf("Stats.Tracks = %d, want 2", stats.Tracks)
	}
}

func TestPipelineRunWithNoProvidersFinishesImmediately(t *testing.T) {
	store := openTestStore(t)

	p := New(&plugin.Registry{}, store, 1, 0)
	p.resolveProviders = func(ctx context.Context) map[plugin.ID]Provider {
		return map[plugin.ID]Provider{}
	}

	final := drainProgress(t, p.Run(context.Background()))
	if final.Percent != 100 {
		t.Fatalf("final progress Percent = %v, want 100", final.Percent)
	}
}

// TestPipelineRunSkipsTracksThatFailToScan proves one provider's scan
// error doesn't abort the whole pass: the other track still gets
// imported.
func TestPipelineRunSkipsTracksThatFailToScan(t *testing.T) {
	store := openTestStore(t)

	inst := &fakeInstance{
		tracks: []plugin.TrackIdentifier{"ok", "missing"},
		titles: map[plugin.TrackIdentifier]string{"ok": "Only This One"},
	}

	p := New(&plugin.Registry{}, store, 2, 0)
	p.resolveProviders = func(ctx context.Context) map[plugin.ID]Provider {
		return map[plugin.ID]Provider{
			1: fakeProvider{metadata: plugin.Metadata{Name: "fake"}, inst: inst},
		}
	}

	drainProgress(t, p.Run(context.Background()))

	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Tracks != 1 {
		t.Fatalf("Stats.Tracks = %d, want 1", stats.Tracks)
	}
}

func TestPipelinePrepareScansFlattensEveryProvidersTracks(t *testing.T) {
	p := &Pipeline{workers: 2}
	providers := map[plugin.ID]Provider{
		1: fakeProvider{inst: &fakeInstance{tracks: []plugin.TrackIdentifier{"a", "b"}}},
		2: fakeProvider{inst: &fakeInstance{tracks: []plugin.TrackIdentifier{"c"}}},
	}

	tracks := p.prepareScans(context.Background(), providers, newHandle())
	if len(tracks) != 3 {
		t.Fatalf("prepareScans returned %d tracks, want 3", len(tracks))
	}
}

func TestPipelineScanOneSurfacesPerTrackErrors(t *testing.T) {
	p := &Pipeline{workers: 1}
	track := scannableTrack{
		pluginID: 1,
		pool:     fakeProvider{inst: &fakeInstance{titles: map[plugin.TrackIdentifier]string{}}},
		track:    "missing",
	}

	if _, err := p.scanOne(context.Background(), track); err == nil {
		t.Fatal("scanOne with an unknown track returned nil error")
	}
}
