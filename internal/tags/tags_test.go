package tags

import (
	"testing"

	"github.com/google/uuid"
)

func TestTagsRoundTrip(t *testing.T) {
	original := New("Test Track")
	original.AlbumTitle = strPtr("Test Album")
	original.TrackArtist = strPtr("Test Artist")

	mbid := uuid.New()
	if err := original.Set(NewKey(KindMusicBrainzTrackID), UUIDValue(mbid)); err != nil {
		t.Fatalf("Set mbid: %v", err)
	}
	if err := original.Set(NewKey(KindBpm), FloatValue(128.5)); err != nil {
		t.Fatalf("Set bpm: %v", err)
	}
	if err := original.Set(CustomKey("x-custom-field"), StringValue("hello")); err != nil {
		t.Fatalf("Set custom: %v", err)
	}

	data, err := original.MarshalMsgpack()
	if err != nil {
		t.Fatalf("MarshalMsgpack: %v", err)
	}

	var decoded Tags
	if err := decoded.UnmarshalMsgpack(data); err != nil {
		t.Fatalf("UnmarshalMsgpack: %v", err)
	}

	if decoded.TrackTitle != "Test Track" {
		t.Errorf("TrackTitle = %q, want %q", decoded.TrackTitle, "Test Track")
	}
	if decoded.AlbumTitle == nil || *decoded.AlbumTitle != "Test Album" {
		t.Errorf("AlbumTitle = %v, want Test Album", decoded.AlbumTitle)
	}

	gotMbid, ok := decoded.Get(NewKey(KindMusicBrainzTrackID))
	if !ok {
		t.Fatal("expected MusicBrainzTrackID to be set")
	}
	gotUUID, err := gotMbid.AsUUID()
	if err != nil {
		t.Fatalf("AsUUID: %v", err)
	}
	if gotUUID != mbid {
		t.Errorf("mbid = %v, want %v", gotUUID, mbid)
	}

	gotBpm, ok := decoded.Get(NewKey(KindBpm))
	if !ok {
		t.Fatal("expected Bpm to be set")
	}
	bpmFloat, err := gotBpm.AsFloat()
	if err != nil {
		t.Fatalf("AsFloat: %v", err)
	}
	if bpmFloat != 128.5 {
		t.Errorf("bpm = %v, want 128.5", bpmFloat)
	}

	custom, ok := decoded.Get(CustomKey("x-custom-field"))
	if !ok {
		t.Fatal("expected custom field to round-trip")
	}
	if custom.String() != "hello" {
		t.Errorf("custom = %q, want hello", custom.String())
	}
}

func TestTagKeyParseUnknownIsCustom(t *testing.T) {
	key := ParseKey("some-vendor-specific-field")
	if key.Kind() != KindCustom {
		t.Fatalf("expected unknown field name to parse as KindCustom, got %v", key.Kind())
	}
	if key.Name() != "some-vendor-specific-field" {
		t.Fatalf("Name() = %q", key.Name())
	}
}

func TestTagKeyWellKnownRoundTrip(t *testing.T) {
	for _, kind := range allKinds {
		name := NewKey(kind).String()
		if name == "unknown" || name == "" {
			t.Fatalf("kind %d has no wire name", kind)
		}
		if parsed := ParseKey(name); parsed.Kind() != kind {
			t.Errorf("ParseKey(%q).Kind() = %v, want %v", name, parsed.Kind(), kind)
		}
	}
}

func strPtr(s string) *string { return &s }
