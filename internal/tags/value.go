package tags

import (
	"fmt"

	"github.com/google/uuid"
)

// ValueKind discriminates the payload carried by a Value.
type ValueKind int

const (
	ValueString ValueKind = iota
	ValueUUID
	ValueFloat
)

// Value is the oneof a tag field can hold: free text, a MusicBrainz-style
// identifier, or a numeric measurement (BPM, ReplayGain levels).
type Value struct {
	kind ValueKind
	str  string
	id   uuid.UUID
	num  float64
}

// StringValue wraps a text payload.
func StringValue(s string) Value { return Value{kind: ValueString, str: s} }

// UUIDValue wraps an identifier payload.
func UUIDValue(id uuid.UUID) Value { return Value{kind: ValueUUID, id: id} }

// FloatValue wraps a numeric payload.
func FloatValue(f float64) Value { return Value{kind: ValueFloat, num: f} }

// Kind reports which payload is live.
func (v Value) Kind() ValueKind { return v.kind }

// String renders the value as text regardless of its underlying kind,
// the representation every tag is stored as on the wire.
func (v Value) String() string {
	switch v.kind {
	case ValueUUID:
		return v.id.String()
	case ValueFloat:
		return fmt.Sprintf("%g", v.num)
	default:
		return v.str
	}
}

// AsUUID returns the identifier payload, or an error if the value isn't
// UUID-kinded.
func (v Value) AsUUID() (uuid.UUID, error) {
	if v.kind != ValueUUID {
		return uuid.Nil, fmt.Errorf("tags: value is not a UUID")
	}
	return v.id, nil
}

// AsFloat returns the numeric payload, or an error if the value isn't
// float-kinded.
func (v Value) AsFloat() (float64, error) {
	if v.kind != ValueFloat {
		return 0, fmt.Errorf("tags: value is not a float")
	}
	return v.num, nil
}

// parseValueForKind interprets a wire string as the Value shape expected
// for the given field kind, used when decoding msgpack and when a plugin
// hands back plain strings for every field.
func parseValueForKind(kind Kind, s string) Value {
	switch kind {
	case KindMusicBrainzWorkID, KindMusicBrainzTrackID, KindMusicBrainzRecordingID,
		KindMusicBrainzReleaseID, KindMusicBrainzReleaseArtistID, KindMusicBrainzReleaseGroupID,
		KindMusicBrainzArtistID, KindPodcastGlobalUniqueID:
		if id, err := uuid.Parse(s); err == nil {
			return UUIDValue(id)
		}
		return StringValue(s)
	case KindBpm, KindReplayGainAlbumGain, KindReplayGainAlbumPeak,
		KindReplayGainTrackGain, KindReplayGainTrackPeak:
		var f float64
		if _, err := fmt.Sscanf(s, "%g", &f); err == nil {
			return FloatValue(f)
		}
		return StringValue(s)
	default:
		return StringValue(s)
	}
}
