package catalog

import "github.com/melodia/melodiad/internal/tags"

// ArtistID, AlbumID, TrackGroupID, and TrackID are catalog-assigned row
// identifiers, distinct from any plugin- or MusicBrainz-provided id.
type (
	ArtistID     int64
	AlbumID      int64
	TrackGroupID int64
	TrackID      int64
)

// artistInfo is the artist-identifying subset of a track's tags: either
// the track artist or, separately, the album artist.
type artistInfo struct {
	name *string
	mbid *string
}

func (a artistInfo) isComplete() bool {
	return a.mbid != nil || a.name != nil
}

func artistInfoFromTags(t *tags.Tags) artistInfo {
	return artistInfo{name: t.TrackArtist, mbid: valueString(t.MusicBrainzArtistID)}
}

func albumArtistInfoFromTags(t *tags.Tags) artistInfo {
	return artistInfo{name: t.AlbumArtist, mbid: valueString(t.MusicBrainzReleaseArtistID)}
}

// albumInfo is the album-identifying subset of a track's tags.
type albumInfo struct {
	title       *string
	mbid        *string
	albumArtist artistInfo
	artist      artistInfo
}

func (a albumInfo) isComplete() bool {
	return a.mbid != nil || (a.title != nil && (a.albumArtist.isComplete() || a.artist.isComplete()))
}

func albumInfoFromTags(t *tags.Tags) albumInfo {
	return albumInfo{
		title:       t.AlbumTitle,
		mbid:        valueString(t.MusicBrainzReleaseGroupID),
		albumArtist: albumArtistInfoFromTags(t),
		artist:      artistInfoFromTags(t),
	}
}

// trackGroupInfo is the subset of a track's data used to cluster it
// with alternate versions of "the same" track (e.g. a live recording
// and a studio recording sharing a MusicBrainz track id).
type trackGroupInfo struct {
	title     string
	trackMbid *string
	albumID   *AlbumID
}

func trackGroupInfoFromTrack(title string, t *tags.Tags, albumID *AlbumID) trackGroupInfo {
	return trackGroupInfo{title: title, trackMbid: valueString(t.MusicBrainzTrackID), albumID: albumID}
}

// valueString extracts a tags.Value's text form, or nil if unset.
func valueString(v *tags.Value) *string {
	if v == nil {
		return nil
	}
	s := v.String()
	return &s
}
