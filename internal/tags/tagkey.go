// Package tags defines the track metadata model: the fixed set of tag
// keys a plugin's scan result can populate, and the Tags product type
// that holds them.
package tags

// Key identifies a single metadata field. The set is closed except for
// Custom, which carries an arbitrary plugin-defined name.
type Key struct {
	kind   Kind
	custom string
}

// Kind enumerates the known tag fields plus the Custom escape hatch.
// Field groupings mirror how tagging formats (ID3, Vorbis comments,
// MusicBrainz) categorize metadata.
type Kind int

const (
	KindUnknown Kind = iota

	// general
	KindTrackTitle
	KindMusicBrainzWorkID
	KindMusicBrainzTrackID
	KindMusicBrainzRecordingID
	KindTrackSubtitle
	KindTrackTitleSortOrder
	KindComment
	KindDescription
	KindLanguage
	KindScript
	KindLyrics

	// album
	KindAlbumTitle
	KindSetSubtitle
	KindMusicBrainzReleaseID
	KindOriginalAlbumTitle
	KindAlbumTitleSortOrder
	KindAlbumArtist
	KindMusicBrainzReleaseArtistID
	KindContentGroup
	KindMusicBrainzReleaseGroupID

	// artist
	KindTrackArtist
	KindTrackArtists
	KindMusicBrainzArtistID
	KindOriginalArtist
	KindAlbumArtistSortOrder
	KindTrackArtistSortOrder

	// show
	KindShowName
	KindShowNameSortOrder

	// style
	KindGenre
	KindInitialKey
	KindColor
	KindMood
	KindBpm

	// urls
	KindAudioFileURL
	KindAudioSourceURL
	KindCommercialInformationURL
	KindCopyrightURL
	KindTrackArtistURL
	KindRadioStationURL
	KindPaymentURL
	KindPublisherURL

	// numbering
	KindDiscNumber
	KindDiscTotal
	KindTrackNumber
	KindTrackTotal
	KindMovement
	KindMovementNumber
	KindMovementTotal

	// dates
	KindYear
	KindRecordingDate
	KindReleaseDate
	KindOriginalReleaseDate

	// file
	KindFileType
	KindFileOwner
	KindTaggingTime
	KindLength
	KindOriginalFileName
	KindOriginalMediaType

	// encoding
	KindEncodedBy
	KindEncoderSoftware
	KindEncoderSettings
	KindEncodingTime

	// replaygain
	KindReplayGainAlbumGain
	KindReplayGainAlbumPeak
	KindReplayGainTrackGain
	KindReplayGainTrackPeak

	// identification
	KindIsrc
	KindBarcode
	KindCatalogNumber
	KindWork

	// flags
	KindFlagCompilation
	KindFlagPodcast

	// legal
	KindCopyrightMessage
	KindLicense

	// misc
	KindPopularimeter
	KindParentalAdvisory

	// people
	KindArranger
	KindWriter
	KindComposer
	KindComposerSortOrder
	KindConductor
	KindDirector
	KindEngineer
	KindLyricist
	KindOriginalLyricist
	KindMixDJ
	KindMixEngineer
	KindMusicianCredits
	KindPerformer
	KindProducer
	KindPublisher
	KindLabel
	KindInternetRadioStationName
	KindInternetRadioStationOwner
	KindRemixer

	// podcast
	KindPodcastDescription
	KindPodcastSeriesCategory
	KindPodcastURL
	KindPodcastGlobalUniqueID
	KindPodcastKeywords

	// Custom must stay last: it is the only kind that carries a payload.
	KindCustom
)

// kindNames backs Key.String and the msgpack string encoding.
var kindNames = map[Kind]string{
	KindTrackTitle:                 "track_title",
	KindMusicBrainzWorkID:          "musicbrainz_work_id",
	KindMusicBrainzTrackID:         "musicbrainz_track_id",
	KindMusicBrainzRecordingID:     "musicbrainz_recording_id",
	KindTrackSubtitle:              "track_subtitle",
	KindTrackTitleSortOrder:        "track_title_sort_order",
	KindComment:                    "comment",
	KindDescription:                "description",
	KindLanguage:                   "language",
	KindScript:                     "script",
	KindLyrics:                     "lyrics",
	KindAlbumTitle:                 "album_title",
	KindSetSubtitle:                "set_subtitle",
	KindMusicBrainzReleaseID:       "musicbrainz_release_id",
	KindOriginalAlbumTitle:         "original_album_title",
	KindAlbumTitleSortOrder:        "album_title_sort_order",
	KindAlbumArtist:                "album_artist",
	KindMusicBrainzReleaseArtistID: "musicbrainz_release_artist_id",
	KindContentGroup:               "content_group",
	KindMusicBrainzReleaseGroupID:  "musicbrainz_release_group_id",
	KindTrackArtist:                "track_artist",
	KindTrackArtists:               "track_artists",
	KindMusicBrainzArtistID:        "musicbrainz_artist_id",
	KindOriginalArtist:             "original_artist",
	KindAlbumArtistSortOrder:       "album_artist_sort_order",
	KindTrackArtistSortOrder:       "track_artist_sort_order",
	KindShowName:                   "show_name",
	KindShowNameSortOrder:          "show_name_sort_order",
	KindGenre:                      "genre",
	KindInitialKey:                 "initial_key",
	KindColor:                      "color",
	KindMood:                       "mood",
	KindBpm:                        "bpm",
	KindAudioFileURL:               "audio_file_url",
	KindAudioSourceURL:             "audio_source_url",
	KindCommercialInformationURL:   "commercial_information_url",
	KindCopyrightURL:               "copyright_url",
	KindTrackArtistURL:             "track_artist_url",
	KindRadioStationURL:            "radio_station_url",
	KindPaymentURL:                 "payment_url",
	KindPublisherURL:               "publisher_url",
	KindDiscNumber:                 "disc_number",
	KindDiscTotal:                  "disc_total",
	KindTrackNumber:                "track_number",
	KindTrackTotal:                 "track_total",
	KindMovement:                   "movement",
	KindMovementNumber:             "movement_number",
	KindMovementTotal:              "movement_total",
	KindYear:                       "year",
	KindRecordingDate:              "recording_date",
	KindReleaseDate:                "release_date",
	KindOriginalReleaseDate:        "original_release_date",
	KindFileType:                   "file_type",
	KindFileOwner:                  "file_owner",
	KindTaggingTime:                "tagging_time",
	KindLength:                     "length",
	KindOriginalFileName:           "original_file_name",
	KindOriginalMediaType:          "original_media_type",
	KindEncodedBy:                  "encoded_by",
	KindEncoderSoftware:            "encoder_software",
	KindEncoderSettings:            "encoder_settings",
	KindEncodingTime:               "encoding_time",
	KindReplayGainAlbumGain:        "replaygain_album_gain",
	KindReplayGainAlbumPeak:        "replaygain_album_peak",
	KindReplayGainTrackGain:        "replaygain_track_gain",
	KindReplayGainTrackPeak:        "replaygain_track_peak",
	KindIsrc:                       "isrc",
	KindBarcode:                    "barcode",
	KindCatalogNumber:              "catalog_number",
	KindWork:                       "work",
	KindFlagCompilation:            "flag_compilation",
	KindFlagPodcast:                "flag_podcast",
	KindCopyrightMessage:           "copyright_message",
	KindLicense:                    "license",
	KindPopularimeter:              "popularimeter",
	KindParentalAdvisory:           "parental_advisory",
	KindArranger:                   "arranger",
	KindWriter:                     "writer",
	KindComposer:                   "composer",
	KindComposerSortOrder:          "composer_sort_order",
	KindConductor:                  "conductor",
	KindDirector:                   "director",
	KindEngineer:                   "engineer",
	KindLyricist:                   "lyricist",
	KindOriginalLyricist:           "original_lyricist",
	KindMixDJ:                      "mix_dj",
	KindMixEngineer:                "mix_engineer",
	KindMusicianCredits:            "musician_credits",
	KindPerformer:                  "performer",
	KindProducer:                   "producer",
	KindPublisher:                  "publisher",
	KindLabel:                      "label",
	KindInternetRadioStationName:   "internet_radio_station_name",
	KindInternetRadioStationOwner:  "internet_radio_station_owner",
	KindRemixer:                    "remixer",
	KindPodcastDescription:         "podcast_description",
	KindPodcastSeriesCategory:      "podcast_series_category",
	KindPodcastURL:                 "podcast_url",
	KindPodcastGlobalUniqueID:      "podcast_global_unique_id",
	KindPodcastKeywords:            "podcast_keywords",
}

var namesToKind = func() map[string]Kind {
	m := make(map[string]Kind, len(kindNames))
	for k, v := range kindNames {
		m[v] = k
	}
	return m
}()

// NewKey builds a well-known Key from its Kind. Use CustomKey for
// plugin-defined field names.
func NewKey(kind Kind) Key {
	return Key{kind: kind}
}

// CustomKey builds a plugin-defined Key carrying an arbitrary name.
func CustomKey(name string) Key {
	return Key{kind: KindCustom, custom: name}
}

// Kind reports the key's Kind.
func (k Key) Kind() Kind { return k.kind }

// Name returns the plugin-defined name for a KindCustom key, or "" for
// any other kind.
func (k Key) Name() string { return k.custom }

// String renders the key as the wire name used in TagKind dispatch and
// msgpack encoding.
func (k Key) String() string {
	if k.kind == KindCustom {
		return k.custom
	}
	if name, ok := kindNames[k.kind]; ok {
		return name
	}
	return "unknown"
}

// ParseKey resolves a wire name back into a Key, falling back to
// KindCustom when the name isn't one of the well-known fields.
func ParseKey(name string) Key {
	if kind, ok := namesToKind[name]; ok {
		return Key{kind: kind}
	}
	return CustomKey(name)
}
