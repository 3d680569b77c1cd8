package tags

import (
	"fmt"

	"github.com/vmihailenco/msgpack/v5"
)

// Tags is the metadata a plugin reports for one track. It is a product
// type — one named field per well-known Kind — rather than a bag of
// key/value pairs, so callers that only care about a handful of fields
// (the catalog importer wants TrackTitle, AlbumTitle, TrackArtist and a
// few MusicBrainz ids) get compile-time field access. Dynamic access by
// Key is still available through Get/Set for code that walks every
// populated field, such as the catalog's dynamic column writer.
//
// TrackTitle is the only mandatory field; every other field is a pointer
// so its absence is distinguishable from an empty string.
type Tags struct {
	TrackTitle string

	MusicBrainzWorkID      *Value
	MusicBrainzTrackID     *Value
	MusicBrainzRecordingID *Value
	TrackSubtitle          *string
	TrackTitleSortOrder    *string
	Comment                *string
	Description            *string
	Language               *string
	Script                 *string
	Lyrics                 *string

	AlbumTitle                 *string
	SetSubtitle                *string
	MusicBrainzReleaseID       *Value
	OriginalAlbumTitle         *string
	AlbumTitleSortOrder        *string
	AlbumArtist                *string
	MusicBrainzReleaseArtistID *Value
	ContentGroup               *string
	MusicBrainzReleaseGroupID  *Value

	TrackArtist          *string
	TrackArtists         *string
	MusicBrainzArtistID  *Value
	OriginalArtist       *string
	AlbumArtistSortOrder *string
	TrackArtistSortOrder *string

	ShowName          *string
	ShowNameSortOrder *string

	Genre      *string
	InitialKey *string
	Color      *string
	Mood       *string
	Bpm        *Value

	AudioFileURL             *string
	AudioSourceURL           *string
	CommercialInformationURL *string
	CopyrightURL             *string
	TrackArtistURL           *string
	RadioStationURL          *string
	PaymentURL               *string
	PublisherURL             *string

	DiscNumber     *string
	DiscTotal      *string
	TrackNumber    *string
	TrackTotal     *string
	Movement       *string
	MovementNumber *string
	MovementTotal  *string

	Year                *string
	RecordingDate       *string
	ReleaseDate         *string
	OriginalReleaseDate *string

	FileType          *string
	FileOwner         *string
	TaggingTime       *string
	Length            *string
	OriginalFileName  *string
	OriginalMediaType *string

	EncodedBy       *string
	EncoderSoftware *string
	EncoderSettings *string
	EncodingTime    *string

	ReplayGainAlbumGain *Value
	ReplayGainAlbumPeak *Value
	ReplayGainTrackGain *Value
	ReplayGainTrackPeak *Value

	Isrc          *string
	Barcode       *string
	CatalogNumber *string
	Work          *string

	FlagCompilation *string
	FlagPodcast     *string

	CopyrightMessage *string
	License          *string

	Popularimeter    *string
	ParentalAdvisory *string

	Arranger                  *string
	Writer                    *string
	Composer                  *string
	ComposerSortOrder         *string
	Conductor                 *string
	Director                  *string
	Engineer                  *string
	Lyricist                  *string
	OriginalLyricist          *string
	MixDJ                     *string
	MixEngineer               *string
	MusicianCredits           *string
	Performer                 *string
	Producer                  *string
	Publisher                 *string
	Label                     *string
	InternetRadioStationName  *string
	InternetRadioStationOwner *string
	Remixer                   *string

	PodcastDescription    *string
	PodcastSeriesCategory *string
	PodcastURL            *string
	PodcastGlobalUniqueID *Value
	PodcastKeywords       *string

	// Custom holds plugin-defined fields keyed by their wire name.
	Custom map[string]Value
}

// New returns Tags with only the mandatory TrackTitle populated.
func New(trackTitle string) *Tags {
	return &Tags{TrackTitle: trackTitle, Custom: map[string]Value{}}
}

// Get returns the value stored under key, or false if the field is unset.
func (t *Tags) Get(key Key) (Value, bool) {
	if key.Kind() == KindTrackTitle {
		return StringValue(t.TrackTitle), true
	}
	if key.Kind() == KindCustom {
		v, ok := t.Custom[key.Name()]
		return v, ok
	}
	ptr := t.fieldPtr(key.Kind())
	if ptr == nil {
		return Value{}, false
	}
	switch p := ptr.(type) {
	case **string:
		if *p == nil {
			return Value{}, false
		}
		return StringValue(**p), true
	case **Value:
		if *p == nil {
			return Value{}, false
		}
		return **p, true
	}
	return Value{}, false
}

// Set stores v under key, creating the Custom map on first use.
func (t *Tags) Set(key Key, v Value) error {
	if key.Kind() == KindTrackTitle {
		t.TrackTitle = v.String()
		return nil
	}
	if key.Kind() == KindCustom {
		if t.Custom == nil {
			t.Custom = map[string]Value{}
		}
		t.Custom[key.Name()] = v
		return nil
	}
	ptr := t.fieldPtr(key.Kind())
	if ptr == nil {
		return fmt.Errorf("tags: unknown field kind %d", key.Kind())
	}
	switch p := ptr.(type) {
	case **string:
		s := v.String()
		*p = &s
	case **Value:
		vv := v
		*p = &vv
	default:
		return fmt.Errorf("tags: field kind %d has unexpected storage type", key.Kind())
	}
	return nil
}

// fieldPtr returns the address of the struct field backing kind, as
// **string or **Value depending on the field's declared type. Returns
// nil for KindTrackTitle (handled specially, it is non-pointer) and
// KindCustom (handled via the Custom map).
func (t *Tags) fieldPtr(kind Kind) any {
	switch kind {
	case KindMusicBrainzWorkID:
		return &t.MusicBrainzWorkID
	case KindMusicBrainzTrackID:
		return &t.MusicBrainzTrackID
	case KindMusicBrainzRecordingID:
		return &t.MusicBrainzRecordingID
	case KindTrackSubtitle:
		return &t.TrackSubtitle
	case KindTrackTitleSortOrder:
		return &t.TrackTitleSortOrder
	case KindComment:
		return &t.Comment
	case KindDescription:
		return &t.Description
	case KindLanguage:
		return &t.Language
	case KindScript:
		return &t.Script
	case KindLyrics:
		return &t.Lyrics
	case KindAlbumTitle:
		return &t.AlbumTitle
	case KindSetSubtitle:
		return &t.SetSubtitle
	case KindMusicBrainzReleaseID:
		return &t.MusicBrainzReleaseID
	case KindOriginalAlbumTitle:
		return &t.OriginalAlbumTitle
	case KindAlbumTitleSortOrder:
		return &t.AlbumTitleSortOrder
	case KindAlbumArtist:
		return &t.AlbumArtist
	case KindMusicBrainzReleaseArtistID:
		return &t.MusicBrainzReleaseArtistID
	case KindContentGroup:
		return &t.ContentGroup
	case KindMusicBrainzReleaseGroupID:
		return &t.MusicBrainzReleaseGroupID
	case KindTrackArtist:
		return &t.TrackArtist
	case KindTrackArtists:
		return &t.TrackArtists
	case KindMusicBrainzArtistID:
		return &t.MusicBrainzArtistID
	case KindOriginalArtist:
		return &t.OriginalArtist
	case KindAlbumArtistSortOrder:
		return &t.AlbumArtistSortOrder
	case KindTrackArtistSortOrder:
		return &t.TrackArtistSortOrder
	case KindShowName:
		return &t.ShowName
	case KindShowNameSortOrder:
		return &t.ShowNameSortOrder
	case KindGenre:
		return &t.Genre
	case KindInitialKey:
		return &t.InitialKey
	case KindColor:
		return &t.Color
	case KindMood:
		return &t.Mood
	case KindBpm:
		return &t.Bpm
	case KindAudioFileURL:
		return &t.AudioFileURL
	case KindAudioSourceURL:
		return &t.AudioSourceURL
	case KindCommercialInformationURL:
		return &t.CommercialInformationURL
	case KindCopyrightURL:
		return &t.CopyrightURL
	case KindTrackArtistURL:
		return &t.TrackArtistURL
	case KindRadioStationURL:
		return &t.RadioStationURL
	case KindPaymentURL:
		return &t.PaymentURL
	case KindPublisherURL:
		return &t.PublisherURL
	case KindDiscNumber:
		return &t.DiscNumber
	case KindDiscTotal:
		return &t.DiscTotal
	case KindTrackNumber:
		return &t.TrackNumber
	case KindTrackTotal:
		return &t.TrackTotal
	case KindMovement:
		return &t.Movement
	case KindMovementNumber:
		return &t.MovementNumber
	case KindMovementTotal:
		return &t.MovementTotal
	case KindYear:
		return &t.Year
	case KindRecordingDate:
		return &t.RecordingDate
	case KindReleaseDate:
		return &t.ReleaseDate
	case KindOriginalReleaseDate:
		return &t.OriginalReleaseDate
	case KindFileType:
		return &t.FileType
	case KindFileOwner:
		return &t.FileOwner
	case KindTaggingTime:
		return &t.TaggingTime
	case KindLength:
		return &t.Length
	case KindOriginalFileName:
		return &t.OriginalFileName
	case KindOriginalMediaType:
		return &t.OriginalMediaType
	case KindEncodedBy:
		return &t.EncodedBy
	case KindEncoderSoftware:
		return &t.EncoderSoftware
	case KindEncoderSettings:
		return &t.EncoderSettings
	case KindEncodingTime:
		return &t.EncodingTime
	case KindReplayGainAlbumGain:
		return &t.ReplayGainAlbumGain
	case KindReplayGainAlbumPeak:
		return &t.ReplayGainAlbumPeak
	case KindReplayGainTrackGain:
		return &t.ReplayGainTrackGain
	case KindReplayGainTrackPeak:
		return &t.ReplayGainTrackPeak
	case KindIsrc:
		return &t.Isrc
	case KindBarcode:
		return &t.Barcode
	case KindCatalogNumber:
		return &t.CatalogNumber
	case KindWork:
		return &t.Work
	case KindFlagCompilation:
		return &t.FlagCompilation
	case KindFlagPodcast:
		return &t.FlagPodcast
	case KindCopyrightMessage:
		return &t.CopyrightMessage
	case KindLicense:
		return &t.License
	case KindPopularimeter:
		return &t.Popularimeter
	case KindParentalAdvisory:
		return &t.ParentalAdvisory
	case KindArranger:
		return &t.Arranger
	case KindWriter:
		return &t.Writer
	case KindComposer:
		return &t.Composer
	case KindComposerSortOrder:
		return &t.ComposerSortOrder
	case KindConductor:
		return &t.Conductor
	case KindDirector:
		return &t.Director
	case KindEngineer:
		return &t.Engineer
	case KindLyricist:
		return &t.Lyricist
	case KindOriginalLyricist:
		return &t.OriginalLyricist
	case KindMixDJ:
		return &t.MixDJ
	case KindMixEngineer:
		return &t.MixEngineer
	case KindMusicianCredits:
		return &t.MusicianCredits
	case KindPerformer:
		return &t.Performer
	case KindProducer:
		return &t.Producer
	case KindPublisher:
		return &t.Publisher
	case KindLabel:
		return &t.Label
	case KindInternetRadioStationName:
		return &t.InternetRadioStationName
	case KindInternetRadioStationOwner:
		return &t.InternetRadioStationOwner
	case KindRemixer:
		return &t.Remixer
	case KindPodcastDescription:
		return &t.PodcastDescription
	case KindPodcastSeriesCategory:
		return &t.PodcastSeriesCategory
	case KindPodcastURL:
		return &t.PodcastURL
	case KindPodcastGlobalUniqueID:
		return &t.PodcastGlobalUniqueID
	case KindPodcastKeywords:
		return &t.PodcastKeywords
	default:
		return nil
	}
}

// allKinds lists every well-known Kind in declaration order, used by
// Each and by the msgpack (de)serializer.
var allKinds = []Kind{
	KindMusicBrainzWorkID, KindMusicBrainzTrackID, KindMusicBrainzRecordingID,
	KindTrackSubtitle, KindTrackTitleSortOrder, KindComment, KindDescription,
	KindLanguage, KindScript, KindLyrics,
	KindAlbumTitle, KindSetSubtitle, KindMusicBrainzReleaseID, KindOriginalAlbumTitle,
	KindAlbumTitleSortOrder, KindAlbumArtist, KindMusicBrainzReleaseArtistID,
	KindContentGroup, KindMusicBrainzReleaseGroupID,
	KindTrackArtist, KindTrackArtists, KindMusicBrainzArtistID, KindOriginalArtist,
	KindAlbumArtistSortOrder, KindTrackArtistSortOrder,
	KindShowName, KindShowNameSortOrder,
	KindGenre, KindInitialKey, KindColor, KindMood, KindBpm,
	KindAudioFileURL, KindAudioSourceURL, KindCommercialInformationURL, KindCopyrightURL,
	KindTrackArtistURL, KindRadioStationURL, KindPaymentURL, KindPublisherURL,
	KindDiscNumber, KindDiscTotal, KindTrackNumber, KindTrackTotal,
	KindMovement, KindMovementNumber, KindMovementTotal,
	KindYear, KindRecordingDate, KindReleaseDate, KindOriginalReleaseDate,
	KindFileType, KindFileOwner, KindTaggingTime, KindLength,
	KindOriginalFileName, KindOriginalMediaType,
	KindEncodedBy, KindEncoderSoftware, KindEncoderSettings, KindEncodingTime,
	KindReplayGainAlbumGain, KindReplayGainAlbumPeak, KindReplayGainTrackGain, KindReplayGainTrackPeak,
	KindIsrc, KindBarcode, KindCatalogNumber, KindWork,
	KindFlagCompilation, KindFlagPodcast,
	KindCopyrightMessage, KindLicense,
	KindPopularimeter, KindParentalAdvisory,
	KindArranger, KindWriter, KindComposer, KindComposerSortOrder, KindConductor,
	KindDirector, KindEngineer, KindLyricist, KindOriginalLyricist, KindMixDJ,
	KindMixEngineer, KindMusicianCredits, KindPerformer, KindProducer, KindPublisher,
	KindLabel, KindInternetRadioStationName, KindInternetRadioStationOwner, KindRemixer,
	KindPodcastDescription, KindPodcastSeriesCategory, KindPodcastURL,
	KindPodcastGlobalUniqueID, KindPodcastKeywords,
}

// AllKinds returns every well-known tag Kind, excluding TrackTitle and
// Custom, in the fixed order Each walks them. The catalog package uses
// this to enumerate one typed column per field instead of collapsing
// the tag set into a blob.
func AllKinds() []Kind {
	out := make([]Kind, len(allKinds))
	copy(out, allKinds)
	return out
}

// Each calls fn for every populated field, well-known and custom alike.
// MarshalMsgpack uses this to walk a Tags value without knowing its
// field set ahead of time.
func (t *Tags) Each(fn func(key Key, v Value)) {
	fn(NewKey(KindTrackTitle), StringValue(t.TrackTitle))
	for _, kind := range allKinds {
		if v, ok := t.Get(NewKey(kind)); ok {
			fn(NewKey(kind), v)
		}
	}
	for name, v := range t.Custom {
		fn(CustomKey(name), v)
	}
}

// wireTags is the on-the-wire shape a plugin's scan result actually
// uses: a flat map of tag name to string value, matching the protocol's
// length-prefixed msgpack map encoding. Tags itself stays a product type
// in memory; this type only exists at the (de)serialization boundary.
type wireTags map[string]string

// MarshalMsgpack implements msgpack.Marshaler.
func (t *Tags) MarshalMsgpack() ([]byte, error) {
	w := make(wireTags, len(allKinds)+len(t.Custom)+1)
	w[NewKey(KindTrackTitle).String()] = t.TrackTitle
	t.Each(func(key Key, v Value) {
		if key.Kind() == KindTrackTitle {
			return
		}
		w[key.String()] = v.String()
	})
	return msgpack.Marshal(map[string]string(w))
}

// UnmarshalMsgpack implements msgpack.Unmarshaler.
func (t *Tags) UnmarshalMsgpack(data []byte) error {
	var w wireTags
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("tags: decode: %w", err)
	}
	*t = Tags{Custom: map[string]Value{}}
	for name, s := range w {
		key := ParseKey(name)
		if key.Kind() == KindTrackTitle {
			t.TrackTitle = s
			continue
		}
		if err := t.Set(key, parseValueForKind(key.Kind(), s)); err != nil {
			return err
		}
	}
	return nil
}
