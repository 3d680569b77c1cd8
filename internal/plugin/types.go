// Package plugin implements the sandboxed plugin ABI: loading a
// WebAssembly module through extism, deriving its capabilities,
// invoking its typed functions, and pooling instances so callers never
// share one sandbox across concurrent calls. A plugin that declares
// decode serialization required is limited to a single instance.
package plugin

import (
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/melodia/melodiad/internal/tags"
)

// ID is the compact, catalog-assigned identifier for a registered
// plugin, distinct from its stable Metadata.UUID.
type ID int32

// TrackIdentifier is an opaque, plugin-defined string a provider plugin
// uses to refer to one of its own tracks across calls.
type TrackIdentifier string

// UniqueTrackIdentifier disambiguates a TrackIdentifier across plugins:
// the same string from two different provider plugins names two
// different tracks.
type UniqueTrackIdentifier struct {
	PluginID   ID              `msgpack:"plugin_id"`
	PluginData TrackIdentifier `msgpack:"plugin_data"`
}

// PlaybackID names one in-flight decode session so a plugin can hold
// per-session decoder state across init_decoding/decode_block/
// finish_decoding calls.
type PlaybackID uuid.UUID

// NewPlaybackID mints a fresh playback session identifier.
func NewPlaybackID() PlaybackID { return PlaybackID(uuid.New()) }

func (p PlaybackID) String() string { return uuid.UUID(p).String() }

// FsMount is one directory or file a plugin's sandbox needs mounted to
// do its work, along with a human-readable reason shown to the operator
// before granting it.
type FsMount struct {
	InternalPath string `msgpack:"internal_path"`
	Description  string `msgpack:"description"`
}

// Metadata is the static identity a plugin reports from get_metadata. It
// never changes for the lifetime of a loaded module.
type Metadata struct {
	Name        string    `msgpack:"name"`
	UUID        uuid.UUID `msgpack:"uuid"`
	Description *string   `msgpack:"description"`
	Author      *string   `msgpack:"author"`
	FsMounts    []FsMount `msgpack:"fs_mounts"`

	// AllowConcurrency is true when the plugin is safe to run as
	// multiple concurrent instances. This is the logical inverse of the
	// wire field decode_serialization_required; see UnmarshalMsgpack.
	AllowConcurrency bool
}

// wireMetadata mirrors the actual get_metadata payload. Metadata itself
// exposes the logically inverted, positively-named AllowConcurrency
// instead of carrying the wire field's double negative into the rest of
// the package.
type wireMetadata struct {
	Name                        string    `msgpack:"name"`
	UUID                        uuid.UUID `msgpack:"uuid"`
	Description                 *string   `msgpack:"description"`
	Author                      *string   `msgpack:"author"`
	FsMounts                    []FsMount `msgpack:"fs_mounts"`
	DecodeSerializationRequired bool      `msgpack:"decode_serialization_required"`
}

// UnmarshalMsgpack implements msgpack.Unmarshaler, mapping the wire
// field decode_serialization_required onto AllowConcurrency with its
// polarity inverted.
func (m *Metadata) UnmarshalMsgpack(data []byte) error {
	var w wireMetadata
	if err := msgpack.Unmarshal(data, &w); err != nil {
		return err
	}
	m.Name = w.Name
	m.UUID = w.UUID
	m.Description = w.Description
	m.Author = w.Author
	m.FsMounts = w.FsMounts
	m.AllowConcurrency = !w.DecodeSerializationRequired
	return nil
}

// Capabilities is derived, not reported: a plugin has a capability when
// every function it requires is exported from the module.
type Capabilities struct {
	ProvideTracks bool
	Decode        bool
}

// provideTracksFuncs and decodeFuncs list, per capability, the exported
// functions whose presence grants it.
var (
	provideTracksFuncs = []string{"prepare_scan", "scan", "get_audio_file"}
	decodeFuncs        = []string{"init_decoding", "decode_block", "finish_decoding"}
)

// PreparedScan is the result of a provide_tracks plugin's prepare_scan
// call: every track it is willing to offer for this scan pass.
type PreparedScan struct {
	Tracks []TrackIdentifier `msgpack:"tracks"`
}

// ScanResult is one track's metadata, as reported by its provider
// plugin's scan call.
type ScanResult struct {
	Tags *tags.Tags `msgpack:"tags"`
}

// AudioFile describes the bytes a provider plugin hands to a decoder
// plugin: either an in-sandbox path or an opaque byte blob, plus a MIME
// hint so decoders can fast-reject formats they don't support.
type AudioFile struct {
	Path     *string `msgpack:"path"`
	Data     []byte  `msgpack:"data"`
	MimeType *string `msgpack:"mime_type"`
}

// SampleRate is in Hz.
type SampleRate uint32

// ChannelCount is the number of interleaved audio channels.
type ChannelCount uint16

// Sample is one PCM sample, stored as a normalized float32 in [-1, 1].
type Sample float32

// DecodeInit is returned by init_decoding: everything the playback
// engine needs to know before the first decode_block call.
type DecodeInit struct {
	Duration *time.Duration `msgpack:"duration_ms"`
}

// AudioBlock is one chunk of decoded audio returned by decode_block.
type AudioBlock struct {
	SampleRate   SampleRate   `msgpack:"sample_rate"`
	ChannelCount ChannelCount `msgpack:"channel_count"`
	Samples      []Sample     `msgpack:"samples"`
}
