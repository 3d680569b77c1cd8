package playback

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/melodia/melodiad/internal/plugin"
)

// ErrCannotDecode is returned when NewPluginSource is asked to decode
// through a plugin that lacks the decode capability.
var ErrCannotDecode = errors.New("playback: plugin cannot decode")

// ErrNoAudioData is returned when a decoder plugin's first decode_block
// call produces nothing to play.
var ErrNoAudioData = errors.New("playback: decoding produced no audio data")

// PluginSource decodes one track through a single leased plugin
// instance, pulling one block at a time and serving samples from it.
// It holds the instance for its entire lifetime and calls
// finish_decoding exactly once, on Close, mirroring the original
// decoder's drop-triggered cleanup.
type PluginSource struct {
	handle     *plugin.Handle
	playbackID plugin.PlaybackID

	duration *time.Duration

	sampleRate plugin.SampleRate
	channels   plugin.ChannelCount
	block      []plugin.Sample
	blockIndex int
}

// NewPluginSource begins a decode session for file using handle's
// instance, which must report the decode capability.
func NewPluginSource(ctx context.Context, handle *plugin.Handle, file plugin.AudioFile) (*PluginSource, error) {
	if !handle.Instance().Capabilities().Decode {
		return nil, ErrCannotDecode
	}

	playbackID := plugin.NewPlaybackID()

	init, err := handle.Instance().InitDecoding(ctx, playbackID, file)
	if err != nil {
		return nil, err
	}

	block, ok, err := handle.Instance().DecodeBlock(ctx, playbackID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoAudioData
	}

	slog.Info("initialized decoding", "playback_id", playbackID)

	return &PluginSource{
		handle:     handle,
		playbackID: playbackID,
		duration:   init.Duration,
		sampleRate: block.SampleRate,
		channels:   block.ChannelCount,
		block:      block.Samples,
		blockIndex: 0,
	}, nil
}

// NextSample implements Source.
func (s *PluginSource) NextSample() (plugin.Sample, bool) {
	if s.blockIndex >= len(s.block) {
		block, ok, err := s.handle.Instance().DecodeBlock(context.Background(), s.playbackID)
		if err != nil {
			slog.Warn("error decoding block", "playback_id", s.playbackID, "error", err)
			return 0, false
		}
		if !ok {
			return 0, false
		}
		s.block = block.Samples
		s.sampleRate = block.SampleRate
		s.channels = block.ChannelCount
		s.blockIndex = 0
	}

	if s.blockIndex >= len(s.block) {
		return 0, false
	}
	sample := s.block[s.blockIndex]
	s.blockIndex++
	return sample, true
}

func (s *PluginSource) SampleRate() plugin.SampleRate { return s.sampleRate }
func (s *PluginSource) Channels() plugin.ChannelCount { return s.channels }
func (s *PluginSource) TotalDuration() *time.Duration { return s.duration }

// Close ends the decode session and releases the leased instance back
// to its pool.
func (s *PluginSource) Close(ctx context.Context) error {
	err := s.handle.Instance().FinishDecoding(ctx, s.playbackID)
	s.handle.Release()
	if err != nil {
		slog.Warn("failed to finish decoding", "playback_id", s.playbackID, "error", err)
		return err
	}
	slog.Info("finished decoding", "playback_id", s.playbackID)
	return nil
}
