// Package playback implements the pull-based audio source chain: a
// decoder-backed Source per track, a silence fallback for gaps, a
// single-slot prefetch cache, and the Engine that drives them from the
// queue.
package playback

import (
	"context"
	"time"

	"github.com/melodia/melodiad/internal/plugin"
)

// Source is the pull interface every audio producer implements,
// mirroring the original PluginAudioSource/rodio Source pairing: a
// sample-at-a-time iterator plus the format metadata a downstream mixer
// needs to interpret those samples.
type Source interface {
	// NextSample returns the next sample, or ok == false when the
	// source is exhausted.
	NextSample() (sample plugin.Sample, ok bool)
	SampleRate() plugin.SampleRate
	Channels() plugin.ChannelCount
	// TotalDuration returns the source's known duration, if any.
	TotalDuration() *time.Duration
	// Close releases any resources (a plugin decode session, a file
	// handle) the source holds.
	Close(ctx context.Context) error
}

// silenceSampleRate and silenceChannels describe the fallback source
// played when no real audio is available — the playback clock keeps
// advancing instead of blocking, so resuming still has a deterministic
// position to resume from.
const (
	silenceSampleRate = plugin.SampleRate(44100)
	silenceChannels   = plugin.ChannelCount(1)
)

// SilenceLength bounds a SilenceSource to one quarter-second of silence
// at the fallback sample rate. Bounding it matters: Engine.advance is
// only reached from the ok == false branch of NextSample, so an
// unbounded silence source would never let the engine retry the queue
// once it fell back to silence (including for the very first track).
const SilenceLength = int(silenceSampleRate) / 4

// SilenceSource is a source of zero-valued samples, exhausting after
// SilenceLength samples so the engine periodically retries whatever
// made it fall back to silence in the first place.
type SilenceSource struct {
	remaining int
}

// NewSilenceSource returns a SilenceSource good for SilenceLength samples.
func NewSilenceSource() *SilenceSource { return &SilenceSource{remaining: SilenceLength} }

func (s *SilenceSource) NextSample() (plugin.Sample, bool) {
	if s.remaining <= 0 {
		return 0, false
	}
	s.remaining--
	return 0, true
}
func (s *SilenceSource) SampleRate() plugin.SampleRate { return silenceSampleRate }
func (s *SilenceSource) Channels() plugin.ChannelCount { return silenceChannels }
func (s *SilenceSource) TotalDuration() *time.Duration { return nil }
func (s *SilenceSource) Close(context.Context) error   { return nil }
