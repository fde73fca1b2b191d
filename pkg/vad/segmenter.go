// Package vad segments decoded telephony audio into utterances using a pure
// energy-threshold detector. This is an intentional simplification: no model
// runs in the media path, a frame is speech iff its normalized RMS exceeds a
// calibrated threshold.
package vad

import "github.com/voxline-ai/voxline/pkg/audio"

const (
	// DefaultThreshold is calibrated for 8-bit companded narrowband audio
	// expanded to linear PCM. It does not transfer to wideband capture
	// without recalibration.
	DefaultThreshold = 0.015

	// DefaultSilenceFrames is the run of silence frames (20 ms each, ~300 ms
	// total) that closes an utterance.
	DefaultSilenceFrames = 15
)

type Config struct {
	Threshold     float64 `mapstructure:"threshold"`
	SilenceFrames int     `mapstructure:"silence_frames"`
}

func (c Config) withDefaults() Config {
	if c.Threshold <= 0 {
		c.Threshold = DefaultThreshold
	}
	if c.SilenceFrames <= 0 {
		c.SilenceFrames = DefaultSilenceFrames
	}
	return c
}

// Segmenter accumulates speech frames and emits one utterance per
// speech-then-silence boundary. It is not safe for concurrent use; each call
// session owns exactly one instance.
type Segmenter struct {
	cfg        Config
	buf        []int16
	silenceRun int
	speaking   bool
}

func NewSegmenter(cfg Config) *Segmenter {
	return &Segmenter{cfg: cfg.withDefaults()}
}

// Push classifies one decoded PCM frame. When the frame closes an utterance
// it returns the buffered speech PCM and true; the internal buffer is cleared
// in the same step.
func (s *Segmenter) Push(frame []int16) ([]int16, bool) {
	if audio.RMS(frame) > s.cfg.Threshold {
		s.buf = append(s.buf, frame...)
		s.silenceRun = 0
		s.speaking = true
		return nil, false
	}
	if !s.speaking {
		return nil, false
	}
	s.silenceRun++
	if s.silenceRun <= s.cfg.SilenceFrames {
		return nil, false
	}
	utterance := s.buf
	s.buf = nil
	s.silenceRun = 0
	s.speaking = false
	return utterance, true
}

// Speaking reports whether the segmenter is inside an open utterance.
func (s *Segmenter) Speaking() bool { return s.speaking }

// Reset drops any buffered speech and returns to the not-speaking state.
func (s *Segmenter) Reset() {
	s.buf = nil
	s.silenceRun = 0
	s.speaking = false
}
