// Package tts wraps speech synthesis providers. The adapter contract is
// non-throwing: blank input and provider failures both come back as nil
// samples, and the orchestrator simply skips audio emission.
package tts

import "context"

// NativeRate is the sample rate synthesized audio is requested at. The
// telephony leg runs at 8 kHz, so playback goes through the exact 3:1
// downsample in pkg/audio.
const NativeRate = 24000

// Synthesizer renders text to linear PCM at NativeRate. A nil result means
// no audio: blank input or a provider failure already logged at the boundary.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) []int16
}
