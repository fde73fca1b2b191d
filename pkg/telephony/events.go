// Package telephony owns the provider boundary: the per-call media channel
// (JSON control envelopes interleaved with binary companded-audio frames)
// and the REST call-control adapter used to initiate and terminate calls.
package telephony

import (
	"encoding/base64"
	"encoding/json"
)

// FrameBytes is the nominal size of one inbound companded frame:
// 20 ms at 8 kHz, 8-bit.
const FrameBytes = 160

// PlayAudioContentType labels outbound audio for the provider.
const PlayAudioContentType = "audio/x-mulaw;rate=8000"

// InboundEnvelope is a control message on the media channel.
type InboundEnvelope struct {
	Event string        `json:"event"`
	Start *StartPayload `json:"start,omitempty"`
}

// StartPayload opens a session. Language rides in the provider's custom
// parameters.
type StartPayload struct {
	CallID           string            `json:"callId"`
	CustomParameters map[string]string `json:"customParameters,omitempty"`
}

// Language returns the language custom parameter, if set.
func (p *StartPayload) Language() string {
	if p == nil {
		return ""
	}
	return p.CustomParameters["language"]
}

type playAudioMedia struct {
	ContentType string `json:"contentType"`
	Payload     string `json:"payload"`
}

type playAudioMessage struct {
	Event string         `json:"event"`
	Media playAudioMedia `json:"media"`
}

// NewPlayAudioMessage packages companded audio into the outbound playAudio
// envelope.
func NewPlayAudioMessage(mulaw []byte) []byte {
	msg := playAudioMessage{
		Event: "playAudio",
		Media: playAudioMedia{
			ContentType: PlayAudioContentType,
			Payload:     base64.StdEncoding.EncodeToString(mulaw),
		},
	}
	out, _ := json.Marshal(msg)
	return out
}
