// Package store persists the durable outcome of a call: a status/duration
// record and, when the conversation produced turns, the ordered transcript.
// Writes are best effort; the media path never blocks on them.
package store

import "context"

// CallStatus is the per-call record written once at finalize.
type CallStatus struct {
	CallID          string            `json:"call_id"`
	Status          string            `json:"status"`
	DurationSeconds int               `json:"duration_seconds"`
	QualityScore    float64           `json:"quality_score,omitempty"`
	Extracted       map[string]string `json:"extracted,omitempty"`
}

// TranscriptEntry is one conversation turn.
type TranscriptEntry struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// CallTranscript is the full ordered history of one call.
type CallTranscript struct {
	CallID  string            `json:"call_id"`
	Entries []TranscriptEntry `json:"entries"`
}

// Sink receives the finalize-time writes.
type Sink interface {
	UpdateCallStatus(ctx context.Context, status CallStatus) error
	WriteTranscript(ctx context.Context, transcript CallTranscript) error
}

// NopSink discards everything; used when no persistence backend is
// configured.
type NopSink struct{}

func (NopSink) UpdateCallStatus(context.Context, CallStatus) error   { return nil }
func (NopSink) WriteTranscript(context.Context, CallTranscript) error { return nil }
