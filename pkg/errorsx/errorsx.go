// Package errorsx attaches short machine-readable reason codes to errors so
// call-site logs and fallbacks can branch without string matching.
package errorsx

import (
	"context"
	"errors"
)

// ReasonCode is a short machine-readable error reason.
type ReasonCode string

const (
	ReasonUnknown ReasonCode = "unknown"

	ReasonSTTTranscribe ReasonCode = "stt_transcribe"
	ReasonSTTRejected   ReasonCode = "stt_rejected"

	ReasonLLMGenerate ReasonCode = "llm_generate"
	ReasonLLMParse    ReasonCode = "llm_parse"

	ReasonTTSSynthesize ReasonCode = "tts_synthesize"

	ReasonCallInitiate ReasonCode = "call_initiate"
	ReasonCallEnd      ReasonCode = "call_end"

	ReasonStoreStatus     ReasonCode = "store_status"
	ReasonStoreTranscript ReasonCode = "store_transcript"

	ReasonWSProtocol ReasonCode = "ws_protocol"
)

// ReasonedError wraps an error with a reason code.
type ReasonedError struct {
	Err    error
	Reason ReasonCode
}

func (e ReasonedError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return e.Err.Error()
}

func (e ReasonedError) Unwrap() error { return e.Err }

// Wrap attaches a reason code to an error. The first reason wins: wrapping an
// already-reasoned error is a no-op, so the innermost call site decides.
func Wrap(err error, reason ReasonCode) error {
	if err == nil {
		return nil
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return err
	}
	return ReasonedError{Err: err, Reason: reason}
}

// Reason extracts a reason code from an error, if present.
func Reason(err error) ReasonCode {
	if err == nil {
		return ReasonUnknown
	}
	var re ReasonedError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ReasonUnknown
}

// HasReason reports whether err carries the given reason code.
func HasReason(err error, reason ReasonCode) bool {
	return Reason(err) == reason
}

// IsTimeout reports whether err is a context timeout or cancellation. The
// turn pipeline treats these exactly like provider failures.
func IsTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
