// Package stt wraps external speech-to-text providers behind a non-throwing
// adapter: provider failures and unusable transcripts come back as an empty
// result with the error attached, never as a returned error.
package stt

import (
	"context"
	"regexp"
	"strings"
)

// Result is the outcome of one transcription attempt. Empty means the
// utterance produced nothing usable; Err carries the provider detail when the
// emptiness was caused by a failure rather than silence.
type Result struct {
	Text       string
	Confidence float64
	Empty      bool
	Err        error
}

// Transcriber converts one WAV-packaged utterance into text.
type Transcriber interface {
	Transcribe(ctx context.Context, wav []byte, language string) Result
}

var fillerWords = map[string]struct{}{
	"thanks": {}, "thank you": {}, "bye": {}, "goodbye": {}, "bye bye": {},
	"uh": {}, "um": {}, "hmm": {}, "mm": {}, "huh": {}, "ah": {}, "oh": {}, "er": {},
	"uh huh": {}, "mm hmm": {},
}

var nonLetter = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

// IsNoise reports whether a transcript is bare punctuation, a filler phrase,
// or an interjection that should not trigger a dialogue turn.
func IsNoise(text string) bool {
	// Punctuation becomes a space so hyphenated forms match their spaced
	// filler entries ("uh-huh" -> "uh huh").
	cleaned := nonLetter.ReplaceAllString(strings.ToLower(text), " ")
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if len(cleaned) < 2 {
		return true
	}
	_, filler := fillerWords[cleaned]
	return filler
}
