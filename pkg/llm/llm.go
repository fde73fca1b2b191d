// Package llm wraps the dialogue model behind a narrow adapter: bounded
// history in, structured reply out. Provider response shapes never leak past
// this package.
package llm

import (
	"context"
	"strings"
)

// MaxSpeakLength bounds the spoken reply so downstream synthesis cost and
// latency stay predictable on a live call.
const MaxSpeakLength = 150

// Action is the discrete next step requested by the dialogue model.
type Action string

const (
	ActionContinue Action = "continue"
	ActionEndCall  Action = "end_call"
	ActionOther    Action = "other"
)

// Message is one conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Reply is the structured outcome of one dialogue call.
type Reply struct {
	Speak     string
	Action    Action
	Extracted map[string]string
	Score     float64
	Raw       string
}

// Request carries everything one dialogue call needs.
type Request struct {
	Persona    Persona
	Language   string
	History    []Message
	Transcript string
}

// Dialogue generates one assistant reply. Implementations return an error
// only on transport failure; unparseable model output degrades to a
// text-only reply locally.
type Dialogue interface {
	GenerateReply(ctx context.Context, req Request) (Reply, error)
}

// FallbackReply is the fixed low-content apology substituted when the
// dialogue call fails entirely. It is a valid, recorded turn.
func FallbackReply() Reply {
	return Reply{
		Speak:  "Sorry, I didn't catch that. Could you say it again?",
		Action: ActionContinue,
	}
}

// TruncateSpeak bounds spoken text to MaxSpeakLength runes, cutting at the
// last word boundary when one exists.
func TruncateSpeak(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) <= MaxSpeakLength {
		return text
	}
	cut := string(runes[:MaxSpeakLength])
	if i := strings.LastIndex(cut, " "); i > MaxSpeakLength/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}

// NormalizeAction maps free-form model output onto the discrete action set.
func NormalizeAction(raw string) Action {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", string(ActionContinue):
		return ActionContinue
	case string(ActionEndCall), "end-call", "endcall", "hangup", "hang_up":
		return ActionEndCall
	default:
		return ActionOther
	}
}
