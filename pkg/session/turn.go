package session

import (
	"context"
	"strings"
	"time"

	"github.com/voxline-ai/voxline/pkg/audio"
	"github.com/voxline-ai/voxline/pkg/llm"
)

const wireSampleRate = 8000

// triggerTurn starts one turn for a finished utterance. The
// LISTENING→PROCESSING transition is the entry guard: while a turn is in
// flight the transition fails and the utterance is dropped, not queued.
func (s *Session) triggerTurn(utterance []int16) {
	minSamples := s.cfg.MinUtteranceMS * wireSampleRate / 1000
	if len(utterance) < minSamples {
		return
	}
	if err := s.sm.Transition(StateProcessing); err != nil {
		s.logger.Debug("turn_dropped", "call_id", s.callIDSnapshot(), "state", s.sm.State().String())
		return
	}
	go s.runTurn(utterance)
}

// runTurn executes the strictly ordered pipeline for one utterance:
// transcribe, generate a reply, speak it. The processing guard is released
// on every exit path.
func (s *Session) runTurn(utterance []int16) {
	defer s.clearGuard()

	s.mu.Lock()
	callID := s.callID
	language := s.language
	history := make([]llm.Message, len(s.history))
	copy(history, s.history)
	s.mu.Unlock()

	started := time.Now()
	ctx := context.Background()

	wav := audio.PackWAV(utterance, wireSampleRate)
	res := s.deps.Transcriber.Transcribe(ctx, wav, language)
	if res.Empty {
		// Silence, noise or a provider failure already logged downstream.
		// Either way there is nothing to answer.
		return
	}

	reply, err := s.deps.Dialogue.GenerateReply(ctx, llm.Request{
		Persona:    s.cfg.Persona,
		Language:   language,
		History:    history,
		Transcript: res.Text,
	})
	if err != nil {
		s.logger.Warn("dialogue_failed", "call_id", callID, "error", err.Error())
		reply = llm.FallbackReply()
	}
	speak := llm.TruncateSpeak(reply.Speak)
	if strings.TrimSpace(speak) == "" {
		reply = llm.FallbackReply()
		speak = reply.Speak
	}

	if !s.recordTurn(res.Text, speak, reply) {
		return
	}

	pcm := s.deps.Synthesizer.Synthesize(ctx, speak, s.cfg.Voice)
	if len(pcm) > 0 && s.sm.Transition(StateSpeaking) == nil {
		// The transition fails once the session is finalized; late audio
		// stays off the wire.
		s.emitAudio(pcm)
	}

	s.logger.Info("turn_completed",
		"call_id", callID,
		"action", string(reply.Action),
		"latency_ms", time.Since(started).Milliseconds(),
	)

	if reply.Action == llm.ActionEndCall && s.deps.Control != nil {
		if err := s.deps.Control.EndCall(ctx, callID); err != nil {
			s.logger.Warn("end_call_failed", "call_id", callID, "error", err.Error())
		}
	}
}

// recordTurn appends the completed exchange to history and merges the
// extracted fields. A finalized session discards the result instead; the
// check shares the mutex with finalize so a result can never land after the
// history snapshot was persisted.
func (s *Session) recordTurn(transcript, speak string, reply llm.Reply) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return false
	}
	s.history = append(s.history,
		llm.Message{Role: "user", Content: transcript},
		llm.Message{Role: "assistant", Content: speak},
	)
	for k, v := range reply.Extracted {
		s.extracted[k] = v
	}
	if reply.Score > 0 {
		s.qualityScore = reply.Score
	}
	return true
}

// clearGuard returns the session to LISTENING from whichever mid-turn state
// it is in. Once FINALIZED, no transition is legal and the call is a no-op.
func (s *Session) clearGuard() {
	_ = s.sm.Transition(StateListening)
}
