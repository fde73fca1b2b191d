package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/voxline-ai/voxline/pkg/audio"
	"github.com/voxline-ai/voxline/pkg/llm"
	"github.com/voxline-ai/voxline/pkg/logging"
	"github.com/voxline-ai/voxline/pkg/stt"
	"github.com/voxline-ai/voxline/pkg/store"
	"github.com/voxline-ai/voxline/pkg/telephony"
	"github.com/voxline-ai/voxline/pkg/tts"
	"github.com/voxline-ai/voxline/pkg/vad"
)

// CallEnder hangs up an active call; the turn pipeline invokes it on an
// end_call action.
type CallEnder interface {
	EndCall(ctx context.Context, providerCallID string) error
}

type Config struct {
	Language       string            `mapstructure:"language"`
	Persona        llm.Persona       `mapstructure:"persona"`
	Voice          string            `mapstructure:"voice"`
	Greetings      map[string]string `mapstructure:"greetings"`
	MinUtteranceMS int               `mapstructure:"min_utterance_ms"`
	InboxSize      int               `mapstructure:"inbox_size"`
	VAD            vad.Config        `mapstructure:"vad"`
}

func (c Config) withDefaults() Config {
	if c.Language == "" {
		c.Language = "en"
	}
	if len(c.Greetings) == 0 {
		c.Greetings = map[string]string{
			"en": "Hello! How can I help you today?",
		}
	}
	if c.MinUtteranceMS <= 0 {
		c.MinUtteranceMS = 200
	}
	if c.InboxSize <= 0 {
		c.InboxSize = 256
	}
	return c
}

func (c Config) greetingFor(language string) string {
	if text, ok := c.Greetings[language]; ok {
		return text
	}
	return c.Greetings["en"]
}

// Deps are the injected collaborators shared by every session. All of them
// must be safe for concurrent use.
type Deps struct {
	Transcriber stt.Transcriber
	Dialogue    llm.Dialogue
	Synthesizer tts.Synthesizer
	Sink        store.Sink
	Control     CallEnder
}

// Manager builds one Session per media connection.
type Manager struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger

	wg sync.WaitGroup
}

func NewManager(cfg Config, deps Deps) *Manager {
	if deps.Sink == nil {
		deps.Sink = store.NopSink{}
	}
	return &Manager{
		cfg:    cfg.withDefaults(),
		deps:   deps,
		logger: logging.NewComponentLogger(slog.Default(), "session"),
	}
}

// NewHandler is the telephony.HandlerFactory for the media server.
func (m *Manager) NewHandler(emit func(msg []byte)) telephony.StreamHandler {
	s := &Session{
		cfg:       m.cfg,
		deps:      m.deps,
		logger:    m.logger,
		emit:      emit,
		sm:        newStateMachine(),
		seg:       vad.NewSegmenter(m.cfg.VAD),
		inbox:     make(chan event, m.cfg.InboxSize),
		extracted: make(map[string]string),
	}
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		s.run()
	}()
	return s
}

// Wait blocks until every session worker has finalized; used on shutdown
// after the media server drains its connections.
func (m *Manager) Wait() {
	m.wg.Wait()
}

type eventKind int

const (
	eventStart eventKind = iota
	eventFrame
)

type event struct {
	kind     eventKind
	callID   string
	language string
	frame    []byte
}

// Session holds all per-call state. The inbox worker is the only goroutine
// that touches the segmenter; history and extracted fields are shared with
// the turn goroutine under mu.
type Session struct {
	cfg    Config
	deps   Deps
	logger *slog.Logger
	emit   func(msg []byte)

	sm    *stateMachine
	seg   *vad.Segmenter
	inbox chan event

	stopOnce     sync.Once
	finalizeOnce sync.Once

	mu           sync.Mutex
	finalized    bool
	callID       string
	language     string
	history      []llm.Message
	extracted    map[string]string
	qualityScore float64
	startedAt    time.Time
	lastActivity time.Time
}

// OnStart implements telephony.StreamHandler.
func (s *Session) OnStart(callID, language string) {
	s.send(event{kind: eventStart, callID: callID, language: language})
}

// OnAudioFrame implements telephony.StreamHandler. The frame buffer is owned
// by the read loop, so it is copied before crossing into the worker.
func (s *Session) OnAudioFrame(frame []byte) {
	s.send(event{kind: eventFrame, frame: append([]byte(nil), frame...)})
}

// OnStop implements telephony.StreamHandler.
func (s *Session) OnStop() {
	s.stopOnce.Do(func() { close(s.inbox) })
}

func (s *Session) send(evt event) {
	defer func() {
		// Frames racing a closed inbox are part of teardown, not an error.
		_ = recover()
	}()
	select {
	case s.inbox <- evt:
	default:
		s.logger.Warn("inbox_full", "call_id", s.callIDSnapshot())
	}
}

func (s *Session) run() {
	for evt := range s.inbox {
		switch evt.kind {
		case eventStart:
			s.handleStart(evt.callID, evt.language)
		case eventFrame:
			s.handleFrame(evt.frame)
		}
	}
	s.finalize()
}

func (s *Session) handleStart(callID, language string) {
	if callID == "" {
		callID = uuid.NewString()
	}
	if language == "" {
		language = s.cfg.Language
	}
	s.mu.Lock()
	s.callID = callID
	s.language = language
	s.startedAt = time.Now()
	s.lastActivity = s.startedAt
	s.mu.Unlock()

	if err := s.sm.Transition(StateListening); err != nil {
		s.logger.Warn("duplicate_start", "call_id", callID)
		return
	}
	s.logger.Info("session_started", "call_id", callID, "language", language)
	go s.speakGreeting(language)
}

// speakGreeting plays the fixed opener. It goes straight to synthesis so the
// caller hears something immediately, with no transcription or dialogue
// involved.
func (s *Session) speakGreeting(language string) {
	text := s.cfg.greetingFor(language)
	if text == "" {
		return
	}
	pcm := s.deps.Synthesizer.Synthesize(context.Background(), text, s.cfg.Voice)
	if len(pcm) == 0 {
		return
	}
	s.emitAudio(pcm)
}

func (s *Session) handleFrame(frame []byte) {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()

	pcm := audio.DecodeMuLawFrame(frame)
	utterance, ok := s.seg.Push(pcm)
	if !ok {
		return
	}
	s.triggerTurn(utterance)
}

// emitAudio downsamples synthesis output to the wire rate, compands it and
// queues one outbound playAudio message.
func (s *Session) emitAudio(pcm []int16) {
	mulaw := audio.EncodeMuLawFrame(audio.Resample24kTo8k(pcm))
	if len(mulaw) == 0 {
		return
	}
	s.emit(telephony.NewPlayAudioMessage(mulaw))
}

func (s *Session) finalize() {
	s.finalizeOnce.Do(func() {
		// Legal from every live state; in-flight turn goroutines observe
		// FINALIZED and discard their results.
		_ = s.sm.Transition(StateFinalized)

		s.mu.Lock()
		s.finalized = true
		callID := s.callID
		startedAt := s.startedAt
		history := make([]llm.Message, len(s.history))
		copy(history, s.history)
		extracted := s.extracted
		score := s.qualityScore
		s.mu.Unlock()

		if callID == "" {
			// The channel closed before a start envelope arrived; there is
			// nothing to persist.
			return
		}
		duration := int(time.Since(startedAt).Seconds())
		s.logger.Info("session_finalized", "call_id", callID, "duration_s", duration, "turns", len(history)/2)

		ctx := context.Background()
		_ = s.deps.Sink.UpdateCallStatus(ctx, store.CallStatus{
			CallID:          callID,
			Status:          "completed",
			DurationSeconds: duration,
			QualityScore:    score,
			Extracted:       extracted,
		})
		if len(history) == 0 {
			return
		}
		entries := make([]store.TranscriptEntry, 0, len(history))
		for _, msg := range history {
			entries = append(entries, store.TranscriptEntry{Role: msg.Role, Text: msg.Content})
		}
		_ = s.deps.Sink.WriteTranscript(ctx, store.CallTranscript{CallID: callID, Entries: entries})
	})
}

func (s *Session) callIDSnapshot() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.callID
}
