package telephony

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type recordingHandler struct {
	mu       sync.Mutex
	emit     func(msg []byte)
	callID   string
	language string
	frames   [][]byte
	starts   int
	stops    int
}

func (h *recordingHandler) OnStart(callID, language string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts++
	h.callID = callID
	h.language = language
	h.emit(NewPlayAudioMessage([]byte{0xFF, 0x7F}))
}

func (h *recordingHandler) OnAudioFrame(frame []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.frames = append(h.frames, append([]byte(nil), frame...))
}

func (h *recordingHandler) OnStop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stops++
}

func (h *recordingHandler) snapshot() (starts, stops, frames int, callID, language string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.starts, h.stops, len(h.frames), h.callID, h.language
}

func dialMediaServer(t *testing.T) (*recordingHandler, *websocket.Conn, func()) {
	t.Helper()
	handler := &recordingHandler{}
	server := NewMediaServer(func(emit func(msg []byte)) StreamHandler {
		handler.emit = emit
		return handler
	})
	srv := httptest.NewServer(server)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		srv.Close()
		t.Fatalf("dial: %v", err)
	}
	return handler, ws, func() {
		ws.Close()
		srv.Close()
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met in time")
}

func TestMediaServerDispatchesSession(t *testing.T) {
	handler, ws, done := dialMediaServer(t)
	defer done()

	start := `{"event":"start","start":{"callId":"call-1","customParameters":{"language":"es"}}}`
	if err := ws.WriteMessage(websocket.TextMessage, []byte(start)); err != nil {
		t.Fatalf("write start: %v", err)
	}

	// The start handler emits a greeting frame back over the channel.
	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	msgType, msg, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("read outbound: %v", err)
	}
	if msgType != websocket.TextMessage {
		t.Fatalf("expected text outbound message")
	}
	if !bytes.Contains(msg, []byte(`"playAudio"`)) || !bytes.Contains(msg, []byte(PlayAudioContentType)) {
		t.Fatalf("unexpected outbound message: %s", msg)
	}

	frame := bytes.Repeat([]byte{0x7F}, FrameBytes)
	if err := ws.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"stop"}`)); err != nil {
		t.Fatalf("write stop: %v", err)
	}

	waitFor(t, func() bool {
		_, stops, frames, _, _ := handler.snapshot()
		return stops > 0 && frames == 1
	})
	starts, stops, frames, callID, language := handler.snapshot()
	if starts != 1 {
		t.Fatalf("expected 1 start, got %d", starts)
	}
	if stops != 1 {
		t.Fatalf("expected exactly 1 stop, got %d", stops)
	}
	if frames != 1 {
		t.Fatalf("expected 1 frame, got %d", frames)
	}
	if callID != "call-1" || language != "es" {
		t.Fatalf("unexpected session identity %q/%q", callID, language)
	}
}

func TestMediaServerIgnoresProtocolViolations(t *testing.T) {
	handler, ws, done := dialMediaServer(t)
	defer done()

	// Audio before start and malformed envelopes are dropped, the
	// connection stays up.
	if err := ws.WriteMessage(websocket.BinaryMessage, []byte{0x01}); err != nil {
		t.Fatalf("write frame: %v", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{not json`)); err != nil {
		t.Fatalf("write junk: %v", err)
	}
	if err := ws.WriteMessage(websocket.TextMessage, []byte(`{"event":"mystery"}`)); err != nil {
		t.Fatalf("write unknown: %v", err)
	}
	start := `{"event":"start","start":{"callId":"call-2"}}`
	if err := ws.WriteMessage(websocket.TextMessage, []byte(start)); err != nil {
		t.Fatalf("write start: %v", err)
	}

	waitFor(t, func() bool {
		starts, _, _, _, _ := handler.snapshot()
		return starts == 1
	})
	_, _, frames, callID, language := handler.snapshot()
	if frames != 0 {
		t.Fatalf("expected pre-start audio to be dropped, got %d frames", frames)
	}
	if callID != "call-2" {
		t.Fatalf("unexpected call id %q", callID)
	}
	if language != "" {
		t.Fatalf("expected empty language, got %q", language)
	}
}

func TestMediaServerStopsOnceOnPeerDisconnect(t *testing.T) {
	handler, ws, done := dialMediaServer(t)
	defer done()

	start := `{"event":"start","start":{"callId":"call-3"}}`
	if err := ws.WriteMessage(websocket.TextMessage, []byte(start)); err != nil {
		t.Fatalf("write start: %v", err)
	}
	waitFor(t, func() bool {
		starts, _, _, _, _ := handler.snapshot()
		return starts == 1
	})
	ws.Close()

	waitFor(t, func() bool {
		_, stops, _, _, _ := handler.snapshot()
		return stops == 1
	})
}
