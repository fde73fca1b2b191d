package telephony

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/voxline-ai/voxline/pkg/errorsx"
	"github.com/voxline-ai/voxline/pkg/logging"
)

// StreamHandler receives one connection's ordered events. OnStop is invoked
// exactly once, on the stop envelope or on channel close, whichever comes
// first.
type StreamHandler interface {
	OnStart(callID, language string)
	OnAudioFrame(frame []byte)
	OnStop()
}

// HandlerFactory builds the handler for one media connection. The emit
// function enqueues an outbound channel message; it never blocks the caller.
type HandlerFactory func(emit func(msg []byte)) StreamHandler

// MediaServer terminates the per-call media WebSocket: JSON control
// envelopes as text messages, companded audio as binary messages.
type MediaServer struct {
	upgrader   websocket.Upgrader
	newHandler HandlerFactory
	logger     *slog.Logger

	mu       sync.Mutex
	conns    map[*mediaConn]struct{}
	draining atomic.Bool
}

func NewMediaServer(factory HandlerFactory) *MediaServer {
	return &MediaServer{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		newHandler: factory,
		logger:     logging.NewComponentLogger(slog.Default(), "media_server"),
		conns:      make(map[*mediaConn]struct{}),
	}
}

func (s *MediaServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.draining.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	mc := newMediaConn(ws)
	s.track(mc)
	defer s.untrack(mc)

	handler := s.newHandler(mc.enqueue)
	defer mc.close()
	defer handler.OnStop() // idempotence is the handler's contract

	started := false
	for {
		msgType, msg, err := ws.ReadMessage()
		if err != nil {
			return
		}
		switch msgType {
		case websocket.BinaryMessage:
			if !started {
				s.logger.Warn("audio_before_start", "reason_code", string(errorsx.ReasonWSProtocol))
				continue
			}
			handler.OnAudioFrame(msg)
		case websocket.TextMessage:
			var evt InboundEnvelope
			if err := json.Unmarshal(msg, &evt); err != nil {
				s.logger.Warn("malformed_envelope", "reason_code", string(errorsx.ReasonWSProtocol), "error", err.Error())
				continue
			}
			switch evt.Event {
			case "start":
				if evt.Start == nil || started {
					s.logger.Warn("unexpected_start", "reason_code", string(errorsx.ReasonWSProtocol))
					continue
				}
				started = true
				handler.OnStart(evt.Start.CallID, evt.Start.Language())
			case "stop":
				return
			default:
				s.logger.Warn("unknown_event", "reason_code", string(errorsx.ReasonWSProtocol), "event", evt.Event)
			}
		}
	}
}

// Drain stops accepting connections and closes the active ones, letting
// their handlers finalize.
func (s *MediaServer) Drain() error {
	s.draining.Store(true)
	s.mu.Lock()
	conns := make([]*mediaConn, 0, len(s.conns))
	for mc := range s.conns {
		conns = append(conns, mc)
	}
	s.mu.Unlock()
	for _, mc := range conns {
		mc.close()
	}
	return nil
}

func (s *MediaServer) track(mc *mediaConn) {
	s.mu.Lock()
	s.conns[mc] = struct{}{}
	s.mu.Unlock()
}

func (s *MediaServer) untrack(mc *mediaConn) {
	s.mu.Lock()
	delete(s.conns, mc)
	s.mu.Unlock()
}

// mediaConn serializes outbound writes through one goroutine so turn
// goroutines can emit without racing the server's read loop.
type mediaConn struct {
	ws     *websocket.Conn
	sendCh chan []byte
	stopCh chan struct{}
	once   sync.Once
}

func newMediaConn(ws *websocket.Conn) *mediaConn {
	mc := &mediaConn{
		ws:     ws,
		sendCh: make(chan []byte, 32),
		stopCh: make(chan struct{}),
	}
	go mc.writeLoop()
	return mc
}

func (mc *mediaConn) writeLoop() {
	for {
		select {
		case <-mc.stopCh:
			return
		case msg := <-mc.sendCh:
			if err := mc.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}
}

// enqueue queues an outbound message without blocking; messages are dropped
// when the peer cannot keep up.
func (mc *mediaConn) enqueue(msg []byte) {
	select {
	case mc.sendCh <- msg:
	case <-mc.stopCh:
	default:
		slog.Warn("outbound_dropped", "component", "media_server", "bytes", len(msg))
	}
}

func (mc *mediaConn) close() {
	mc.once.Do(func() {
		close(mc.stopCh)
		_ = mc.ws.Close()
	})
}
