package live

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/aria-studio/aria/internal/log"
)

// DefaultEndpoint is the vendor's bidirectional streaming endpoint.
const DefaultEndpoint = "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent"

const handshakeTimeout = 10 * time.Second

// GeminiDialer opens live sessions against the Gemini Live API.
type GeminiDialer struct {
	// APIKey authenticates the connection. Required.
	APIKey string

	// Endpoint overrides the WebSocket URL. Tests point this at a
	// local server; leave empty for the production endpoint.
	Endpoint string
}

// NewGeminiDialer returns a Dialer for the production endpoint.
func NewGeminiDialer(apiKey string) *GeminiDialer {
	return &GeminiDialer{APIKey: apiKey}
}

// Connect dials the endpoint, sends the session setup frame, and starts
// the read loop. The returned Session is usable immediately, but callers
// should wait for Callbacks.OnOpen before streaming audio: the remote
// discards media received ahead of setup completion.
func (d *GeminiDialer) Connect(ctx context.Context, cfg Config, cb Callbacks) (Session, error) {
	if d.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	endpoint := d.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	url := fmt.Sprintf("%s?key=%s", endpoint, d.APIKey)

	header := make(http.Header)
	header.Set("Content-Type", "application/json")

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("live: connect: %w", err)
	}

	s := &wsSession{conn: conn, cb: cb}

	if err := s.writeJSON(buildSetup(cfg)); err != nil {
		conn.Close()
		return nil, fmt.Errorf("live: send setup: %w", err)
	}

	go s.readLoop()
	return s, nil
}

// wsSession is a Session over one gorilla WebSocket connection.
type wsSession struct {
	conn *websocket.Conn
	cb   Callbacks

	writeMu   sync.Mutex
	closed    atomic.Bool
	opened    bool // read loop only
	closeOnce sync.Once
}

func (s *wsSession) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// SendAudio transmits one media chunk. The payload is base64-encoded
// into a realtimeInput frame; the call returns as soon as the frame is
// written to the connection.
func (s *wsSession) SendAudio(pcm []byte, mimeType string) error {
	if s.closed.Load() {
		return ErrClosed
	}
	frame := realtimeInputMessage{
		RealtimeInput: realtimeInput{
			MediaChunks: []mediaChunk{{
				Data:     base64.StdEncoding.EncodeToString(pcm),
				MimeType: mimeType,
			}},
		},
	}
	if err := s.writeJSON(frame); err != nil {
		return fmt.Errorf("live: send audio: %w", err)
	}
	return nil
}

// Close shuts the connection down. The read loop observes the closed
// flag and suppresses the resulting read error; OnClose still fires
// exactly once.
func (s *wsSession) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.writeMu.Lock()
	s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	return s.conn.Close()
}

// readLoop pumps inbound frames until the connection ends. Events are
// dispatched synchronously so callers observe them in delivery order.
func (s *wsSession) readLoop() {
	defer s.closeOnce.Do(func() {
		if s.cb.OnClose != nil {
			s.cb.OnClose()
		}
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				if s.cb.OnError != nil {
					s.cb.OnError(fmt.Errorf("live: read: %w", err))
				}
			}
			return
		}

		var frame serverFrame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Debug("live: unparseable frame", "err", err, "bytes", len(data))
			continue
		}

		msg, ok := decodeFrame(frame)
		if !ok {
			continue
		}
		if msg.SetupComplete && !s.opened {
			s.opened = true
			if s.cb.OnOpen != nil {
				s.cb.OnOpen()
			}
		}
		if s.cb.OnMessage != nil {
			s.cb.OnMessage(msg)
		}
	}
}
