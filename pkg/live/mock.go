package live

import (
	"context"
	"sync"
)

// ScriptedSession is a Session test double. It records outbound audio
// and lets tests replay inbound events through the session callbacks.
type ScriptedSession struct {
	mu     sync.Mutex
	cb     Callbacks
	sent   [][]byte
	mimes  []string
	closed bool
}

// NewScriptedSession returns an unbound session. Connecting through a
// ScriptedDialer binds the caller's callbacks.
func NewScriptedSession() *ScriptedSession {
	return &ScriptedSession{}
}

func (s *ScriptedSession) bind(cb Callbacks) {
	s.mu.Lock()
	s.cb = cb
	s.mu.Unlock()
}

// SendAudio records the frame. Returns ErrClosed after Close.
func (s *ScriptedSession) SendAudio(pcm []byte, mimeType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	buf := make([]byte, len(pcm))
	copy(buf, pcm)
	s.sent = append(s.sent, buf)
	s.mimes = append(s.mimes, mimeType)
	return nil
}

// Close marks the session closed. Unlike a real transport it does not
// fire OnClose; tests drive that explicitly with EmitClose.
func (s *ScriptedSession) Close() error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	return nil
}

// Closed reports whether Close has been called.
func (s *ScriptedSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Sent returns the recorded audio frames in send order.
func (s *ScriptedSession) Sent() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.sent))
	copy(out, s.sent)
	return out
}

// SentMimeTypes returns the mime types of recorded frames.
func (s *ScriptedSession) SentMimeTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.mimes))
	copy(out, s.mimes)
	return out
}

func (s *ScriptedSession) callbacks() Callbacks {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cb
}

// EmitOpen fires OnOpen followed by a SetupComplete message.
func (s *ScriptedSession) EmitOpen() {
	cb := s.callbacks()
	if cb.OnOpen != nil {
		cb.OnOpen()
	}
	if cb.OnMessage != nil {
		cb.OnMessage(ServerMessage{SetupComplete: true})
	}
}

// Emit delivers one server message.
func (s *ScriptedSession) Emit(msg ServerMessage) {
	if cb := s.callbacks(); cb.OnMessage != nil {
		cb.OnMessage(msg)
	}
}

// EmitError fires OnError.
func (s *ScriptedSession) EmitError(err error) {
	if cb := s.callbacks(); cb.OnError != nil {
		cb.OnError(err)
	}
}

// EmitClose fires OnClose.
func (s *ScriptedSession) EmitClose() {
	if cb := s.callbacks(); cb.OnClose != nil {
		cb.OnClose()
	}
}

// ScriptedDialer hands out a prepared ScriptedSession, or fails with Err.
type ScriptedDialer struct {
	Session *ScriptedSession
	Err     error

	// OpenOnConnect fires EmitOpen immediately after Connect returns
	// the session, for tests that don't care about the open handshake.
	OpenOnConnect bool

	mu         sync.Mutex
	lastConfig Config
	connects   int
}

// Connect binds cb to the prepared session and returns it.
func (d *ScriptedDialer) Connect(ctx context.Context, cfg Config, cb Callbacks) (Session, error) {
	d.mu.Lock()
	d.lastConfig = cfg
	d.connects++
	d.mu.Unlock()

	if d.Err != nil {
		return nil, d.Err
	}
	if d.Session == nil {
		d.Session = NewScriptedSession()
	}
	d.Session.bind(cb)
	if d.OpenOnConnect {
		d.Session.EmitOpen()
	}
	return d.Session, nil
}

// LastConfig returns the Config from the most recent Connect.
func (d *ScriptedDialer) LastConfig() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastConfig
}

// Connects returns how many times Connect was called.
func (d *ScriptedDialer) Connects() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connects
}
