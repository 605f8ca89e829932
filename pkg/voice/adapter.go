// Package voice bridges a local microphone to a remote realtime
// conversation session.
//
// The Adapter owns the lifecycle of one conversation: it starts the
// capture source, opens the remote session, streams captured frames in
// capture order, schedules inbound audio for gapless playback, and
// accumulates transcription fragments into turns. All failures are
// terminal for the current session; the adapter reports them and
// returns to idle, from which Start may be called again.
package voice

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/aria-studio/aria/internal/log"
	"github.com/aria-studio/aria/pkg/audio"
	"github.com/aria-studio/aria/pkg/live"
)

// Status is the adapter's connection state.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusConnecting Status = "connecting"
	StatusActive     Status = "active"
)

// Deps are the adapter's collaborators. All are injected so tests can
// substitute scripted implementations.
type Deps struct {
	// Dialer opens the remote session.
	Dialer live.Dialer

	// Source produces captured microphone frames.
	Source audio.Source

	// Scheduler plays inbound audio back gaplessly.
	Scheduler *audio.Scheduler
}

// Adapter runs one realtime voice conversation at a time.
//
// The capture source, the session handle, and the playback scheduler
// are exclusively owned by one adapter instance. Session callbacks and
// Stop run on different goroutines, so shared state sits behind a
// single mutex; notification callbacks always fire outside it.
type Adapter struct {
	cfg  Config
	deps Deps

	mu          sync.Mutex
	status      Status
	session     live.Session
	stopCapture chan struct{}
	pendingOpen bool
	script      transcript

	onTranscript func(Update)
	onStatus     func(Status)
	onError      func(error)
}

// NewAdapter builds an idle adapter.
func NewAdapter(cfg Config, deps Deps) (*Adapter, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Dialer == nil {
		return nil, fmt.Errorf("voice: dialer is required")
	}
	if deps.Source == nil {
		return nil, fmt.Errorf("voice: capture source is required")
	}
	return &Adapter{cfg: cfg, deps: deps, status: StatusIdle}, nil
}

// OnTranscript registers the transcript update callback. Set before Start.
func (a *Adapter) OnTranscript(fn func(Update)) {
	a.mu.Lock()
	a.onTranscript = fn
	a.mu.Unlock()
}

// OnStatus registers the status change callback. Set before Start.
func (a *Adapter) OnStatus(fn func(Status)) {
	a.mu.Lock()
	a.onStatus = fn
	a.mu.Unlock()
}

// OnError registers the terminal-error callback. Set before Start.
func (a *Adapter) OnError(fn func(error)) {
	a.mu.Lock()
	a.onError = fn
	a.mu.Unlock()
}

// Status returns the adapter's current state.
func (a *Adapter) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// History returns the completed transcript turns so far.
func (a *Adapter) History() []Turn {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.script.history()
}

// Start opens the capture device and the remote session. Calling Start
// while a session is active or connecting is a no-op. Capture begins
// only once the remote reports the session open; any setup failure
// returns the adapter to idle with nothing left running.
func (a *Adapter) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.status != StatusIdle {
		a.mu.Unlock()
		return nil
	}
	a.status = StatusConnecting
	a.mu.Unlock()
	a.notifyStatus(StatusConnecting)

	if err := a.deps.Source.Start(ctx); err != nil {
		a.setIdle()
		err = fmt.Errorf("voice: microphone unavailable: %w", err)
		a.notifyError(err)
		return err
	}

	sess, err := a.deps.Dialer.Connect(ctx, a.cfg.liveConfig(), live.Callbacks{
		OnOpen:    a.handleOpen,
		OnMessage: a.handleMessage,
		OnError:   a.handleRemoteError,
		OnClose:   a.handleRemoteClose,
	})
	if err != nil {
		a.deps.Source.Stop()
		a.setIdle()
		err = fmt.Errorf("voice: connect: %w", err)
		a.notifyError(err)
		return err
	}

	a.mu.Lock()
	if a.status == StatusIdle {
		// Stopped while dialing.
		a.mu.Unlock()
		sess.Close()
		return nil
	}
	// Still connecting, or the open signal already moved us to active
	// before Connect returned. Either way the session is ours to keep.
	a.session = sess
	pending := a.pendingOpen
	a.pendingOpen = false
	a.mu.Unlock()
	if pending {
		// The open signal raced ahead of Connect returning.
		a.beginCapture(sess)
	}
	return nil
}

// Stop tears the session down: capture stops, the remote session is
// closed best-effort, and every scheduled playback is cancelled.
// Idempotent and safe to call from any state.
func (a *Adapter) Stop() {
	a.mu.Lock()
	if a.status == StatusIdle {
		a.mu.Unlock()
		return
	}
	a.status = StatusIdle
	sess := a.session
	a.session = nil
	stop := a.stopCapture
	a.stopCapture = nil
	a.pendingOpen = false
	a.mu.Unlock()

	if stop != nil {
		close(stop)
	}
	a.deps.Source.Stop()
	if sess != nil {
		sess.Close()
	}
	if a.deps.Scheduler != nil {
		a.deps.Scheduler.CancelAll()
	}
	a.notifyStatus(StatusIdle)
}

// handleOpen transitions to active and begins draining captured frames.
func (a *Adapter) handleOpen() {
	a.mu.Lock()
	if a.status != StatusConnecting {
		a.mu.Unlock()
		return
	}
	a.status = StatusActive
	sess := a.session
	if sess == nil {
		a.pendingOpen = true
	}
	a.mu.Unlock()

	a.notifyStatus(StatusActive)
	if sess != nil {
		a.beginCapture(sess)
	}
}

// beginCapture starts the capture goroutine exactly once per session.
func (a *Adapter) beginCapture(sess live.Session) {
	a.mu.Lock()
	if a.status != StatusActive || a.stopCapture != nil {
		a.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	a.stopCapture = stop
	a.mu.Unlock()

	go a.captureLoop(sess, stop)
}

// captureLoop forwards captured frames to the session. One goroutine
// reads the stream and sends sequentially, so frames reach the
// transport in capture order; sends are fire-and-forget and never
// block on remote acknowledgement.
func (a *Adapter) captureLoop(sess live.Session, stop <-chan struct{}) {
	mime := fmt.Sprintf("audio/pcm;rate=%d", a.cfg.CaptureRate)
	for {
		select {
		case <-stop:
			return
		case chunk, ok := <-a.deps.Source.Stream():
			if !ok {
				return
			}
			if err := sess.SendAudio(chunk.Bytes(), mime); err != nil {
				if err != live.ErrClosed {
					log.Warn("voice: dropping capture stream", "err", err)
				}
				return
			}
		}
	}
}

// handleMessage processes one inbound session event. Events arrive in
// transport delivery order; relative ordering between audio and text
// events is the transport's.
func (a *Adapter) handleMessage(msg live.ServerMessage) {
	var updates []Update

	a.mu.Lock()
	if a.status != StatusActive {
		a.mu.Unlock()
		return
	}

	if msg.InputTranscript != "" {
		a.script.appendUser(msg.InputTranscript)
	}
	if msg.OutputTranscript != "" {
		a.script.appendModel(msg.OutputTranscript)
	}
	if msg.InputTranscript != "" || msg.OutputTranscript != "" {
		user, model := a.script.snapshot()
		updates = append(updates, Update{User: user, Model: model})
	}
	if msg.TurnComplete {
		if turn, ok := a.script.commit(); ok {
			updates = append(updates, Update{User: turn.User, Model: turn.Model, Final: true})
		}
	}

	// Playback bookkeeping stays under the lock so the active check and
	// the schedule are atomic with respect to Stop: once Stop has run
	// its CancelAll, no late chunk can be enqueued behind it.
	if msg.Interrupted && a.deps.Scheduler != nil {
		a.deps.Scheduler.CancelAll()
	}
	if len(msg.Audio) > 0 {
		a.schedulePlayback(msg.Audio, msg.MimeType)
	}
	a.mu.Unlock()

	for _, u := range updates {
		a.notifyTranscript(u)
	}
}

// schedulePlayback decodes one inbound chunk and hands it to the
// scheduler. Undecodable chunks are logged and skipped; the session
// continues.
func (a *Adapter) schedulePlayback(data []byte, mimeType string) {
	if a.deps.Scheduler == nil {
		return
	}
	if len(data)%2 != 0 {
		log.Debug("voice: skipping undecodable chunk", "bytes", len(data))
		return
	}
	var chunk audio.Chunk
	chunk.FromBytes(data, mimeRate(mimeType, a.cfg.PlaybackRate), 1)
	a.deps.Scheduler.Schedule(chunk)
}

// handleRemoteError tears down and surfaces the transport failure.
func (a *Adapter) handleRemoteError(err error) {
	a.Stop()
	a.notifyError(fmt.Errorf("voice: session failed: %w", err))
}

// handleRemoteClose tears down when the remote ends the session.
func (a *Adapter) handleRemoteClose() {
	a.Stop()
}

func (a *Adapter) setIdle() {
	a.mu.Lock()
	a.status = StatusIdle
	a.mu.Unlock()
	a.notifyStatus(StatusIdle)
}

func (a *Adapter) notifyStatus(s Status) {
	a.mu.Lock()
	fn := a.onStatus
	a.mu.Unlock()
	if fn != nil {
		fn(s)
	}
}

func (a *Adapter) notifyTranscript(u Update) {
	a.mu.Lock()
	fn := a.onTranscript
	a.mu.Unlock()
	if fn != nil {
		fn(u)
	}
}

func (a *Adapter) notifyError(err error) {
	a.mu.Lock()
	fn := a.onError
	a.mu.Unlock()
	if fn != nil {
		fn(err)
	}
}

// mimeRate extracts the sample rate from a mime type such as
// "audio/pcm;rate=24000", falling back when absent or malformed.
func mimeRate(mimeType string, fallback int) int {
	for _, field := range strings.Split(mimeType, ";") {
		field = strings.TrimSpace(field)
		if v, ok := strings.CutPrefix(field, "rate="); ok {
			if rate, err := strconv.Atoi(v); err == nil && rate > 0 {
				return rate
			}
		}
	}
	return fallback
}
