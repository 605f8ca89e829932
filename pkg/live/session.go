// Package live provides a client for the vendor's bidirectional realtime
// voice API (BidiGenerateContent over WebSocket).
//
// The session is modeled as a small capability interface so callers can
// substitute a scripted double in tests: a Dialer opens a Session with a
// set of callbacks, audio is sent fire-and-forget with SendAudio, and
// inbound events arrive on the OnMessage callback in transport delivery
// order. The wire protocol itself is the vendor's; this package only
// frames and unframes it.
package live

import (
	"context"
	"errors"
)

// Common errors returned by live sessions.
var (
	ErrMissingAPIKey = errors.New("live: missing API key")
	ErrClosed        = errors.New("live: session is closed")
)

// Config describes one live conversation session.
type Config struct {
	// Model is the conversational model to connect to.
	Model string

	// Voice selects the prebuilt synthetic voice for spoken output.
	Voice string

	// SystemInstruction describes the assistant persona.
	SystemInstruction string

	// ResponseModalities lists the requested output modalities.
	// Defaults to AUDIO.
	ResponseModalities []string

	// TranscribeInput requests text transcription of spoken input.
	TranscribeInput bool

	// TranscribeOutput requests text transcription of spoken output.
	TranscribeOutput bool
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if len(c.ResponseModalities) == 0 {
		c.ResponseModalities = []string{"AUDIO"}
	}
	return c
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.Model == "" {
		return errors.New("live: model is required")
	}
	return nil
}

// ServerMessage is one inbound event from the remote session, already
// decoded from the vendor's wire framing. Exactly which fields are set
// depends on the event; arrival order between audio and text events is
// the transport's, not guaranteed to follow any particular sequencing.
type ServerMessage struct {
	// SetupComplete reports that the session is open and ready.
	SetupComplete bool

	// InputTranscript carries partial user-speech transcription text.
	InputTranscript string

	// OutputTranscript carries partial model-speech transcription text.
	OutputTranscript string

	// TurnComplete signals the end of the current conversational turn.
	TurnComplete bool

	// Interrupted signals that the remote stopped speaking and all
	// scheduled playback should be dropped immediately.
	Interrupted bool

	// Audio carries raw PCM bytes of model speech, when present.
	Audio []byte

	// MimeType describes the Audio payload (e.g. "audio/pcm;rate=24000").
	MimeType string
}

// Callbacks receive session events. All callbacks are invoked from the
// session's read loop; implementations must not block indefinitely.
type Callbacks struct {
	// OnOpen fires once, when the remote reports the session is ready.
	OnOpen func()

	// OnMessage fires for every inbound server event.
	OnMessage func(ServerMessage)

	// OnError fires when the transport fails.
	OnError func(err error)

	// OnClose fires once, when the session ends for any reason.
	OnClose func()
}

// Session is one open bidirectional streaming connection.
type Session interface {
	// SendAudio transmits one encoded audio frame. The write is
	// fire-and-forget: it returns once the frame is handed to the
	// transport and never waits for remote acknowledgement.
	SendAudio(pcm []byte, mimeType string) error

	// Close closes the session. Safe to call multiple times; errors
	// from an already-closed transport are ignored.
	Close() error
}

// Dialer opens live sessions. Inject a Dialer into components that own
// sessions so tests can substitute a scripted implementation.
type Dialer interface {
	Connect(ctx context.Context, cfg Config, cb Callbacks) (Session, error)
}
