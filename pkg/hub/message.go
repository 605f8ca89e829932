package hub

// MessageType selects the websocket frame format.
type MessageType int

const (
	// JSONMessage is a JSON-encoded event.
	JSONMessage MessageType = iota
	// BinaryMessage is raw binary data, e.g. an audio frame.
	BinaryMessage
)

// Message is one frame to broadcast.
type Message struct {
	Type MessageType
	Data []byte
}

// Event is the JSON envelope delivered to transcript subscribers.
type Event struct {
	// Type is one of "transcript", "status", or "error".
	Type string `json:"type"`

	// Status carries the connection state for status events.
	Status string `json:"status,omitempty"`

	// User and Model carry the current turn's accumulated text for
	// transcript events; Final marks a committed turn.
	User  string `json:"user,omitempty"`
	Model string `json:"model,omitempty"`
	Final bool   `json:"final,omitempty"`

	// Error carries a human-readable message for error events.
	Error string `json:"error,omitempty"`
}

// TranscriptEvent builds a transcript event.
func TranscriptEvent(user, model string, final bool) Event {
	return Event{Type: "transcript", User: user, Model: model, Final: final}
}

// StatusEvent builds a status event.
func StatusEvent(status string) Event {
	return Event{Type: "status", Status: status}
}

// ErrorEvent builds an error event.
func ErrorEvent(msg string) Event {
	return Event{Type: "error", Error: msg}
}
