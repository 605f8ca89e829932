package voice

import "strings"

// Turn is one completed user-utterance / model-response exchange.
type Turn struct {
	User  string `json:"user"`
	Model string `json:"model"`
}

// Update is one incremental transcript notification. User and Model
// carry the accumulated text of the current turn; Final marks the
// notification emitted when a turn completes and the accumulators reset.
type Update struct {
	User  string `json:"user"`
	Model string `json:"model"`
	Final bool   `json:"final"`
}

// transcript accumulates partial speech-to-text fragments into turns.
// Not safe for concurrent use; the adapter guards it with its mutex.
type transcript struct {
	user  strings.Builder
	model strings.Builder
	turns []Turn
}

func (t *transcript) appendUser(text string) {
	t.user.WriteString(text)
}

func (t *transcript) appendModel(text string) {
	t.model.WriteString(text)
}

// commit finalizes the current turn and resets both accumulators.
// A turn with no text on either side is dropped rather than recorded.
func (t *transcript) commit() (Turn, bool) {
	turn := Turn{User: t.user.String(), Model: t.model.String()}
	t.user.Reset()
	t.model.Reset()
	if turn.User == "" && turn.Model == "" {
		return Turn{}, false
	}
	t.turns = append(t.turns, turn)
	return turn, true
}

// snapshot returns the in-progress accumulators.
func (t *transcript) snapshot() (user, model string) {
	return t.user.String(), t.model.String()
}

// history returns a copy of the completed turns.
func (t *transcript) history() []Turn {
	out := make([]Turn, len(t.turns))
	copy(out, t.turns)
	return out
}
