package voice

import (
	"errors"

	"github.com/aria-studio/aria/pkg/audio"
	"github.com/aria-studio/aria/pkg/live"
)

// Config describes one voice conversation.
type Config struct {
	// Model is the realtime conversational model.
	Model string

	// Voice selects the synthetic voice for spoken replies.
	Voice string

	// SystemInstruction describes the assistant persona.
	SystemInstruction string

	// CaptureRate is the microphone sample rate in Hz.
	// Defaults to audio.CaptureRate.
	CaptureRate int

	// PlaybackRate is the output sample rate in Hz. Input and output
	// rates differ and must never be conflated; defaults to
	// audio.PlaybackRate.
	PlaybackRate int
}

func (c Config) withDefaults() Config {
	if c.CaptureRate == 0 {
		c.CaptureRate = audio.CaptureRate
	}
	if c.PlaybackRate == 0 {
		c.PlaybackRate = audio.PlaybackRate
	}
	return c
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Model == "" {
		return errors.New("voice: model is required")
	}
	return nil
}

// liveConfig maps the voice configuration onto a session configuration.
// Both directions of speech are always transcribed so the conversation
// history can be accumulated locally.
func (c Config) liveConfig() live.Config {
	return live.Config{
		Model:             c.Model,
		Voice:             c.Voice,
		SystemInstruction: c.SystemInstruction,
		TranscribeInput:   true,
		TranscribeOutput:  true,
	}
}
