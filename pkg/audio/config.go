package audio

import (
	"errors"
	"time"
)

// Config holds capture configuration for audio sources.
type Config struct {
	// SampleRate is the audio sample rate in Hz.
	SampleRate int `json:"sample_rate"`

	// Channels is the number of audio channels.
	Channels int `json:"channels"`

	// BlockSize is the number of frames delivered per chunk.
	// Capture callbacks run on this fixed block size.
	BlockSize int `json:"block_size"`
}

// DefaultCaptureConfig returns the capture configuration used by live
// voice sessions: 16 kHz mono in 4096-frame blocks (256 ms).
func DefaultCaptureConfig() Config {
	return Config{
		SampleRate: CaptureRate,
		Channels:   1,
		BlockSize:  4096,
	}
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	if c.SampleRate <= 0 {
		return errors.New("audio: sample rate must be positive")
	}
	if c.Channels <= 0 {
		return errors.New("audio: channels must be positive")
	}
	if c.BlockSize <= 0 {
		return errors.New("audio: block size must be positive")
	}
	return nil
}

// BlockDuration returns the duration of one capture block.
func (c Config) BlockDuration() time.Duration {
	if c.SampleRate <= 0 {
		return 0
	}
	return time.Duration(c.BlockSize) * time.Second / time.Duration(c.SampleRate)
}
