// Package audio provides PCM audio primitives for aria: capture sources,
// playback sinks, sample-rate conversion, and the gapless playback
// scheduler used by live voice sessions.
//
// All audio in this package is 16-bit linear PCM, little-endian. Live
// capture runs at 16 kHz mono and model speech arrives at 24 kHz mono;
// the two rates must never be conflated, which is why every Chunk carries
// its own sample rate.
package audio

import "time"

// Capture and playback rates used by live voice sessions.
const (
	CaptureRate  = 16000
	PlaybackRate = 24000
)

// Chunk represents a block of PCM16 audio samples.
type Chunk struct {
	// Samples contains PCM16 audio samples (little-endian).
	Samples []int16

	// SampleRate is the sample rate of this chunk.
	SampleRate int

	// Channels is the number of channels in this chunk.
	Channels int
}

// Bytes returns the raw bytes of the audio chunk.
func (c *Chunk) Bytes() []byte {
	buf := make([]byte, len(c.Samples)*2)
	for i, s := range c.Samples {
		buf[i*2] = byte(s)
		buf[i*2+1] = byte(s >> 8)
	}
	return buf
}

// FromBytes populates the chunk from raw PCM16 bytes.
func (c *Chunk) FromBytes(data []byte, sampleRate, channels int) {
	c.SampleRate = sampleRate
	c.Channels = channels
	c.Samples = make([]int16, len(data)/2)
	for i := range c.Samples {
		c.Samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
}

// Duration returns the playback duration of this audio chunk.
func (c *Chunk) Duration() time.Duration {
	if c.SampleRate == 0 || c.Channels == 0 {
		return 0
	}
	frames := len(c.Samples) / c.Channels
	return time.Duration(frames) * time.Second / time.Duration(c.SampleRate)
}
