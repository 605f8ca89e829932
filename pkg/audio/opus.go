package audio

import (
	"fmt"

	"gopkg.in/hraban/opus.v2"
)

// Opus frame sizing. 20 ms frames are the interoperability default; the
// decoder buffer covers the 120 ms maximum frame the codec allows.
const (
	opusFrameMS       = 20
	opusMaxFrameMS    = 120
	opusEncodeBufSize = 4000
)

// OpusEncoder encodes PCM16 audio into Opus frames. Model speech is
// encoded at its native 24 kHz before being shipped to browser clients.
type OpusEncoder struct {
	enc        *opus.Encoder
	sampleRate int
	channels   int
	frameSize  int // samples per channel per frame
	pending    []int16
}

// NewOpusEncoder creates an encoder for the given rate and channel count.
// Opus accepts 8, 12, 16, 24 and 48 kHz input.
func NewOpusEncoder(sampleRate, channels int) (*OpusEncoder, error) {
	enc, err := opus.NewEncoder(sampleRate, channels, opus.AppVoIP)
	if err != nil {
		return nil, fmt.Errorf("audio: create opus encoder: %w", err)
	}
	return &OpusEncoder{
		enc:        enc,
		sampleRate: sampleRate,
		channels:   channels,
		frameSize:  sampleRate * opusFrameMS / 1000,
	}, nil
}

// Encode consumes PCM16 samples and returns zero or more complete Opus
// frames. Samples that do not fill a whole frame are buffered for the
// next call.
func (e *OpusEncoder) Encode(samples []int16) ([][]byte, error) {
	e.pending = append(e.pending, samples...)

	frameSamples := e.frameSize * e.channels
	var frames [][]byte
	for len(e.pending) >= frameSamples {
		frame := e.pending[:frameSamples]
		e.pending = e.pending[frameSamples:]

		buf := make([]byte, opusEncodeBufSize)
		n, err := e.enc.Encode(frame, buf)
		if err != nil {
			return frames, fmt.Errorf("audio: opus encode: %w", err)
		}
		frames = append(frames, buf[:n])
	}
	return frames, nil
}

// OpusDecoder decodes Opus frames into PCM16 audio. WebRTC microphone
// ingress decodes at 48 kHz before resampling down to the capture rate.
type OpusDecoder struct {
	dec        *opus.Decoder
	sampleRate int
	channels   int
	frameBuf   []int16
}

// NewOpusDecoder creates a decoder for the given rate and channel count.
func NewOpusDecoder(sampleRate, channels int) (*OpusDecoder, error) {
	dec, err := opus.NewDecoder(sampleRate, channels)
	if err != nil {
		return nil, fmt.Errorf("audio: create opus decoder: %w", err)
	}
	return &OpusDecoder{
		dec:        dec,
		sampleRate: sampleRate,
		channels:   channels,
		frameBuf:   make([]int16, sampleRate*opusMaxFrameMS/1000*channels),
	}, nil
}

// Decode decodes one Opus packet and returns the PCM16 samples.
func (d *OpusDecoder) Decode(packet []byte) ([]int16, error) {
	n, err := d.dec.Decode(packet, d.frameBuf)
	if err != nil {
		return nil, fmt.Errorf("audio: opus decode: %w", err)
	}
	out := make([]int16, n*d.channels)
	copy(out, d.frameBuf[:n*d.channels])
	return out, nil
}
