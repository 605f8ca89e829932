package audio

import (
	"context"
	"io"
)

// Sink plays audio to a speaker or other output device.
type Sink interface {
	// Start begins audio playback.
	// After calling Start, audio can be written via Write.
	Start(ctx context.Context) error

	// Stop halts audio playback.
	// It is safe to call Stop multiple times.
	Stop() error

	// Write sends an audio chunk to the output device.
	// This may block if the output buffer is full.
	Write(ctx context.Context, chunk Chunk) error

	// Clear discards all buffered audio immediately.
	// Use this to interrupt playback (e.g., when the user speaks).
	Clear() error

	// Name returns the backend name (e.g., "ws", "mock").
	Name() string

	// Close releases all resources.
	// After Close, the sink cannot be restarted.
	io.Closer
}

// SinkFunc adapts a write function into a Sink. Start, Stop, Clear and
// Close are no-ops; use it for transports that deliver chunks elsewhere
// (e.g. a websocket connection).
type SinkFunc func(ctx context.Context, chunk Chunk) error

// Start implements Sink.
func (f SinkFunc) Start(ctx context.Context) error { return nil }

// Stop implements Sink.
func (f SinkFunc) Stop() error { return nil }

// Write implements Sink.
func (f SinkFunc) Write(ctx context.Context, chunk Chunk) error { return f(ctx, chunk) }

// Clear implements Sink.
func (f SinkFunc) Clear() error { return nil }

// Name implements Sink.
func (f SinkFunc) Name() string { return "func" }

// Close implements Sink.
func (f SinkFunc) Close() error { return nil }
