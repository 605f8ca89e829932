package audio

import (
	"context"
	"io"
	"sync"
	"sync/atomic"
)

// PushSource is a Source fed by an external producer, e.g. a websocket
// connection delivering microphone frames from a browser. Frames pushed
// while the source is running are delivered on Stream in push order.
type PushSource struct {
	cfg Config

	mu       sync.Mutex
	running  bool
	closed   bool
	streamCh chan Chunk

	chunksRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64
}

// NewPushSource creates a push-fed audio source.
func NewPushSource(cfg Config) *PushSource {
	return &PushSource{
		cfg:      cfg,
		streamCh: make(chan Chunk, 32),
	}
}

// Start marks the source running.
func (p *PushSource) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return io.ErrClosedPipe
	}
	if p.running {
		return nil
	}
	p.running = true
	p.streamCh = make(chan Chunk, 32)
	return nil
}

// Push delivers raw PCM16 bytes captured upstream. Frames pushed while
// the source is stopped are discarded. If the consumer falls behind the
// frame is dropped and counted as an overrun rather than blocking the
// producer.
func (p *PushSource) Push(data []byte) {
	var chunk Chunk
	chunk.FromBytes(data, p.cfg.SampleRate, p.cfg.Channels)

	// The send happens under the mutex so Stop cannot close the
	// channel mid-send; the send is non-blocking, so the lock is
	// held only briefly.
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return
	}
	select {
	case p.streamCh <- chunk:
		p.chunksRead.Add(1)
		p.samplesRead.Add(int64(len(chunk.Samples)))
	default:
		p.overruns.Add(1)
	}
}

// Stop halts delivery and closes the stream channel.
func (p *PushSource) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.running {
		return nil
	}
	p.running = false
	close(p.streamCh)
	return nil
}

// Stream returns the channel of pushed chunks.
func (p *PushSource) Stream() <-chan Chunk {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.streamCh
}

// Name returns "push".
func (p *PushSource) Name() string { return "push" }

// Close releases the source.
func (p *PushSource) Close() error {
	if err := p.Stop(); err != nil {
		return err
	}
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// Stats returns capture statistics.
func (p *PushSource) Stats() SourceStats {
	p.mu.Lock()
	running := p.running
	p.mu.Unlock()
	return SourceStats{
		ChunksRead:  p.chunksRead.Load(),
		SamplesRead: p.samplesRead.Load(),
		Overruns:    p.overruns.Load(),
		Running:     running,
		Backend:     p.Name(),
	}
}
