package audio

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Playback is a handle to one scheduled, not-yet-finished output buffer.
type Playback struct {
	// Chunk is the audio scheduled for playout.
	Chunk Chunk

	// Start is the position on the output clock at which playout begins.
	Start time.Duration

	id    uint64
	sched *Scheduler
	stop  chan struct{}
	once  sync.Once
}

// Stop cancels this playback and removes it from the scheduled set.
func (p *Playback) Stop() {
	p.cancel()
	p.sched.remove(p.id)
}

// Complete marks the natural end of playout and removes the handle from
// the scheduled set. Transports that own their own playout timing call
// this when the buffer finishes playing.
func (p *Playback) Complete() {
	p.sched.remove(p.id)
}

func (p *Playback) cancel() {
	p.once.Do(func() { close(p.stop) })
}

// Scheduler performs gapless playback scheduling of streamed audio
// chunks. It maintains a monotonically non-decreasing cursor: each chunk
// starts at max(cursor, clock.Now()) so chunks never overlap and never
// schedule in the past, then the cursor advances by the chunk duration.
// Chunks arriving faster than they play produce continuous audio; slower
// arrival degrades to a brief gap, and no chunk is ever dropped.
type Scheduler struct {
	mu        sync.Mutex
	clock     Clock
	sink      Sink
	logger    *slog.Logger
	nextStart time.Duration
	nextID    uint64
	scheduled map[uint64]*Playback
}

// NewScheduler creates a Scheduler driving the given sink. A nil clock
// uses the system clock; a nil sink leaves playout to the caller via the
// returned Playback handles.
func NewScheduler(clock Clock, sink Sink, logger *slog.Logger) *Scheduler {
	if clock == nil {
		clock = NewSystemClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		clock:     clock,
		sink:      sink,
		logger:    logger,
		scheduled: make(map[uint64]*Playback),
	}
}

// Schedule queues a chunk for playout and returns its handle. The chunk's
// start time is max(cursor, clock.Now()); the cursor then advances by the
// chunk's duration.
func (s *Scheduler) Schedule(chunk Chunk) *Playback {
	s.mu.Lock()
	start := s.nextStart
	if now := s.clock.Now(); now > start {
		start = now
	}
	p := &Playback{
		Chunk: chunk,
		Start: start,
		id:    s.nextID,
		sched: s,
		stop:  make(chan struct{}),
	}
	s.nextID++
	s.nextStart = start + chunk.Duration()
	s.scheduled[p.id] = p
	sink := s.sink
	s.mu.Unlock()

	if sink != nil {
		go s.playout(p, sink)
	}
	return p
}

// playout waits until the playback's start time, writes the chunk to the
// sink, then completes the handle when the chunk has played through.
func (s *Scheduler) playout(p *Playback, sink Sink) {
	if delay := p.Start - s.clock.Now(); delay > 0 {
		t := time.NewTimer(delay)
		select {
		case <-t.C:
		case <-p.stop:
			t.Stop()
			return
		}
	}

	select {
	case <-p.stop:
		return
	default:
	}

	if err := sink.Write(context.Background(), p.Chunk); err != nil {
		s.logger.Warn("playback write failed", "error", err)
	}

	t := time.NewTimer(p.Chunk.Duration())
	select {
	case <-t.C:
		p.Complete()
	case <-p.stop:
		t.Stop()
	}
}

// CancelAll stops every scheduled buffer, clears the set, and resets the
// cursor to zero so the next chunk schedules immediately. Used when the
// remote interrupts playback (the user started talking) and on teardown.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	snapshot := make([]*Playback, 0, len(s.scheduled))
	for _, p := range s.scheduled {
		snapshot = append(snapshot, p)
	}
	s.scheduled = make(map[uint64]*Playback)
	s.nextStart = 0
	s.mu.Unlock()

	// Stop outside the lock; the set is already cleared.
	for _, p := range snapshot {
		p.cancel()
	}
	if s.sink != nil {
		if err := s.sink.Clear(); err != nil {
			s.logger.Warn("sink clear failed", "error", err)
		}
	}
}

// Pending returns the number of scheduled, not-yet-finished buffers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scheduled)
}

// NextStart returns the current cursor position.
func (s *Scheduler) NextStart() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextStart
}

func (s *Scheduler) remove(id uint64) {
	s.mu.Lock()
	delete(s.scheduled, id)
	s.mu.Unlock()
}
