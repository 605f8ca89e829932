// Package rtc ingests microphone audio over a WebRTC peer connection,
// for clients that prefer an RTP media path over pushing PCM frames
// through the websocket. Received opus packets are decoded and
// resampled to the capture rate, then delivered as an audio.Source.
package rtc

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/pion/rtp"
	"github.com/pion/webrtc/v3"

	"github.com/aria-studio/aria/internal/log"
	"github.com/aria-studio/aria/pkg/audio"
)

// opusClockRate is the RTP clock rate opus always uses on the wire.
const opusClockRate = 48000

// Source receives browser microphone audio over WebRTC.
type Source struct {
	mu      sync.Mutex
	pc      *webrtc.PeerConnection
	running bool
	closed  bool
	out     chan audio.Chunk

	chunksRead  atomic.Int64
	samplesRead atomic.Int64
	overruns    atomic.Int64
}

// NewSource creates an RTC-fed audio source. Call Answer with the
// client's SDP offer to establish the media path.
func NewSource() *Source {
	return &Source{out: make(chan audio.Chunk, 64)}
}

// Answer accepts the client's SDP offer and returns the local answer
// with ICE candidates gathered. The audio track is decoded as it
// arrives; chunks are dropped until Start is called.
func (s *Source) Answer(offerSDP string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", io.ErrClosedPipe
	}
	if s.pc != nil {
		return "", fmt.Errorf("rtc: peer connection already established")
	}

	pc, err := webrtc.NewPeerConnection(webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{{URLs: []string{"stun:stun.l.google.com:19302"}}},
	})
	if err != nil {
		return "", fmt.Errorf("rtc: peer connection: %w", err)
	}
	if _, err := pc.AddTransceiverFromKind(webrtc.RTPCodecTypeAudio,
		webrtc.RTPTransceiverInit{Direction: webrtc.RTPTransceiverDirectionRecvonly}); err != nil {
		pc.Close()
		return "", fmt.Errorf("rtc: add transceiver: %w", err)
	}

	pc.OnTrack(func(track *webrtc.TrackRemote, _ *webrtc.RTPReceiver) {
		if track.Kind() != webrtc.RTPCodecTypeAudio {
			return
		}
		log.Info("rtc: audio track started", "codec", track.Codec().MimeType)
		go s.readTrack(track)
	})

	if err := pc.SetRemoteDescription(webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  offerSDP,
	}); err != nil {
		pc.Close()
		return "", fmt.Errorf("rtc: set offer: %w", err)
	}

	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		pc.Close()
		return "", fmt.Errorf("rtc: create answer: %w", err)
	}
	gathered := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		pc.Close()
		return "", fmt.Errorf("rtc: set answer: %w", err)
	}
	<-gathered

	s.pc = pc
	return pc.LocalDescription().SDP, nil
}

// readTrack decodes inbound opus packets and forwards PCM chunks at the
// capture rate.
func (s *Source) readTrack(track *webrtc.TrackRemote) {
	dec, err := audio.NewOpusDecoder(opusClockRate, 1)
	if err != nil {
		log.Error("rtc: opus decoder", "err", err)
		return
	}

	var prev *rtp.Packet
	for {
		pkt, _, err := track.ReadRTP()
		if err != nil {
			if err != io.EOF {
				log.Debug("rtc: track read ended", "err", err)
			}
			return
		}
		if lost := packetGap(prev, pkt); lost > 0 {
			log.Debug("rtc: packet loss", "lost", lost, "seq", pkt.SequenceNumber)
		}
		prev = pkt
		if len(pkt.Payload) == 0 {
			continue
		}
		samples, err := dec.Decode(pkt.Payload)
		if err != nil {
			log.Debug("rtc: skipping undecodable packet", "err", err)
			continue
		}
		s.deliver(audio.Chunk{
			Samples:    audio.Resample(samples, opusClockRate, audio.CaptureRate),
			SampleRate: audio.CaptureRate,
			Channels:   1,
		})
	}
}

// packetGap counts packets missing between two consecutive reads,
// accounting for sequence number wraparound.
func packetGap(prev, cur *rtp.Packet) int {
	if prev == nil {
		return 0
	}
	delta := cur.SequenceNumber - prev.SequenceNumber
	if delta == 0 || delta > 0x8000 {
		// Duplicate or reordered; not a loss.
		return 0
	}
	return int(delta) - 1
}

// deliver hands one chunk to the consumer. The send happens under the
// mutex so Stop cannot close the channel mid-send.
func (s *Source) deliver(chunk audio.Chunk) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	select {
	case s.out <- chunk:
		s.chunksRead.Add(1)
		s.samplesRead.Add(int64(len(chunk.Samples)))
	default:
		s.overruns.Add(1)
	}
}

// Start begins delivering decoded chunks.
func (s *Source) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return io.ErrClosedPipe
	}
	if s.running {
		return nil
	}
	s.running = true
	s.out = make(chan audio.Chunk, 64)
	return nil
}

// Stop halts delivery and closes the stream channel.
func (s *Source) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return nil
	}
	s.running = false
	close(s.out)
	return nil
}

// Stream returns the channel of decoded capture-rate chunks.
func (s *Source) Stream() <-chan audio.Chunk {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.out
}

// Name returns "rtc".
func (s *Source) Name() string { return "rtc" }

// Close tears down the peer connection.
func (s *Source) Close() error {
	if err := s.Stop(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.pc != nil {
		return s.pc.Close()
	}
	return nil
}

// Stats returns capture statistics.
func (s *Source) Stats() audio.SourceStats {
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	return audio.SourceStats{
		ChunksRead:  s.chunksRead.Load(),
		SamplesRead: s.samplesRead.Load(),
		Overruns:    s.overruns.Load(),
		Running:     running,
		Backend:     s.Name(),
	}
}
