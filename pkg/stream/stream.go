// Package stream exposes the realtime voice conversation to browser
// clients over a websocket. Each connection owns one voice adapter:
// binary frames carry raw PCM16 microphone audio upstream, outbound
// binary frames carry opus-encoded model speech, and JSON text frames
// carry control commands and transcript/status events.
package stream

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/aria-studio/aria/internal/log"
	"github.com/aria-studio/aria/pkg/audio"
	"github.com/aria-studio/aria/pkg/hub"
	"github.com/aria-studio/aria/pkg/live"
	"github.com/aria-studio/aria/pkg/voice"
)

// Handler serves the voice websocket endpoint.
type Handler struct {
	// Dialer opens remote sessions for each connection.
	Dialer live.Dialer

	// Voice is the session configuration applied to every connection.
	Voice voice.Config

	// Transcripts, when set, also receives every transcript and
	// status event for fan-out to passive viewers.
	Transcripts *hub.Hub
}

// command is an inbound JSON control frame.
type command struct {
	Type string `json:"type"` // "start" or "stop"
}

// RegisterRoutes mounts the voice endpoint on a fiber app.
func (h *Handler) RegisterRoutes(app *fiber.App) {
	app.Use("/ws/voice", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/voice", websocket.New(h.handle))
}

// conn is the per-connection state: one adapter, one capture source fed
// by inbound frames, one opus encoder for outbound audio.
type conn struct {
	id      string
	ws      *websocket.Conn
	writeMu sync.Mutex

	adapter *voice.Adapter
	src     *audio.PushSource
	enc     *audio.OpusEncoder
	encMu   sync.Mutex
}

func (h *Handler) handle(ws *websocket.Conn) {
	c := &conn{id: uuid.NewString(), ws: ws}

	c.src = audio.NewPushSource(audio.DefaultCaptureConfig())
	enc, err := audio.NewOpusEncoder(audio.PlaybackRate, 1)
	if err != nil {
		log.Error("stream: opus encoder", "err", err)
		c.sendEvent(hub.ErrorEvent("audio encoder unavailable"))
		return
	}
	c.enc = enc

	sched := audio.NewScheduler(audio.NewSystemClock(), audio.SinkFunc(c.writeAudio), log.L())

	adapter, err := voice.NewAdapter(h.Voice, voice.Deps{
		Dialer:    h.Dialer,
		Source:    c.src,
		Scheduler: sched,
	})
	if err != nil {
		log.Error("stream: adapter", "err", err)
		c.sendEvent(hub.ErrorEvent(err.Error()))
		return
	}
	c.adapter = adapter

	adapter.OnStatus(func(s voice.Status) {
		ev := hub.StatusEvent(string(s))
		c.sendEvent(ev)
		h.publish(ev)
	})
	adapter.OnTranscript(func(u voice.Update) {
		ev := hub.TranscriptEvent(u.User, u.Model, u.Final)
		c.sendEvent(ev)
		h.publish(ev)
	})
	adapter.OnError(func(err error) {
		ev := hub.ErrorEvent(err.Error())
		c.sendEvent(ev)
		h.publish(ev)
	})

	log.Info("stream: client connected", "conn", c.id)
	defer func() {
		adapter.Stop()
		c.src.Close()
		log.Info("stream: client disconnected", "conn", c.id)
	}()

	for {
		msgType, data, err := ws.ReadMessage()
		if err != nil {
			return
		}
		switch msgType {
		case websocket.BinaryMessage:
			c.src.Push(data)
		case websocket.TextMessage:
			var cmd command
			if err := json.Unmarshal(data, &cmd); err != nil {
				log.Debug("stream: bad command", "conn", c.id, "err", err)
				continue
			}
			c.dispatch(cmd)
		}
	}
}

func (c *conn) dispatch(cmd command) {
	switch cmd.Type {
	case "start":
		if err := c.adapter.Start(context.Background()); err != nil {
			log.Warn("stream: start failed", "conn", c.id, "err", err)
		}
	case "stop":
		c.adapter.Stop()
	default:
		log.Debug("stream: unknown command", "conn", c.id, "type", cmd.Type)
	}
}

// writeAudio encodes one playback chunk to opus and ships each frame as
// a binary websocket message.
func (c *conn) writeAudio(ctx context.Context, chunk audio.Chunk) error {
	c.encMu.Lock()
	frames, err := c.enc.Encode(chunk.Samples)
	c.encMu.Unlock()
	if err != nil {
		return err
	}
	for _, frame := range frames {
		c.writeMu.Lock()
		err := c.ws.WriteMessage(websocket.BinaryMessage, frame)
		c.writeMu.Unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *conn) sendEvent(ev hub.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Debug("stream: event write failed", "conn", c.id, "err", err)
	}
}

func (h *Handler) publish(ev hub.Event) {
	if h.Transcripts == nil {
		return
	}
	if err := h.Transcripts.BroadcastEvent(ev); err != nil {
		log.Warn("stream: transcript broadcast failed", "err", err)
	}
}
