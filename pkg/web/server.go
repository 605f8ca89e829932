// Package web serves the studio HTTP API: chat, grounded search, image
// generation and editing, video generation and analysis, speech
// synthesis, transcription, and the transcript websocket feed.
package web

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/websocket/v2"

	"github.com/aria-studio/aria/internal/log"
	"github.com/aria-studio/aria/pkg/genai"
	"github.com/aria-studio/aria/pkg/geo"
	"github.com/aria-studio/aria/pkg/hub"
	"github.com/aria-studio/aria/pkg/vision"
)

// Config selects the models behind each endpoint.
type Config struct {
	ChatModel  string
	ImageModel string
	EditModel  string
	VideoModel string
	TTSModel   string
	Voice      string

	// PollInterval for video generation jobs. Defaults to
	// genai.DefaultPollInterval.
	PollInterval time.Duration
}

// Server is the HTTP API server.
type Server struct {
	app  *fiber.App
	port string
	cfg  Config

	ai       *genai.Client
	location geo.Provider
	sampler  vision.Sampler

	transcripts *hub.Hub
	jobs        *jobStore
}

// NewServer builds the server and mounts all routes. The transcript hub
// may be shared with the voice stream handler so spoken turns reach
// passive viewers.
func NewServer(port string, cfg Config, ai *genai.Client, location geo.Provider, transcripts *hub.Hub) *Server {
	if transcripts == nil {
		transcripts = hub.New("transcript")
	}
	s := &Server{
		port:        port,
		cfg:         cfg,
		ai:          ai,
		location:    location,
		transcripts: transcripts,
		jobs:        newJobStore(),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Aria Studio",
		DisableStartupMessage: true,
		BodyLimit:             64 * 1024 * 1024, // video uploads
	})
	app.Use(cors.New())
	app.Static("/", "./web")

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Post("/chat", s.handleChat)
	api.Post("/ground", s.handleGround)
	api.Post("/image/generate", s.handleImageGenerate)
	api.Post("/image/edit", s.handleImageEdit)
	api.Post("/image/analyze", s.handleImageAnalyze)
	api.Post("/video/generate", s.handleVideoGenerate)
	api.Get("/video/jobs/:id", s.handleVideoJob)
	api.Post("/video/analyze", s.handleVideoAnalyze)
	api.Post("/tts", s.handleTTS)
	api.Post("/transcribe", s.handleTranscribe)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/transcript", websocket.New(s.handleTranscriptWS))

	s.app = app
	return s
}

// App exposes the fiber app for tests and for mounting extra routes.
func (s *Server) App() *fiber.App {
	return s.app
}

// TranscriptHub returns the transcript broadcast hub.
func (s *Server) TranscriptHub() *hub.Hub {
	return s.transcripts
}

// Start runs the hub loop and listens. Blocks.
func (s *Server) Start() error {
	go s.transcripts.Run()
	log.Info("web: listening", "port", s.port)
	return s.app.Listen(":" + s.port)
}

// handleTranscriptWS attaches one subscriber to the transcript feed.
func (s *Server) handleTranscriptWS(c *websocket.Conn) {
	client := hub.NewClient(s.transcripts, c)
	client.Run()
}
