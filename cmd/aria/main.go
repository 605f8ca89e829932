// Command aria runs the studio server: the HTTP API for chat, search,
// image, video, speech and transcription views, plus the realtime voice
// websocket.
package main

import (
	"os"

	"github.com/aria-studio/aria/internal/config"
	"github.com/aria-studio/aria/internal/log"
	"github.com/aria-studio/aria/pkg/genai"
	"github.com/aria-studio/aria/pkg/geo"
	"github.com/aria-studio/aria/pkg/live"
	"github.com/aria-studio/aria/pkg/stream"
	"github.com/aria-studio/aria/pkg/voice"
	"github.com/aria-studio/aria/pkg/web"
)

const systemInstruction = "You are Aria, a warm and concise voice assistant. " +
	"Keep spoken replies short and conversational."

func main() {
	log.Init(config.LogLevel())

	apiKey := config.APIKeyRequired()
	ai := genai.NewClient(apiKey)

	server := web.NewServer(config.Port(), web.Config{
		ChatModel:  config.ChatModel(),
		ImageModel: config.DefaultImageModel,
		EditModel:  config.DefaultEditModel,
		VideoModel: config.DefaultVideoModel,
		TTSModel:   config.DefaultTTSModel,
		Voice:      config.Voice(),
	}, ai, &geo.IPProvider{}, nil)

	voiceWS := &stream.Handler{
		Dialer: live.NewGeminiDialer(apiKey),
		Voice: voice.Config{
			Model:             "models/" + config.LiveModel(),
			Voice:             config.Voice(),
			SystemInstruction: systemInstruction,
		},
		Transcripts: server.TranscriptHub(),
	}
	voiceWS.RegisterRoutes(server.App())

	log.Info("aria: starting",
		"port", config.Port(),
		"chat_model", config.ChatModel(),
		"live_model", config.LiveModel())

	if err := server.Start(); err != nil {
		log.Error("aria: server exited", "err", err)
		os.Exit(1)
	}
}
