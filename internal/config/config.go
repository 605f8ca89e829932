// Package config provides configuration helpers for aria commands.
package config

import (
	"fmt"
	"os"
)

// Default server configuration.
const (
	DefaultPort       = "8085"
	DefaultLogLevel   = "info"
	DefaultChatModel  = "gemini-2.5-flash"
	DefaultLiveModel  = "gemini-2.5-flash-native-audio-preview-09-2025"
	DefaultImageModel = "imagen-4.0-generate-001"
	DefaultEditModel  = "gemini-2.5-flash-image"
	DefaultVideoModel = "veo-3.1-fast-generate-preview"
	DefaultTTSModel   = "gemini-2.5-flash-preview-tts"
	DefaultVoice      = "Zephyr"
)

// APIKey returns the Gemini API key from GEMINI_API_KEY or GOOGLE_API_KEY.
// Returns an empty string if neither is set.
func APIKey() string {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key
	}
	return os.Getenv("GOOGLE_API_KEY")
}

// APIKeyRequired returns the Gemini API key.
// Exits with usage text if not set.
func APIKeyRequired() string {
	key := APIKey()
	if key == "" {
		fmt.Fprintln(os.Stderr, "Error: GEMINI_API_KEY environment variable is required")
		fmt.Fprintln(os.Stderr, "Usage: GEMINI_API_KEY=... go run ./cmd/aria")
		os.Exit(1)
	}
	return key
}

// Port returns the HTTP listen port from ARIA_PORT or the default.
func Port() string {
	if port := os.Getenv("ARIA_PORT"); port != "" {
		return port
	}
	return DefaultPort
}

// LogLevel returns the log level from ARIA_LOG_LEVEL or the default.
func LogLevel() string {
	if level := os.Getenv("ARIA_LOG_LEVEL"); level != "" {
		return level
	}
	return DefaultLogLevel
}

// ChatModel returns the chat model from ARIA_CHAT_MODEL or the default.
func ChatModel() string {
	if model := os.Getenv("ARIA_CHAT_MODEL"); model != "" {
		return model
	}
	return DefaultChatModel
}

// LiveModel returns the live conversation model from ARIA_LIVE_MODEL or the default.
func LiveModel() string {
	if model := os.Getenv("ARIA_LIVE_MODEL"); model != "" {
		return model
	}
	return DefaultLiveModel
}

// Voice returns the synthetic voice name from ARIA_VOICE or the default.
func Voice() string {
	if voice := os.Getenv("ARIA_VOICE"); voice != "" {
		return voice
	}
	return DefaultVoice
}
