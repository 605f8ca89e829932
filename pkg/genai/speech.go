package genai

import (
	"context"
	"encoding/base64"
	"fmt"
)

// SpokenAudio is synthesized speech. Data is raw audio in the mime type
// the model chose, typically PCM at 24kHz.
type SpokenAudio struct {
	Data     []byte
	MimeType string
}

// SynthesizeSpeech renders text as speech with the given prebuilt voice.
func (c *Client) SynthesizeSpeech(ctx context.Context, model, text, voiceName string) (*SpokenAudio, error) {
	if text == "" {
		return nil, fmt.Errorf("genai: text is empty")
	}
	req := generateContentRequest{
		Contents: []content{textContent("user", text)},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
		},
	}
	if voiceName != "" {
		req.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voiceName},
			},
		}
	}
	resp, err := c.generate(ctx, model, req)
	if err != nil {
		return nil, err
	}
	out := resp.firstBlob("audio/")
	if out == nil {
		return nil, fmt.Errorf("genai: no audio in response")
	}
	data, err := base64.StdEncoding.DecodeString(out.Data)
	if err != nil {
		return nil, fmt.Errorf("genai: decode audio: %w", err)
	}
	return &SpokenAudio{Data: data, MimeType: out.MimeType}, nil
}

// Transcribe converts recorded audio into text.
func (c *Client) Transcribe(ctx context.Context, model string, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("genai: audio is empty")
	}
	resp, err := c.generate(ctx, model, generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &blob{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(audio)}},
				{Text: "Transcribe this audio verbatim. Output only the transcription."},
			},
		}},
	})
	if err != nil {
		return "", err
	}
	return resp.requireText()
}
