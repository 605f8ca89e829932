package live

import (
	"encoding/base64"
	"strings"
)

// Wire types for the BidiGenerateContent protocol. The vendor accepts
// both camelCase and snake_case field names on the client side; these
// follow the camelCase form the server uses on the way back.

type setupMessage struct {
	Setup setupPayload `json:"setup"`
}

type setupPayload struct {
	Model                    string           `json:"model"`
	GenerationConfig         generationConfig `json:"generationConfig"`
	SystemInstruction        *wireContent     `json:"systemInstruction,omitempty"`
	InputAudioTranscription  *struct{}        `json:"inputAudioTranscription,omitempty"`
	OutputAudioTranscription *struct{}        `json:"outputAudioTranscription,omitempty"`
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type realtimeInputMessage struct {
	RealtimeInput realtimeInput `json:"realtimeInput"`
}

type realtimeInput struct {
	MediaChunks []mediaChunk `json:"mediaChunks"`
}

type mediaChunk struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

type wireContent struct {
	Parts []wirePart `json:"parts,omitempty"`
}

type wirePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *wireInlineData `json:"inlineData,omitempty"`
}

type wireInlineData struct {
	MimeType string `json:"mimeType,omitempty"`
	Data     string `json:"data,omitempty"`
}

type serverFrame struct {
	SetupComplete *struct{}          `json:"setupComplete,omitempty"`
	ServerContent *wireServerContent `json:"serverContent,omitempty"`
}

type wireServerContent struct {
	ModelTurn           *wireContent       `json:"modelTurn,omitempty"`
	TurnComplete        bool               `json:"turnComplete,omitempty"`
	Interrupted         bool               `json:"interrupted,omitempty"`
	InputTranscription  *wireTranscription `json:"inputTranscription,omitempty"`
	OutputTranscription *wireTranscription `json:"outputTranscription,omitempty"`
}

type wireTranscription struct {
	Text string `json:"text,omitempty"`
}

// buildSetup assembles the initial setup frame from a Config.
func buildSetup(cfg Config) setupMessage {
	cfg = cfg.withDefaults()

	p := setupPayload{
		Model: cfg.Model,
		GenerationConfig: generationConfig{
			ResponseModalities: cfg.ResponseModalities,
		},
	}
	if cfg.Voice != "" {
		p.GenerationConfig.SpeechConfig = &speechConfig{
			VoiceConfig: voiceConfig{
				PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		}
	}
	if cfg.SystemInstruction != "" {
		p.SystemInstruction = &wireContent{
			Parts: []wirePart{{Text: cfg.SystemInstruction}},
		}
	}
	if cfg.TranscribeInput {
		p.InputAudioTranscription = &struct{}{}
	}
	if cfg.TranscribeOutput {
		p.OutputAudioTranscription = &struct{}{}
	}
	return setupMessage{Setup: p}
}

// decodeFrame maps one inbound wire frame onto a ServerMessage.
// Frames with nothing we recognize return ok=false.
func decodeFrame(f serverFrame) (ServerMessage, bool) {
	var msg ServerMessage
	ok := false

	if f.SetupComplete != nil {
		msg.SetupComplete = true
		ok = true
	}
	sc := f.ServerContent
	if sc == nil {
		return msg, ok
	}

	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		msg.InputTranscript = sc.InputTranscription.Text
		ok = true
	}
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		msg.OutputTranscript = sc.OutputTranscription.Text
		ok = true
	}
	if sc.TurnComplete {
		msg.TurnComplete = true
		ok = true
	}
	if sc.Interrupted {
		msg.Interrupted = true
		ok = true
	}
	if sc.ModelTurn != nil {
		for _, part := range sc.ModelTurn.Parts {
			inline := part.InlineData
			if inline == nil || !strings.HasPrefix(inline.MimeType, "audio/") {
				continue
			}
			raw, err := base64.StdEncoding.DecodeString(inline.Data)
			if err != nil {
				continue
			}
			msg.Audio = raw
			msg.MimeType = inline.MimeType
			ok = true
			break
		}
	}
	return msg, ok
}
