package web

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/aria-studio/aria/internal/log"
	"github.com/aria-studio/aria/pkg/genai"
)

// errorBody is the JSON error envelope. NeedsKey tells the client to
// prompt for a new credential instead of showing a generic failure.
type errorBody struct {
	Error    string `json:"error"`
	NeedsKey bool   `json:"needs_key,omitempty"`
}

// respondError maps an upstream failure onto an HTTP response.
func respondError(c *fiber.Ctx, err error) error {
	body := errorBody{Error: err.Error()}
	status := fiber.StatusInternalServerError

	var apiErr *genai.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
	}
	if genai.IsInvalidKey(err) {
		status = fiber.StatusUnauthorized
		body.NeedsKey = true
	}
	return c.Status(status).JSON(body)
}

func (s *Server) handleStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"needs_key": !s.ai.HasCredentials(),
	})
}

func (s *Server) handleChat(c *fiber.Ctx) error {
	var req struct {
		Messages []genai.Message `json:"messages"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "invalid request body"})
	}
	if len(req.Messages) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "messages are required"})
	}

	text, err := s.ai.Chat(c.Context(), s.cfg.ChatModel, req.Messages)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"text": text})
}

func (s *Server) handleGround(c *fiber.Ctx) error {
	var req struct {
		Prompt      string `json:"prompt"`
		UseMaps     bool   `json:"use_maps"`
		UseLocation bool   `json:"use_location"`
	}
	if err := c.BodyParser(&req); err != nil || req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "prompt is required"})
	}

	opts := genai.GroundingOptions{UseMaps: req.UseMaps}
	if req.UseMaps && req.UseLocation && s.location != nil {
		if loc, err := s.location.Locate(c.Context()); err == nil {
			opts.Latitude = &loc.Latitude
			opts.Longitude = &loc.Longitude
		} else {
			// A grounded query still works without a position.
			log.Warn("web: location lookup failed", "err", err)
		}
	}

	res, err := s.ai.GenerateGrounded(c.Context(), s.cfg.ChatModel, req.Prompt, opts)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(res)
}

func (s *Server) handleImageGenerate(c *fiber.Ctx) error {
	var req struct {
		Prompt      string `json:"prompt"`
		AspectRatio string `json:"aspect_ratio"`
		Count       int    `json:"count"`
	}
	if err := c.BodyParser(&req); err != nil || req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "prompt is required"})
	}

	images, err := s.ai.GenerateImage(c.Context(), s.cfg.ImageModel, req.Prompt, genai.ImageOptions{
		AspectRatio: req.AspectRatio,
		Count:       req.Count,
	})
	if err != nil {
		return respondError(c, err)
	}

	out := make([]fiber.Map, 0, len(images))
	for _, img := range images {
		out = append(out, fiber.Map{
			"data":      base64.StdEncoding.EncodeToString(img.Data),
			"mime_type": img.MimeType,
		})
	}
	return c.JSON(fiber.Map{"images": out})
}

func (s *Server) handleImageEdit(c *fiber.Ctx) error {
	var req struct {
		Prompt   string `json:"prompt"`
		Image    string `json:"image"` // base64
		MimeType string `json:"mime_type"`
	}
	if err := c.BodyParser(&req); err != nil || req.Prompt == "" || req.Image == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "prompt and image are required"})
	}
	raw, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "image is not valid base64"})
	}

	img, text, err := s.ai.EditImage(c.Context(), s.cfg.EditModel, req.Prompt, raw, req.MimeType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"image": fiber.Map{
			"data":      base64.StdEncoding.EncodeToString(img.Data),
			"mime_type": img.MimeType,
		},
		"text": text,
	})
}

func (s *Server) handleImageAnalyze(c *fiber.Ctx) error {
	var req struct {
		Prompt   string `json:"prompt"`
		Image    string `json:"image"` // base64
		MimeType string `json:"mime_type"`
	}
	if err := c.BodyParser(&req); err != nil || req.Image == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "image is required"})
	}
	raw, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "image is not valid base64"})
	}

	text, err := s.ai.AnalyzeImage(c.Context(), s.cfg.ChatModel, req.Prompt, raw, req.MimeType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"text": text})
}

func (s *Server) handleVideoGenerate(c *fiber.Ctx) error {
	var req struct {
		Prompt      string `json:"prompt"`
		AspectRatio string `json:"aspect_ratio"`
		Image       string `json:"image,omitempty"` // base64 seed frame
		MimeType    string `json:"mime_type,omitempty"`
	}
	if err := c.BodyParser(&req); err != nil || req.Prompt == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "prompt is required"})
	}

	opts := genai.VideoOptions{AspectRatio: req.AspectRatio}
	if req.Image != "" {
		raw, err := base64.StdEncoding.DecodeString(req.Image)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "image is not valid base64"})
		}
		opts.Image = raw
		opts.ImageMimeType = req.MimeType
	}

	op, err := s.ai.GenerateVideo(c.Context(), s.cfg.VideoModel, req.Prompt, opts)
	if err != nil {
		return respondError(c, err)
	}

	job := s.jobs.create()
	go s.watchVideoJob(job.ID, op)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"job_id": job.ID})
}

// watchVideoJob polls the operation until it settles and records the
// outcome for later job queries.
func (s *Server) watchVideoJob(jobID string, op *genai.VideoOperation) {
	uri, err := s.ai.WaitForVideo(context.Background(), op, s.cfg.PollInterval)
	if err != nil {
		log.Warn("web: video job failed", "job", jobID, "err", err)
		s.jobs.fail(jobID, err)
		return
	}
	log.Info("web: video job finished", "job", jobID)
	s.jobs.complete(jobID, uri)
}

func (s *Server) handleVideoJob(c *fiber.Ctx) error {
	job, ok := s.jobs.get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(errorBody{Error: "unknown job"})
	}
	return c.JSON(job)
}

func (s *Server) handleVideoAnalyze(c *fiber.Ctx) error {
	file, err := c.FormFile("video")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "video file is required"})
	}
	prompt := c.FormValue("prompt", "Describe what happens in this video.")

	// The frame sampler works on files, so spool the upload to disk.
	src, err := file.Open()
	if err != nil {
		return respondError(c, err)
	}
	defer src.Close()

	tmp, err := os.CreateTemp("", "aria-video-*")
	if err != nil {
		return respondError(c, err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()
	if _, err := io.Copy(tmp, src); err != nil {
		return respondError(c, err)
	}

	frames, err := s.sampler.SampleFile(tmp.Name())
	if err != nil {
		return respondError(c, err)
	}
	text, err := s.ai.AnalyzeFrames(c.Context(), s.cfg.ChatModel, prompt, frames, "image/jpeg")
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"text": text, "frames": len(frames)})
}

func (s *Server) handleTTS(c *fiber.Ctx) error {
	var req struct {
		Text  string `json:"text"`
		Voice string `json:"voice"`
	}
	if err := c.BodyParser(&req); err != nil || req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "text is required"})
	}
	voiceName := req.Voice
	if voiceName == "" {
		voiceName = s.cfg.Voice
	}

	audio, err := s.ai.SynthesizeSpeech(c.Context(), s.cfg.TTSModel, req.Text, voiceName)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{
		"audio":     base64.StdEncoding.EncodeToString(audio.Data),
		"mime_type": audio.MimeType,
	})
}

func (s *Server) handleTranscribe(c *fiber.Ctx) error {
	var req struct {
		Audio    string `json:"audio"` // base64
		MimeType string `json:"mime_type"`
	}
	if err := c.BodyParser(&req); err != nil || req.Audio == "" {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "audio is required"})
	}
	raw, err := base64.StdEncoding.DecodeString(req.Audio)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(errorBody{Error: "audio is not valid base64"})
	}

	text, err := s.ai.Transcribe(c.Context(), s.cfg.ChatModel, raw, req.MimeType)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"text": text})
}
