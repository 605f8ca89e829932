package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
)

// GeneratedImage is one image returned by generation or editing.
type GeneratedImage struct {
	Data     []byte
	MimeType string
}

// ImageOptions tune image generation.
type ImageOptions struct {
	// AspectRatio e.g. "1:1", "16:9". Defaults to "1:1".
	AspectRatio string

	// Count is the number of images to sample. Defaults to 1.
	Count int
}

type predictRequest struct {
	Instances  []predictInstance `json:"instances"`
	Parameters predictParameters `json:"parameters"`
}

type predictInstance struct {
	Prompt string        `json:"prompt"`
	Image  *predictImage `json:"image,omitempty"`
}

type predictImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType,omitempty"`
}

type predictParameters struct {
	SampleCount int    `json:"sampleCount,omitempty"`
	AspectRatio string `json:"aspectRatio,omitempty"`
}

type predictResponse struct {
	Predictions []struct {
		BytesBase64Encoded string `json:"bytesBase64Encoded"`
		MimeType           string `json:"mimeType"`
	} `json:"predictions"`
}

// GenerateImage samples images from a text prompt via the image model's
// predict endpoint.
func (c *Client) GenerateImage(ctx context.Context, model, prompt string, opts ImageOptions) ([]GeneratedImage, error) {
	if prompt == "" {
		return nil, fmt.Errorf("genai: prompt is empty")
	}
	if opts.AspectRatio == "" {
		opts.AspectRatio = "1:1"
	}
	if opts.Count <= 0 {
		opts.Count = 1
	}

	req := predictRequest{
		Instances:  []predictInstance{{Prompt: prompt}},
		Parameters: predictParameters{SampleCount: opts.Count, AspectRatio: opts.AspectRatio},
	}
	var resp predictResponse
	if err := c.do(ctx, http.MethodPost, "/models/"+model+":predict", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Predictions) == 0 {
		return nil, fmt.Errorf("genai: no images generated")
	}

	images := make([]GeneratedImage, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		data, err := base64.StdEncoding.DecodeString(p.BytesBase64Encoded)
		if err != nil {
			return nil, fmt.Errorf("genai: decode image: %w", err)
		}
		mime := p.MimeType
		if mime == "" {
			mime = "image/png"
		}
		images = append(images, GeneratedImage{Data: data, MimeType: mime})
	}
	return images, nil
}

// EditImage applies a text instruction to an existing image and returns
// the edited image plus any commentary text the model emits.
func (c *Client) EditImage(ctx context.Context, model, prompt string, image []byte, mimeType string) (*GeneratedImage, string, error) {
	if len(image) == 0 {
		return nil, "", fmt.Errorf("genai: image is empty")
	}
	resp, err := c.generate(ctx, model, generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &blob{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: prompt},
			},
		}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"IMAGE", "TEXT"},
		},
	})
	if err != nil {
		return nil, "", err
	}

	out := resp.firstBlob("image/")
	if out == nil {
		return nil, "", fmt.Errorf("genai: no image in response")
	}
	data, err := base64.StdEncoding.DecodeString(out.Data)
	if err != nil {
		return nil, "", fmt.Errorf("genai: decode image: %w", err)
	}
	return &GeneratedImage{Data: data, MimeType: out.MimeType}, resp.firstText(), nil
}
