package genai

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultPollInterval is how often a pending video operation is polled.
const DefaultPollInterval = 10 * time.Second

// VideoOperation is a handle to a long-running video generation job.
type VideoOperation struct {
	// Name is the operation resource name used for polling.
	Name string `json:"name"`
}

// VideoOptions tune video generation.
type VideoOptions struct {
	// AspectRatio e.g. "16:9". Defaults to "16:9".
	AspectRatio string

	// Image, when set, seeds generation with a starting frame.
	Image         []byte
	ImageMimeType string
}

type videoOperationStatus struct {
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Response *struct {
		GenerateVideoResponse struct {
			GeneratedSamples []struct {
				Video struct {
					URI string `json:"uri"`
				} `json:"video"`
			} `json:"generatedSamples"`
		} `json:"generateVideoResponse"`
	} `json:"response,omitempty"`
}

// GenerateVideo starts a video generation job. The returned operation
// must be polled until done; use WaitForVideo for the common case.
func (c *Client) GenerateVideo(ctx context.Context, model, prompt string, opts VideoOptions) (*VideoOperation, error) {
	if prompt == "" {
		return nil, fmt.Errorf("genai: prompt is empty")
	}
	if opts.AspectRatio == "" {
		opts.AspectRatio = "16:9"
	}
	inst := predictInstance{Prompt: prompt}
	if len(opts.Image) > 0 {
		inst.Image = &predictImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(opts.Image),
			MimeType:           opts.ImageMimeType,
		}
	}
	req := predictRequest{
		Instances:  []predictInstance{inst},
		Parameters: predictParameters{AspectRatio: opts.AspectRatio},
	}
	var op VideoOperation
	if err := c.do(ctx, http.MethodPost, "/models/"+model+":predictLongRunning", req, &op); err != nil {
		return nil, err
	}
	if op.Name == "" {
		return nil, fmt.Errorf("genai: operation has no name")
	}
	return &op, nil
}

// PollVideo checks a video operation once. When the job has finished it
// returns done=true and the result URI.
func (c *Client) PollVideo(ctx context.Context, op *VideoOperation) (done bool, uri string, err error) {
	var status videoOperationStatus
	if err := c.do(ctx, http.MethodGet, "/"+strings.TrimPrefix(op.Name, "/"), nil, &status); err != nil {
		return false, "", err
	}
	if !status.Done {
		return false, "", nil
	}
	if status.Error != nil {
		return true, "", fmt.Errorf("genai: video generation failed: %s", status.Error.Message)
	}
	if status.Response == nil || len(status.Response.GenerateVideoResponse.GeneratedSamples) == 0 {
		return true, "", fmt.Errorf("genai: video operation finished without a result")
	}
	return true, status.Response.GenerateVideoResponse.GeneratedSamples[0].Video.URI, nil
}

// WaitForVideo polls the operation on a fixed interval until it
// completes, the context is cancelled, or generation fails.
func (c *Client) WaitForVideo(ctx context.Context, op *VideoOperation, interval time.Duration) (string, error) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		done, uri, err := c.PollVideo(ctx, op)
		if err != nil {
			return "", err
		}
		if done {
			return uri, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}

// DownloadVideo fetches the finished video bytes from its result URI.
// The URI requires the same credential as the API itself.
func (c *Client) DownloadVideo(ctx context.Context, uri string) ([]byte, error) {
	if c.tokens == nil && c.apiKey != "" {
		sep := "?"
		if strings.Contains(uri, "?") {
			sep = "&"
		}
		uri += sep + "key=" + c.apiKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, uri, nil)
	if err != nil {
		return nil, fmt.Errorf("genai: build download: %w", err)
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("genai: fetch token: %w", err)
		}
		tok.SetAuthHeader(req)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("genai: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, &APIError{HTTPStatus: resp.StatusCode, Message: string(body)}
	}
	return io.ReadAll(resp.Body)
}

// AnalyzeFrames asks the model a question about a sequence of video
// frames, supplied as encoded images in temporal order.
func (c *Client) AnalyzeFrames(ctx context.Context, model, prompt string, frames [][]byte, mimeType string) (string, error) {
	if len(frames) == 0 {
		return "", fmt.Errorf("genai: no frames")
	}
	parts := make([]part, 0, len(frames)+1)
	for _, f := range frames {
		parts = append(parts, part{
			InlineData: &blob{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(f)},
		})
	}
	parts = append(parts, part{Text: prompt})

	resp, err := c.generate(ctx, model, generateContentRequest{
		Contents: []content{{Role: "user", Parts: parts}},
	})
	if err != nil {
		return "", err
	}
	return resp.requireText()
}
