package genai

import (
	"context"
	"encoding/base64"
	"fmt"
)

// GenerateText runs a single-prompt completion and returns the reply text.
func (c *Client) GenerateText(ctx context.Context, model, prompt string) (string, error) {
	resp, err := c.generate(ctx, model, generateContentRequest{
		Contents: []content{textContent("user", prompt)},
	})
	if err != nil {
		return "", err
	}
	return resp.requireText()
}

// Chat runs a multi-turn completion over the full message history and
// returns the next model reply.
func (c *Client) Chat(ctx context.Context, model string, history []Message) (string, error) {
	if len(history) == 0 {
		return "", fmt.Errorf("genai: empty chat history")
	}
	contents := make([]content, 0, len(history))
	for _, m := range history {
		role := m.Role
		if role == "" {
			role = "user"
		}
		contents = append(contents, textContent(role, m.Text))
	}
	resp, err := c.generate(ctx, model, generateContentRequest{Contents: contents})
	if err != nil {
		return "", err
	}
	return resp.requireText()
}

// AnalyzeImage asks the model a question about one image.
func (c *Client) AnalyzeImage(ctx context.Context, model, prompt string, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("genai: image is empty")
	}
	resp, err := c.generate(ctx, model, generateContentRequest{
		Contents: []content{{
			Role: "user",
			Parts: []part{
				{InlineData: &blob{MimeType: mimeType, Data: base64.StdEncoding.EncodeToString(image)}},
				{Text: prompt},
			},
		}},
	})
	if err != nil {
		return "", err
	}
	return resp.requireText()
}
