package genai

import "context"

// GroundingSource is one citation backing a grounded response.
type GroundingSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// GroundedResult is a grounded completion with its citations.
type GroundedResult struct {
	Text    string            `json:"text"`
	Sources []GroundingSource `json:"sources"`
}

// GroundingOptions select the retrieval tool behind a grounded query.
type GroundingOptions struct {
	// UseMaps grounds against the maps tool instead of web search.
	UseMaps bool

	// Latitude and Longitude bias maps retrieval toward the user's
	// position. Only consulted when UseMaps is set.
	Latitude  *float64
	Longitude *float64
}

// GenerateGrounded runs a completion backed by a retrieval tool and
// returns the reply with whatever citations the model attached.
func (c *Client) GenerateGrounded(ctx context.Context, model, prompt string, opts GroundingOptions) (*GroundedResult, error) {
	req := generateContentRequest{
		Contents: []content{textContent("user", prompt)},
	}
	if opts.UseMaps {
		req.Tools = []tool{{GoogleMaps: &struct{}{}}}
		if opts.Latitude != nil && opts.Longitude != nil {
			req.ToolConfig = &toolConfig{
				RetrievalConfig: &retrievalConfig{
					LatLng: &latLng{Latitude: *opts.Latitude, Longitude: *opts.Longitude},
				},
			}
		}
	} else {
		req.Tools = []tool{{GoogleSearch: &struct{}{}}}
	}

	resp, err := c.generate(ctx, model, req)
	if err != nil {
		return nil, err
	}

	text, err := resp.requireText()
	if err != nil {
		return nil, err
	}
	result := &GroundedResult{Text: text}
	for _, cand := range resp.Candidates {
		if cand.GroundingMetadata == nil {
			continue
		}
		for _, chunk := range cand.GroundingMetadata.GroundingChunks {
			if chunk.Web == nil || chunk.Web.URI == "" {
				continue
			}
			result.Sources = append(result.Sources, GroundingSource{
				URI:   chunk.Web.URI,
				Title: chunk.Web.Title,
			})
		}
	}
	return result, nil
}
