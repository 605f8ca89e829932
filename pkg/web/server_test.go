package web

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aria-studio/aria/pkg/genai"
	"github.com/aria-studio/aria/pkg/geo"
)

func testConfig() Config {
	return Config{
		ChatModel:    "chat-model",
		ImageModel:   "image-model",
		EditModel:    "edit-model",
		VideoModel:   "video-model",
		TTSModel:     "tts-model",
		Voice:        "Zephyr",
		PollInterval: time.Millisecond,
	}
}

// newTestServer wires the API against a fake upstream.
func newTestServer(t *testing.T, upstream http.HandlerFunc) *Server {
	t.Helper()
	up := httptest.NewServer(upstream)
	t.Cleanup(up.Close)
	ai := genai.NewClient("test-key", genai.WithBaseURL(up.URL))
	return NewServer("0", testConfig(), ai, geo.Static{Location: geo.Location{Latitude: 51.5, Longitude: -0.12}}, nil)
}

func postJSON(t *testing.T, s *Server, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("decode body %s: %v", data, err)
	}
}

func TestStatus_ReportsMissingKey(t *testing.T) {
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer up.Close()

	ai := genai.NewClient("", genai.WithBaseURL(up.URL))
	s := NewServer("0", testConfig(), ai, nil, nil)

	resp, err := s.App().Test(httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var body struct {
		Status   string `json:"status"`
		NeedsKey bool   `json:"needs_key"`
	}
	decodeBody(t, resp, &body)
	if body.Status != "ok" || !body.NeedsKey {
		t.Errorf("body = %+v", body)
	}
}

func TestChat(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"hello back"}]}}]}`)
	})

	resp := postJSON(t, s, "/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "text": "hello"}},
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Text string `json:"text"`
	}
	decodeBody(t, resp, &body)
	if body.Text != "hello back" {
		t.Errorf("text = %q", body.Text)
	}
}

func TestChat_InvalidKeyFlipsNeedsKey(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"message":"API key not valid.","status":"INVALID_ARGUMENT"}}`)
	})

	resp := postJSON(t, s, "/api/chat", map[string]any{
		"messages": []map[string]string{{"role": "user", "text": "hello"}},
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
	var body errorBody
	decodeBody(t, resp, &body)
	if !body.NeedsKey {
		t.Errorf("needs_key not set: %+v", body)
	}
}

func TestChat_EmptyMessagesRejected(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream should not be called")
	})
	resp := postJSON(t, s, "/api/chat", map[string]any{"messages": []any{}})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestGround_ForwardsLocation(t *testing.T) {
	var captured string
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		captured = string(data)
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"nearby places"}]},
			"groundingMetadata":{"groundingChunks":[{"web":{"uri":"https://maps.example","title":"Maps"}}]}}]}`)
	})

	resp := postJSON(t, s, "/api/ground", map[string]any{
		"prompt":       "coffee near me",
		"use_maps":     true,
		"use_location": true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body genai.GroundedResult
	decodeBody(t, resp, &body)
	if body.Text != "nearby places" || len(body.Sources) != 1 {
		t.Errorf("body = %+v", body)
	}
	for _, want := range []string{"googleMaps", `"latitude":51.5`} {
		if !strings.Contains(captured, want) {
			t.Errorf("upstream request missing %s: %s", want, captured)
		}
	}
}

func TestVideoGenerate_JobLifecycle(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ":predictLongRunning"):
			io.WriteString(w, `{"name":"operations/op-1"}`)
		case strings.Contains(r.URL.Path, "operations/op-1"):
			io.WriteString(w, `{"name":"operations/op-1","done":true,
				"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://example.com/out.mp4"}}]}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	resp := postJSON(t, s, "/api/video/generate", map[string]any{"prompt": "a storm over the sea"})
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", resp.StatusCode)
	}
	var accepted struct {
		JobID string `json:"job_id"`
	}
	decodeBody(t, resp, &accepted)
	if accepted.JobID == "" {
		t.Fatal("no job id")
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		req := httptest.NewRequest(http.MethodGet, "/api/video/jobs/"+accepted.JobID, nil)
		resp, err := s.App().Test(req, -1)
		if err != nil {
			t.Fatalf("job query: %v", err)
		}
		var job Job
		decodeBody(t, resp, &job)
		if job.State == JobDone {
			if job.URI != "https://example.com/out.mp4" {
				t.Errorf("uri = %q", job.URI)
			}
			return
		}
		if job.State == JobFailed {
			t.Fatalf("job failed: %s", job.Error)
		}
		if time.Now().After(deadline) {
			t.Fatal("job never finished")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestVideoJob_Unknown(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {})
	req := httptest.NewRequest(http.MethodGet, "/api/video/jobs/nope", nil)
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestTTS(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"candidates":[{"content":{"parts":[
			{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"AQIDBA=="}}]}}]}`)
	})

	resp := postJSON(t, s, "/api/tts", map[string]any{"text": "hello"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body struct {
		Audio    string `json:"audio"`
		MimeType string `json:"mime_type"`
	}
	decodeBody(t, resp, &body)
	if body.Audio != "AQIDBA==" || body.MimeType != "audio/pcm;rate=24000" {
		t.Errorf("body = %+v", body)
	}
}

func TestTranscribe_RejectsBadBase64(t *testing.T) {
	s := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("upstream should not be called")
	})
	resp := postJSON(t, s, "/api/transcribe", map[string]any{"audio": "not base64!!!"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
