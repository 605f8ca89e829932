package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

// fakeAPI serves canned JSON responses keyed by URL path suffix and
// records request bodies.
type fakeAPI struct {
	t         *testing.T
	responses map[string]string
	requests  []string
}

func (f *fakeAPI) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.requests = append(f.requests, string(body))
		for suffix, resp := range f.responses {
			if strings.HasSuffix(r.URL.Path, suffix) {
				io.WriteString(w, resp)
				return
			}
		}
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"error":{"message":"not found","status":"NOT_FOUND"}}`)
	}
}

func newTestClient(t *testing.T, api *fakeAPI) *Client {
	t.Helper()
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return NewClient("test-key", WithBaseURL(srv.URL))
}

func TestGenerateText(t *testing.T) {
	api := &fakeAPI{t: t, responses: map[string]string{
		":generateContent": `{"candidates":[{"content":{"parts":[{"text":"a reply"}]}}]}`,
	}}
	c := newTestClient(t, api)

	got, err := c.GenerateText(context.Background(), "test-model", "say something")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if got != "a reply" {
		t.Errorf("text = %q", got)
	}
	if len(api.requests) != 1 || !strings.Contains(api.requests[0], "say something") {
		t.Errorf("request body = %v", api.requests)
	}
}

func TestChat_SendsFullHistory(t *testing.T) {
	api := &fakeAPI{t: t, responses: map[string]string{
		":generateContent": `{"candidates":[{"content":{"parts":[{"text":"third"}]}}]}`,
	}}
	c := newTestClient(t, api)

	_, err := c.Chat(context.Background(), "test-model", []Message{
		{Role: "user", Text: "first"},
		{Role: "model", Text: "second"},
		{Role: "user", Text: "and now?"},
	})
	if err != nil {
		t.Fatalf("chat: %v", err)
	}

	var req generateContentRequest
	if err := json.Unmarshal([]byte(api.requests[0]), &req); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if len(req.Contents) != 3 {
		t.Fatalf("contents = %d, want 3", len(req.Contents))
	}
	if req.Contents[1].Role != "model" || req.Contents[1].Parts[0].Text != "second" {
		t.Errorf("history entry = %+v", req.Contents[1])
	}
}

func TestGenerateGrounded_ParsesSources(t *testing.T) {
	api := &fakeAPI{t: t, responses: map[string]string{
		":generateContent": `{"candidates":[{
			"content":{"parts":[{"text":"grounded answer"}]},
			"groundingMetadata":{"groundingChunks":[
				{"web":{"uri":"https://example.com/a","title":"A"}},
				{"web":{"uri":"https://example.com/b","title":"B"}},
				{}
			]}}]}`,
	}}
	c := newTestClient(t, api)

	res, err := c.GenerateGrounded(context.Background(), "test-model", "what is new", GroundingOptions{})
	if err != nil {
		t.Fatalf("grounded: %v", err)
	}
	if res.Text != "grounded answer" {
		t.Errorf("text = %q", res.Text)
	}
	if len(res.Sources) != 2 || res.Sources[0].URI != "https://example.com/a" {
		t.Errorf("sources = %+v", res.Sources)
	}
	if !strings.Contains(api.requests[0], "googleSearch") {
		t.Error("request missing search tool")
	}
}

func TestGenerateGrounded_MapsWithLocation(t *testing.T) {
	api := &fakeAPI{t: t, responses: map[string]string{
		":generateContent": `{"candidates":[{"content":{"parts":[{"text":"nearby"}]}}]}`,
	}}
	c := newTestClient(t, api)

	lat, lng := 37.77, -122.41
	_, err := c.GenerateGrounded(context.Background(), "test-model", "coffee near me", GroundingOptions{
		UseMaps:  true,
		Latitude: &lat, Longitude: &lng,
	})
	if err != nil {
		t.Fatalf("grounded: %v", err)
	}
	body := api.requests[0]
	for _, want := range []string{"googleMaps", `"latitude":37.77`, `"longitude":-122.41`} {
		if !strings.Contains(body, want) {
			t.Errorf("request missing %s: %s", want, body)
		}
	}
}

func TestGenerateImage(t *testing.T) {
	png := base64.StdEncoding.EncodeToString([]byte("not-really-png"))
	api := &fakeAPI{t: t, responses: map[string]string{
		":predict": `{"predictions":[{"bytesBase64Encoded":"` + png + `","mimeType":"image/png"}]}`,
	}}
	c := newTestClient(t, api)

	images, err := c.GenerateImage(context.Background(), "image-model", "a red balloon", ImageOptions{})
	if err != nil {
		t.Fatalf("generate image: %v", err)
	}
	if len(images) != 1 || string(images[0].Data) != "not-really-png" {
		t.Errorf("images = %+v", images)
	}
	if !strings.Contains(api.requests[0], `"aspectRatio":"1:1"`) {
		t.Errorf("default aspect ratio missing: %s", api.requests[0])
	}
}

func TestWaitForVideo_PollsUntilDone(t *testing.T) {
	polls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, ":predictLongRunning"):
			io.WriteString(w, `{"name":"operations/video-123"}`)
		case strings.HasSuffix(r.URL.Path, "operations/video-123"):
			polls++
			if polls < 3 {
				io.WriteString(w, `{"name":"operations/video-123","done":false}`)
				return
			}
			io.WriteString(w, `{"name":"operations/video-123","done":true,
				"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://example.com/v.mp4"}}]}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	op, err := c.GenerateVideo(context.Background(), "video-model", "a rocket launch", VideoOptions{})
	if err != nil {
		t.Fatalf("generate video: %v", err)
	}

	uri, err := c.WaitForVideo(context.Background(), op, time.Millisecond)
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if uri != "https://example.com/v.mp4" {
		t.Errorf("uri = %q", uri)
	}
	if polls != 3 {
		t.Errorf("polls = %d, want 3", polls)
	}
}

func TestSynthesizeSpeech(t *testing.T) {
	pcm := base64.StdEncoding.EncodeToString([]byte{1, 2, 3, 4})
	api := &fakeAPI{t: t, responses: map[string]string{
		":generateContent": `{"candidates":[{"content":{"parts":[
			{"inlineData":{"mimeType":"audio/pcm;rate=24000","data":"` + pcm + `"}}]}}]}`,
	}}
	c := newTestClient(t, api)

	audio, err := c.SynthesizeSpeech(context.Background(), "tts-model", "hello there", "Zephyr")
	if err != nil {
		t.Fatalf("tts: %v", err)
	}
	if audio.MimeType != "audio/pcm;rate=24000" || len(audio.Data) != 4 {
		t.Errorf("audio = %+v", audio)
	}
	if !strings.Contains(api.requests[0], `"voiceName":"Zephyr"`) {
		t.Errorf("request missing voice: %s", api.requests[0])
	}
}

func TestGenerateText_NoCandidatesIsAnError(t *testing.T) {
	api := &fakeAPI{t: t, responses: map[string]string{
		":generateContent": `{"candidates":[]}`,
	}}
	c := newTestClient(t, api)

	got, err := c.GenerateText(context.Background(), "test-model", "say something")
	if err == nil {
		t.Fatalf("expected an error, got text %q", got)
	}
	if !strings.Contains(err.Error(), "no text") {
		t.Errorf("err = %v", err)
	}
}

func TestTokenSource_SendsBearerNotKey(t *testing.T) {
	var gotAuth, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotQuery = r.URL.RawQuery
		io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	defer srv.Close()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "svc-token"})
	c := NewClient("unused-key", WithBaseURL(srv.URL), WithTokenSource(ts))

	if _, err := c.GenerateText(context.Background(), "m", "hi"); err != nil {
		t.Fatalf("generate: %v", err)
	}
	if gotAuth != "Bearer svc-token" {
		t.Errorf("authorization = %q, want bearer token", gotAuth)
	}
	if strings.Contains(gotQuery, "key=") {
		t.Errorf("api key leaked into query: %q", gotQuery)
	}
}

func TestAPIError_InvalidKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error":{"code":400,"message":"API key not valid. Please pass a valid API key.","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.GenerateText(context.Background(), "m", "hi")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !IsInvalidKey(err) {
		t.Errorf("IsInvalidKey = false for %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error is not APIError: %v", err)
	}
	if apiErr.HTTPStatus != 400 || apiErr.Code != "INVALID_ARGUMENT" {
		t.Errorf("apiErr = %+v", apiErr)
	}
}

func TestAPIError_OtherFailuresAreNotKeyErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"error":{"message":"backend unavailable","status":"INTERNAL"}}`)
	}))
	defer srv.Close()

	c := NewClient("k", WithBaseURL(srv.URL))
	_, err := c.GenerateText(context.Background(), "m", "hi")
	if err == nil {
		t.Fatal("expected an error")
	}
	if IsInvalidKey(err) {
		t.Errorf("IsInvalidKey = true for %v", err)
	}
}
