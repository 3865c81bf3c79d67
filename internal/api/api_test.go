package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/vidsage/vidsage/internal/llm"
	"github.com/vidsage/vidsage/internal/orchestrator"
	"github.com/vidsage/vidsage/internal/pipeline"
	"github.com/vidsage/vidsage/internal/platform"
	"github.com/vidsage/vidsage/internal/respcache"
	"github.com/vidsage/vidsage/internal/store"
	"github.com/vidsage/vidsage/internal/transcript"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeTier struct{ tr *transcript.Transcript }

func (f *fakeTier) Name() string { return "piped_api" }

func (f *fakeTier) Fetch(ctx context.Context, video platform.VideoIdentity, meta *platform.VideoMetadata) (*transcript.Transcript, error) {
	return f.tr, nil
}

type fakeMetadata struct{ meta *platform.VideoMetadata }

func (f *fakeMetadata) FetchMetadata(ctx context.Context, videoID string) (*platform.VideoMetadata, error) {
	return f.meta, nil
}

type fakeProvider struct{ text string }

func (f *fakeProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	return &llm.Response{Model: req.Model, Text: f.text, InputTokens: 8, OutputTokens: 2}, nil
}

func (f *fakeProvider) Ping(ctx context.Context) error { return nil }

func fixtureTranscript() *transcript.Transcript {
	return transcript.New([]transcript.Segment{
		{StartSeconds: 0, EndSeconds: 3, Text: "hello and welcome"},
		{StartSeconds: 3, EndSeconds: 7, Text: "today we talk about testing"},
	}, "en", "piped_api")
}

// newTestServer wires a server against fakes and a temp database.
func newTestServer(t *testing.T, rateLimit int) *Server {
	t.Helper()

	st, err := store.NewStore(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	p := pipeline.NewService(36000, testLogger())
	p.RegisterPlatform(platform.YouTube,
		&fakeMetadata{meta: &platform.VideoMetadata{
			Platform:        platform.YouTube,
			ID:              "dQw4w9WgXcQ",
			Title:           "Test Video",
			DurationSeconds: 212,
		}},
		&fakeTier{tr: fixtureTranscript()},
	)

	catalog := llm.NewCatalog(&fakeProvider{text: "A video about testing."}, nil)
	orch := orchestrator.New(catalog, respcache.New[orchestrator.Result](100, 5*time.Minute), testLogger())

	return NewServer("127.0.0.1:0", p, orch, catalog, st, rateLimit, time.Minute, testLogger())
}

func postJSON(t *testing.T, h http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestProcessVideo(t *testing.T) {
	s := newTestServer(t, 0)
	h := s.Routes()

	w := postJSON(t, h, "/api/video/process", map[string]string{
		"url": "https://youtu.be/dQw4w9WgXcQ",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp processResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Success || resp.SessionID == "" {
		t.Errorf("resp = %+v", resp)
	}
	if !resp.TranscriptAvailable {
		t.Error("transcript should be available")
	}
	if resp.VideoInfo.Title != "Test Video" || resp.VideoInfo.Platform != "youtube" {
		t.Errorf("video info = %+v", resp.VideoInfo)
	}
	if resp.TranscriptStats == nil || resp.TranscriptStats.Segments != 2 {
		t.Errorf("stats = %+v", resp.TranscriptStats)
	}
}

func TestProcessVideoBadRequest(t *testing.T) {
	s := newTestServer(t, 0)
	h := s.Routes()

	w := postJSON(t, h, "/api/video/process", map[string]string{})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestQueryFlowAndHistory(t *testing.T) {
	s := newTestServer(t, 0)
	h := s.Routes()

	w := postJSON(t, h, "/api/video/process", map[string]string{
		"url": "https://youtu.be/dQw4w9WgXcQ",
	})
	var proc processResponse
	if err := json.Unmarshal(w.Body.Bytes(), &proc); err != nil {
		t.Fatal(err)
	}

	w = postJSON(t, h, "/api/ai/query", map[string]any{
		"session_id": proc.SessionID,
		"model_id":   "gemini-2.0-flash",
		"query":      "summarize this video",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("query status = %d, body = %s", w.Code, w.Body.String())
	}

	var qr queryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &qr); err != nil {
		t.Fatal(err)
	}
	if qr.Response != "A video about testing." {
		t.Errorf("response = %q", qr.Response)
	}
	if qr.ResponseHTML == "" || qr.ResponseHTML == qr.Response {
		t.Errorf("response_html = %q", qr.ResponseHTML)
	}
	if qr.Metadata.QueryType != "summary" {
		t.Errorf("query type = %q", qr.Metadata.QueryType)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/chat/history/"+proc.SessionID, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("history status = %d", rec.Code)
	}

	var hist historyResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &hist); err != nil {
		t.Fatal(err)
	}
	if len(hist.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(hist.Messages))
	}
	if hist.Messages[0].Role != "user" || hist.Messages[1].Role != "assistant" {
		t.Errorf("history = %+v", hist.Messages)
	}
}

func TestQuerySessionNotFound(t *testing.T) {
	s := newTestServer(t, 0)
	h := s.Routes()

	w := postJSON(t, h, "/api/ai/query", map[string]any{
		"session_id": "nonexistent",
		"model_id":   "gemini-2.0-flash",
		"query":      "hello",
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestQueryUnknownModel(t *testing.T) {
	s := newTestServer(t, 0)
	h := s.Routes()

	w := postJSON(t, h, "/api/video/process", map[string]string{
		"url": "https://youtu.be/dQw4w9WgXcQ",
	})
	var proc processResponse
	if err := json.Unmarshal(w.Body.Bytes(), &proc); err != nil {
		t.Fatal(err)
	}

	w = postJSON(t, h, "/api/ai/query", map[string]any{
		"session_id": proc.SessionID,
		"model_id":   "no-such-model",
		"query":      "hello",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "gemini-2.0-flash") {
		t.Errorf("error body %q should list available model ids", w.Body.String())
	}
}

func TestModelsEndpoint(t *testing.T) {
	s := newTestServer(t, 0)
	h := s.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/ai/models?query=make+a+quiz", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp modelsResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Models) == 0 {
		t.Error("expected models")
	}
	if !resp.Providers["gemini"] {
		t.Error("gemini should be available")
	}
	if resp.Providers["openrouter"] {
		t.Error("openrouter should be unavailable without credentials")
	}
	if _, ok := resp.Recommended["quiz"]; !ok {
		t.Errorf("recommended = %+v", resp.Recommended)
	}
}

func TestCompareEndpoint(t *testing.T) {
	s := newTestServer(t, 0)
	h := s.Routes()

	w := postJSON(t, h, "/api/video/process", map[string]string{
		"url": "https://youtu.be/dQw4w9WgXcQ",
	})
	var proc processResponse
	if err := json.Unmarshal(w.Body.Bytes(), &proc); err != nil {
		t.Fatal(err)
	}

	w = postJSON(t, h, "/api/ai/compare", map[string]any{
		"session_id": proc.SessionID,
		"model_ids":  []string{"gemini-2.0-flash", "gemini-2.0-pro"},
		"query":      "summarize",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp compareResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Comparisons) != 2 {
		t.Fatalf("got %d comparisons", len(resp.Comparisons))
	}
	for _, c := range resp.Comparisons {
		if c.Error != "" || c.Result == nil {
			t.Errorf("comparison %s failed: %+v", c.ModelID, c)
		}
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 0)
	h := s.Routes()

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	s := newTestServer(t, 2)
	h := s.Routes()

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}

	// A different client gets a fresh bucket.
	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", w.Code)
	}
}

func TestShutdownStopsLimiter(t *testing.T) {
	s := newTestServer(t, 2)

	if err := s.Shutdown(context.Background()); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	select {
	case <-s.limiter.done:
	default:
		t.Error("reap goroutine was not signalled to exit")
	}

	// Stopping again must be safe.
	s.limiter.stop()
}
