package speech

import (
	"io"
	"log/slog"
	"testing"

	"github.com/vidsage/vidsage/internal/transcript"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewRequiresAPIKey(t *testing.T) {
	if tr := New(Config{}, testLogger()); tr != nil {
		t.Fatal("New without API key should return nil")
	}
}

func TestNewDefaults(t *testing.T) {
	tr := New(Config{APIKey: "gsk_test"}, testLogger())
	if tr == nil {
		t.Fatal("New with API key returned nil")
	}
	if tr.cfg.BaseURL != "https://api.groq.com/openai/v1" {
		t.Errorf("BaseURL = %q", tr.cfg.BaseURL)
	}
	if tr.cfg.Model != "whisper-large-v3" {
		t.Errorf("Model = %q", tr.cfg.Model)
	}
}

func TestMergeChunks(t *testing.T) {
	chunk := func() []transcript.Segment {
		return []transcript.Segment{{
			StartSeconds: 5,
			EndSeconds:   8,
			Text:         "hello",
			Words: []transcript.WordTiming{
				{Text: "hello", StartSeconds: 5, EndSeconds: 8},
			},
		}}
	}

	merged := mergeChunks([][]transcript.Segment{chunk(), chunk(), chunk()}, 600)
	if len(merged) != 3 {
		t.Fatalf("got %d segments, want 3", len(merged))
	}

	wantStarts := []float64{5, 605, 1205}
	for i, want := range wantStarts {
		if merged[i].StartSeconds != want {
			t.Errorf("segment %d start = %v, want %v", i, merged[i].StartSeconds, want)
		}
		if merged[i].Words[0].StartSeconds != want {
			t.Errorf("segment %d word start = %v, want %v", i, merged[i].Words[0].StartSeconds, want)
		}
	}
	if merged[2].EndSeconds != 1208 {
		t.Errorf("last segment end = %v, want 1208", merged[2].EndSeconds)
	}
}

func TestMergeChunksEmpty(t *testing.T) {
	if got := mergeChunks(nil, 600); len(got) != 0 {
		t.Errorf("got %d segments, want 0", len(got))
	}
}

func TestAttachWords(t *testing.T) {
	segs := []transcript.Segment{
		{StartSeconds: 0, EndSeconds: 2, Text: "first part"},
		{StartSeconds: 2, EndSeconds: 4, Text: "second part"},
	}
	words := []transcript.WordTiming{
		{Text: "first", StartSeconds: 0.1, EndSeconds: 0.5},
		{Text: "part", StartSeconds: 0.6, EndSeconds: 1.0},
		{Text: "second", StartSeconds: 2.1, EndSeconds: 2.5},
		{Text: "part", StartSeconds: 2.6, EndSeconds: 3.0},
	}

	attachWords(segs, words)

	if len(segs[0].Words) != 2 || segs[0].Words[0].Text != "first" {
		t.Errorf("segment 0 words = %+v", segs[0].Words)
	}
	if len(segs[1].Words) != 2 || segs[1].Words[0].Text != "second" {
		t.Errorf("segment 1 words = %+v", segs[1].Words)
	}
}

func TestAttachWordsInterpolatesWhenMissing(t *testing.T) {
	segs := []transcript.Segment{
		{StartSeconds: 10, EndSeconds: 14, Text: "one two three four"},
	}

	attachWords(segs, nil)

	if len(segs[0].Words) != 4 {
		t.Fatalf("got %d words, want 4 interpolated", len(segs[0].Words))
	}
	if segs[0].Words[1].StartSeconds != 11 {
		t.Errorf("word 1 start = %v, want 11", segs[0].Words[1].StartSeconds)
	}
}
