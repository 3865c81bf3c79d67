package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/vidsage/vidsage/internal/transcript"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSessionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateSession(ctx, Session{
		VideoURL: "https://youtu.be/dQw4w9WgXcQ",
		VideoID:  "dQw4w9WgXcQ",
		Platform: "youtube",
		Title:    "Test Video",
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated session ID")
	}

	got, err := s.GetSession(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got == nil || got.VideoID != "dQw4w9WgXcQ" || got.Title != "Test Video" {
		t.Errorf("got %+v", got)
	}

	missing, err := s.GetSession(ctx, "nope")
	if err != nil {
		t.Fatalf("GetSession missing: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for missing session, got %+v", missing)
	}
}

func TestTranscriptRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, Session{VideoURL: "u", VideoID: "v", Platform: "youtube"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	tr := transcript.New([]transcript.Segment{
		{StartSeconds: 0, EndSeconds: 3, Text: "hello world"},
		{StartSeconds: 3, EndSeconds: 6, Text: "second line"},
	}, "en", "piped_api")

	if err := s.SaveTranscript(ctx, sess.ID, tr); err != nil {
		t.Fatalf("SaveTranscript: %v", err)
	}

	got, err := s.GetTranscript(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetTranscript: %v", err)
	}
	if got == nil || len(got.Segments) != 2 || got.Source != "piped_api" {
		t.Fatalf("got %+v", got)
	}
	if got.Segments[1].Text != "second line" || got.TotalDurationSeconds != 6 {
		t.Errorf("segments = %+v, duration = %v", got.Segments, got.TotalDurationSeconds)
	}

	// Replacing overwrites, not duplicates.
	if err := s.SaveTranscript(ctx, sess.ID, transcript.New(nil, "en", "whisper")); err != nil {
		t.Fatalf("SaveTranscript replace: %v", err)
	}
	got, err = s.GetTranscript(ctx, sess.ID)
	if err != nil {
		t.Fatalf("GetTranscript after replace: %v", err)
	}
	if got.Source != "whisper" {
		t.Errorf("source = %q, want whisper", got.Source)
	}

	none, err := s.GetTranscript(ctx, "unknown-session")
	if err != nil {
		t.Fatalf("GetTranscript missing: %v", err)
	}
	if none != nil {
		t.Errorf("expected nil for session without transcript")
	}
}

func TestChatHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, Session{VideoURL: "u", VideoID: "v", Platform: "youtube"})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	msgs := []Message{
		{SessionID: sess.ID, Role: "user", Content: "summarize this"},
		{SessionID: sess.ID, Role: "assistant", Content: "Here is a summary.", ModelID: "gemini-2.0-flash", QueryType: "summary"},
		{SessionID: sess.ID, Role: "user", Content: "make a quiz"},
	}
	for _, m := range msgs {
		if err := s.AppendMessage(ctx, m); err != nil {
			t.Fatalf("AppendMessage: %v", err)
		}
	}

	history, err := s.History(ctx, sess.ID, 0)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("got %d messages, want 3", len(history))
	}
	if history[0].Content != "summarize this" || history[1].ModelID != "gemini-2.0-flash" {
		t.Errorf("history order wrong: %+v", history)
	}

	limited, err := s.History(ctx, sess.ID, 2)
	if err != nil {
		t.Fatalf("History limited: %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("got %d messages, want 2", len(limited))
	}

	empty, err := s.History(ctx, "other-session", 0)
	if err != nil {
		t.Fatalf("History empty: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected empty history, got %d", len(empty))
	}
}
