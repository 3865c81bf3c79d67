package ytdlp

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNewDefaults(t *testing.T) {
	c := New(Config{Path: "/opt/yt-dlp"}, testLogger())
	if c.cfg.SubtitleLanguage != "en" {
		t.Errorf("SubtitleLanguage = %q, want en", c.cfg.SubtitleLanguage)
	}
	if !c.Available() {
		t.Error("client with explicit path should be available")
	}
}

func TestFetchSubtitlesBinaryMissing(t *testing.T) {
	c := &Client{cfg: Config{SubtitleLanguage: "en"}, logger: testLogger()}
	if _, err := c.FetchSubtitles(context.Background(), "https://youtu.be/dQw4w9WgXcQ"); err == nil {
		t.Fatal("expected error when binary is missing")
	}
	if _, err := c.DownloadAudio(context.Background(), "https://youtu.be/dQw4w9WgXcQ", t.TempDir()); err == nil {
		t.Fatal("expected error when binary is missing")
	}
}

func TestFindFirst(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "video.en.srt"), []byte("1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	path, err := findFirst(dir, ".srt")
	if err != nil {
		t.Fatalf("findFirst: %v", err)
	}
	if filepath.Base(path) != "video.en.srt" {
		t.Errorf("got %s", path)
	}

	if _, err := findFirst(dir, ".mp3"); err == nil {
		t.Error("expected error when no matching file exists")
	}
}
