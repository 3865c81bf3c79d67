// Package ytdlp wraps the yt-dlp binary for subtitle extraction and
// audio download. It is the second and third acquisition tier, used
// when caption proxies have nothing for a video.
package ytdlp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

const (
	subtitleTimeout = 60 * time.Second
	audioTimeout    = 300 * time.Second
)

// Config holds settings for the yt-dlp wrapper.
type Config struct {
	// Path is the path to the yt-dlp binary. If empty, the binary is
	// located via exec.LookPath.
	Path string

	// SubtitleLanguage is the preferred subtitle language code
	// (default "en").
	SubtitleLanguage string
}

// Client runs yt-dlp subprocesses with bounded timeouts.
type Client struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a yt-dlp client. The binary path is resolved via
// Config.Path or exec.LookPath.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.SubtitleLanguage == "" {
		cfg.SubtitleLanguage = "en"
	}
	if cfg.Path == "" {
		if p, err := exec.LookPath("yt-dlp"); err == nil {
			cfg.Path = p
		}
	}
	return &Client{cfg: cfg, logger: logger}
}

// Available reports whether the yt-dlp binary was found.
func (c *Client) Available() bool {
	return c.cfg.Path != ""
}

// FetchSubtitles downloads auto-generated subtitles for a video URL,
// converted to SRT, and returns the raw subtitle text. Returns an
// empty string with no error when yt-dlp produced no subtitle file,
// which callers treat as "this tier has nothing".
func (c *Client) FetchSubtitles(ctx context.Context, videoURL string) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("ytdlp: binary not found (install yt-dlp or set video.yt_dlp_path)")
	}

	tmpDir, err := os.MkdirTemp("", "vidsage-subs-*")
	if err != nil {
		return "", fmt.Errorf("ytdlp: create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	ctx, cancel := context.WithTimeout(ctx, subtitleTimeout)
	defer cancel()

	args := []string{
		"--write-auto-sub",
		"--skip-download",
		"--sub-lang", c.cfg.SubtitleLanguage,
		"--convert-subs", "srt",
		"--no-warnings",
		"-o", filepath.Join(tmpDir, "%(id)s.%(ext)s"),
		videoURL,
	}

	c.logger.Info("running yt-dlp for subtitles",
		"url", videoURL,
		"language", c.cfg.SubtitleLanguage,
	)

	if err := c.run(ctx, args); err != nil {
		return "", fmt.Errorf("ytdlp: subtitles: %w", err)
	}

	path, err := findFirst(tmpDir, ".srt")
	if err != nil {
		return "", nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("ytdlp: read subtitle file: %w", err)
	}
	return string(raw), nil
}

// DownloadAudio extracts the best audio stream as an mp3 file under
// destDir and returns its path. The caller owns cleanup of destDir.
func (c *Client) DownloadAudio(ctx context.Context, videoURL, destDir string) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("ytdlp: binary not found (install yt-dlp or set video.yt_dlp_path)")
	}

	ctx, cancel := context.WithTimeout(ctx, audioTimeout)
	defer cancel()

	args := []string{
		"-f", "bestaudio",
		"--extract-audio",
		"--audio-format", "mp3",
		"--no-warnings",
		"-o", filepath.Join(destDir, "%(id)s.%(ext)s"),
		videoURL,
	}

	c.logger.Info("running yt-dlp for audio", "url", videoURL)

	if err := c.run(ctx, args); err != nil {
		return "", fmt.Errorf("ytdlp: audio download: %w", err)
	}

	path, err := findFirst(destDir, ".mp3")
	if err != nil {
		return "", fmt.Errorf("ytdlp: %w", err)
	}
	return path, nil
}

func (c *Client) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, c.cfg.Path, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		errOutput := stderr.String()
		if len(errOutput) > 500 {
			errOutput = errOutput[:500]
		}
		return fmt.Errorf("%w: %s", err, errOutput)
	}
	return nil
}

// findFirst returns the first file in dir with the given extension.
func findFirst(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("read dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("no %s file produced", ext)
}
