package pipeline

import (
	"context"
	"os"

	"github.com/vidsage/vidsage/internal/platform"
	"github.com/vidsage/vidsage/internal/speech"
	"github.com/vidsage/vidsage/internal/subtitle"
	"github.com/vidsage/vidsage/internal/transcript"
	"github.com/vidsage/vidsage/internal/ytdlp"
)

// pipedSubtitles is the first YouTube tier: caption tracks advertised
// by Piped instances.
type pipedSubtitles struct {
	client   *platform.PipedClient
	language string
}

// NewPipedSubtitles creates the Piped caption tier.
func NewPipedSubtitles(client *platform.PipedClient, language string) Strategy {
	return &pipedSubtitles{client: client, language: language}
}

func (p *pipedSubtitles) Name() string { return "piped_api" }

// Fetch reuses the track list the metadata step already fetched rather
// than asking the instances again. Placeholder metadata (the metadata
// fetch failed) carries no tracks, so this tier reports nothing.
func (p *pipedSubtitles) Fetch(ctx context.Context, video platform.VideoIdentity, meta *platform.VideoMetadata) (*transcript.Transcript, error) {
	var tracks []platform.SubtitleTrack
	if meta != nil {
		tracks = meta.SubtitleTracks
	}

	track, ok := platform.SelectSubtitleTrack(tracks, p.language)
	if !ok {
		return nil, nil
	}

	raw, err := p.client.FetchSubtitles(ctx, track)
	if err != nil {
		return nil, err
	}

	return subtitle.ParseTranscript(raw, track.Code, p.Name()), nil
}

// ytdlpSubtitles is the middle tier: auto-generated subtitles pulled
// by yt-dlp. Works for both platforms.
type ytdlpSubtitles struct {
	client   *ytdlp.Client
	language string
}

// NewYtDlpSubtitles creates the yt-dlp auto-subtitle tier.
func NewYtDlpSubtitles(client *ytdlp.Client, language string) Strategy {
	return &ytdlpSubtitles{client: client, language: language}
}

func (y *ytdlpSubtitles) Name() string { return "ytdlp_subs" }

func (y *ytdlpSubtitles) Fetch(ctx context.Context, video platform.VideoIdentity, _ *platform.VideoMetadata) (*transcript.Transcript, error) {
	raw, err := y.client.FetchSubtitles(ctx, video.URL)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}
	return subtitle.ParseTranscript(raw, y.language, y.Name()), nil
}

// whisperAudio is the last tier: download the audio track and run it
// through speech-to-text.
type whisperAudio struct {
	downloader  *ytdlp.Client
	transcriber *speech.Transcriber
	language    string
}

// NewWhisperAudio creates the audio transcription tier. A nil
// transcriber (no API key configured) yields a tier that always
// reports nothing.
func NewWhisperAudio(downloader *ytdlp.Client, transcriber *speech.Transcriber, language string) Strategy {
	return &whisperAudio{downloader: downloader, transcriber: transcriber, language: language}
}

func (w *whisperAudio) Name() string { return "whisper" }

func (w *whisperAudio) Fetch(ctx context.Context, video platform.VideoIdentity, _ *platform.VideoMetadata) (*transcript.Transcript, error) {
	if w.transcriber == nil {
		return nil, nil
	}

	tmpDir, err := os.MkdirTemp("", "vidsage-audio-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	audioPath, err := w.downloader.DownloadAudio(ctx, video.URL, tmpDir)
	if err != nil {
		return nil, err
	}

	return w.transcriber.Transcribe(ctx, audioPath, w.language)
}
