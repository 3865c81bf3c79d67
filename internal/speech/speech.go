// Package speech transcribes audio files through a Whisper-compatible
// API. It is the last acquisition tier, used when no subtitles exist
// anywhere for a video.
package speech

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/vidsage/vidsage/internal/transcript"
)

const (
	// maxUploadBytes is the Whisper API upload ceiling. Files above it
	// are split into fixed-length chunks and transcribed piecewise.
	maxUploadBytes = 25 << 20

	// chunkSeconds is the split length for oversized files. The offset
	// arithmetic in mergeChunks depends on every chunk but the last
	// having exactly this length.
	chunkSeconds = 600
)

// Config holds settings for the speech-to-text client.
type Config struct {
	// APIKey authenticates against the Whisper endpoint.
	APIKey string

	// BaseURL is the OpenAI-compatible API base
	// (default "https://api.groq.com/openai/v1").
	BaseURL string

	// Model is the transcription model name (default "whisper-large-v3").
	Model string

	// FfmpegPath is the path to the ffmpeg binary, used only to split
	// oversized audio files. If empty, located via exec.LookPath.
	FfmpegPath string
}

// Transcriber converts audio files into timed transcripts.
type Transcriber struct {
	cfg    Config
	client *openai.Client
	logger *slog.Logger
}

// New creates a Transcriber. Returns nil when no API key is
// configured; callers treat a nil Transcriber as tier unavailable.
func New(cfg Config, logger *slog.Logger) *Transcriber {
	if cfg.APIKey == "" {
		return nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.groq.com/openai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "whisper-large-v3"
	}
	if cfg.FfmpegPath == "" {
		if p, err := exec.LookPath("ffmpeg"); err == nil {
			cfg.FfmpegPath = p
		}
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL

	return &Transcriber{
		cfg:    cfg,
		client: openai.NewClientWithConfig(clientCfg),
		logger: logger,
	}
}

// Transcribe runs speech-to-text over the audio file and returns a
// transcript tagged with the whisper source. Files over the upload
// ceiling are split into chunks and the per-chunk timestamps shifted
// onto the full-file timeline.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath, language string) (*transcript.Transcript, error) {
	info, err := os.Stat(audioPath)
	if err != nil {
		return nil, fmt.Errorf("speech: stat audio: %w", err)
	}

	if info.Size() <= maxUploadBytes {
		segs, err := t.transcribeFile(ctx, audioPath, language)
		if err != nil {
			return nil, err
		}
		return transcript.New(segs, language, "whisper"), nil
	}

	t.logger.Info("audio exceeds upload limit, splitting",
		"path", audioPath,
		"size_bytes", info.Size(),
	)

	chunkPaths, cleanup, err := t.splitAudio(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	chunks := make([][]transcript.Segment, 0, len(chunkPaths))
	for _, p := range chunkPaths {
		segs, err := t.transcribeFile(ctx, p, language)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, segs)
	}

	return transcript.New(mergeChunks(chunks, chunkSeconds), language, "whisper"), nil
}

// transcribeFile sends one file through the API and converts the
// verbose response into segments with word timings.
func (t *Transcriber) transcribeFile(ctx context.Context, path, language string) ([]transcript.Segment, error) {
	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    t.cfg.Model,
		FilePath: path,
		Language: language,
		Format:   openai.AudioResponseFormatVerboseJSON,
		TimestampGranularities: []openai.TranscriptionTimestampGranularity{
			openai.TranscriptionTimestampGranularitySegment,
			openai.TranscriptionTimestampGranularityWord,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("speech: transcription: %w", err)
	}

	segs := make([]transcript.Segment, 0, len(resp.Segments))
	for _, s := range resp.Segments {
		text := strings.TrimSpace(s.Text)
		if text == "" {
			continue
		}
		segs = append(segs, transcript.Segment{
			StartSeconds: s.Start,
			EndSeconds:   s.End,
			Text:         text,
		})
	}

	words := make([]transcript.WordTiming, 0, len(resp.Words))
	for _, w := range resp.Words {
		words = append(words, transcript.WordTiming{
			Text:         w.Word,
			StartSeconds: w.Start,
			EndSeconds:   w.End,
		})
	}
	attachWords(segs, words)
	return segs, nil
}

// attachWords distributes word timings onto segments by start time,
// interpolating evenly for segments that received no words.
func attachWords(segs []transcript.Segment, words []transcript.WordTiming) {
	for _, w := range words {
		i := sort.Search(len(segs), func(i int) bool {
			return segs[i].EndSeconds > w.StartSeconds
		})
		if i < len(segs) {
			segs[i].Words = append(segs[i].Words, w)
		}
	}
	for i := range segs {
		transcript.InterpolateWords(&segs[i])
	}
}

// mergeChunks flattens per-chunk segments onto the full-file timeline.
// Chunk i starts at i*chunkLen seconds, so every timestamp in it is
// shifted by that amount.
func mergeChunks(chunks [][]transcript.Segment, chunkLen float64) []transcript.Segment {
	var merged []transcript.Segment
	for i, segs := range chunks {
		offset := float64(i) * chunkLen
		for _, s := range segs {
			s.StartSeconds += offset
			s.EndSeconds += offset
			for j := range s.Words {
				s.Words[j].StartSeconds += offset
				s.Words[j].EndSeconds += offset
			}
			merged = append(merged, s)
		}
	}
	return merged
}

// splitAudio cuts the file into chunkSeconds-long pieces under a temp
// directory. The returned cleanup removes the directory.
func (t *Transcriber) splitAudio(ctx context.Context, audioPath string) ([]string, func(), error) {
	if t.cfg.FfmpegPath == "" {
		return nil, nil, fmt.Errorf("speech: ffmpeg not found, cannot split oversized audio")
	}

	tmpDir, err := os.MkdirTemp("", "vidsage-chunks-*")
	if err != nil {
		return nil, nil, fmt.Errorf("speech: create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(tmpDir) }

	cmd := exec.CommandContext(ctx, t.cfg.FfmpegPath,
		"-i", audioPath,
		"-f", "segment",
		"-segment_time", fmt.Sprintf("%d", chunkSeconds),
		"-c", "copy",
		filepath.Join(tmpDir, "chunk%03d.mp3"),
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		cleanup()
		msg := string(out)
		if len(msg) > 500 {
			msg = msg[:500]
		}
		return nil, nil, fmt.Errorf("speech: ffmpeg split: %w: %s", err, msg)
	}

	paths, err := filepath.Glob(filepath.Join(tmpDir, "chunk*.mp3"))
	if err != nil || len(paths) == 0 {
		cleanup()
		return nil, nil, fmt.Errorf("speech: ffmpeg produced no chunks")
	}
	sort.Strings(paths)

	return paths, cleanup, nil
}
