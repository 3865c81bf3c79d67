// Package pipeline acquires video transcripts through ordered
// platform-specific tiers. Each tier is tried in turn and the first
// one that yields a non-empty transcript wins; a video with no
// obtainable transcript is a valid outcome, not an error.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vidsage/vidsage/internal/platform"
	"github.com/vidsage/vidsage/internal/transcript"
)

// ErrVideoTooLong is returned when a video exceeds the configured
// duration ceiling before any acquisition work starts.
var ErrVideoTooLong = errors.New("pipeline: video exceeds maximum duration")

// Strategy is one transcript acquisition tier.
type Strategy interface {
	// Name identifies the tier in logs and transcript source tags.
	Name() string

	// Fetch attempts acquisition. meta is the result of the metadata
	// step, so tiers can reuse what it already learned (subtitle
	// tracks in particular). A nil transcript with nil error means
	// the tier has nothing for this video; errors are logged and the
	// next tier is tried.
	Fetch(ctx context.Context, video platform.VideoIdentity, meta *platform.VideoMetadata) (*transcript.Transcript, error)
}

// MetadataSource fetches platform metadata for a video ID.
type MetadataSource interface {
	FetchMetadata(ctx context.Context, videoID string) (*platform.VideoMetadata, error)
}

// ProcessResult is the outcome of running a video through the pipeline.
type ProcessResult struct {
	Identity   platform.VideoIdentity  `json:"identity"`
	Metadata   *platform.VideoMetadata `json:"metadata"`
	Transcript *transcript.Transcript  `json:"transcript,omitempty"`
}

// HasTranscript reports whether any tier produced a usable transcript.
func (r *ProcessResult) HasTranscript() bool {
	return r.Transcript != nil && !r.Transcript.Empty()
}

// Service runs the full video processing flow: identify, fetch
// metadata, enforce the duration policy, then walk acquisition tiers.
type Service struct {
	metadata    map[platform.Platform]MetadataSource
	strategies  map[platform.Platform][]Strategy
	maxDuration float64
	logger      *slog.Logger
}

// NewService creates an empty pipeline service. Platforms are wired up
// with RegisterPlatform before use.
func NewService(maxDurationSeconds float64, logger *slog.Logger) *Service {
	return &Service{
		metadata:    make(map[platform.Platform]MetadataSource),
		strategies:  make(map[platform.Platform][]Strategy),
		maxDuration: maxDurationSeconds,
		logger:      logger,
	}
}

// RegisterPlatform wires a metadata source and ordered acquisition
// tiers for one platform.
func (s *Service) RegisterPlatform(p platform.Platform, meta MetadataSource, tiers ...Strategy) {
	s.metadata[p] = meta
	s.strategies[p] = tiers
}

// Process runs a raw video URL through the pipeline.
func (s *Service) Process(ctx context.Context, rawURL string) (*ProcessResult, error) {
	video, err := platform.Detect(rawURL)
	if err != nil {
		return nil, err
	}

	meta := s.fetchMetadata(ctx, video)

	if s.maxDuration > 0 && meta.DurationSeconds > s.maxDuration {
		return nil, fmt.Errorf("%w: %.0fs > %.0fs", ErrVideoTooLong, meta.DurationSeconds, s.maxDuration)
	}

	result := &ProcessResult{Identity: video, Metadata: meta}
	result.Transcript = s.acquire(ctx, video, meta)
	return result, nil
}

// fetchMetadata asks the platform's metadata source, falling back to a
// placeholder so acquisition can still run when metadata is blocked.
func (s *Service) fetchMetadata(ctx context.Context, video platform.VideoIdentity) *platform.VideoMetadata {
	src, ok := s.metadata[video.Platform]
	if ok {
		meta, err := src.FetchMetadata(ctx, video.ID)
		if err == nil {
			return meta
		}
		s.logger.Warn("metadata fetch failed",
			"platform", video.Platform,
			"video_id", video.ID,
			"error", err,
		)
	}

	return &platform.VideoMetadata{
		Platform: video.Platform,
		ID:       video.ID,
		Title:    fmt.Sprintf("%s video %s", video.Platform, video.ID),
	}
}

// acquire walks the platform's tiers in order. Tier failures are
// logged and swallowed; a nil return means no tier had a transcript.
func (s *Service) acquire(ctx context.Context, video platform.VideoIdentity, meta *platform.VideoMetadata) *transcript.Transcript {
	for _, tier := range s.strategies[video.Platform] {
		tr, err := tier.Fetch(ctx, video, meta)
		if err != nil {
			s.logger.Warn("acquisition tier failed",
				"tier", tier.Name(),
				"platform", video.Platform,
				"video_id", video.ID,
				"error", err,
			)
			continue
		}
		if tr == nil || tr.Empty() {
			s.logger.Debug("acquisition tier empty",
				"tier", tier.Name(),
				"video_id", video.ID,
			)
			continue
		}

		s.logger.Info("transcript acquired",
			"tier", tier.Name(),
			"video_id", video.ID,
			"segments", len(tr.Segments),
		)
		return tr
	}
	return nil
}
