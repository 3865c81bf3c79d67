package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/vidsage/vidsage/internal/httpkit"
)

// youtubePatterns cover the URL shapes YouTube hands out: standard
// watch links, youtu.be short links, embeds, shorts, bare /v/ paths,
// and live streams. Video IDs are always 11 characters.
var youtubePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/)([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/shorts/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/live/([a-zA-Z0-9_-]{11})`),
}

var youtubeIDRe = regexp.MustCompile(`^[a-zA-Z0-9_-]{11}$`)

// ExtractYouTubeID pulls the 11-character video ID out of a YouTube
// URL. Falls back to the v query parameter for URL shapes the known
// patterns miss.
func ExtractYouTubeID(rawURL string) (string, bool) {
	for _, re := range youtubePatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if v := u.Query().Get("v"); youtubeIDRe.MatchString(v) {
		return v, true
	}
	return "", false
}

// PipedClient fetches YouTube video metadata and subtitle tracks from
// Piped API instances. Public instances come and go, so each call walks
// the configured list in order and uses the first instance that answers.
type PipedClient struct {
	instances []string
	http      *http.Client
	logger    *slog.Logger
}

// NewPipedClient creates a client over the given instance base URLs.
func NewPipedClient(instances []string, logger *slog.Logger) *PipedClient {
	return &PipedClient{
		instances: instances,
		http: httpkit.NewClient(
			httpkit.WithTimeout(10 * time.Second),
		),
		logger: logger,
	}
}

// pipedStreams is the subset of the Piped /streams response we parse.
type pipedStreams struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	Thumbnail   string  `json:"thumbnailUrl"`
	Uploader    string  `json:"uploader"`
	Subtitles   []struct {
		URL           string `json:"url"`
		Code          string `json:"code"`
		Name          string `json:"name"`
		AutoGenerated bool   `json:"autoGenerated"`
	} `json:"subtitles"`
}

// FetchMetadata retrieves video metadata, including available subtitle
// tracks, for a YouTube video ID. Instances are tried in configured
// order; an error is returned only when every instance fails.
func (c *PipedClient) FetchMetadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	var lastErr error

	for _, instance := range c.instances {
		streams, err := c.fetchStreams(ctx, instance, videoID)
		if err != nil {
			c.logger.Warn("piped instance failed",
				"instance", instance,
				"video_id", videoID,
				"error", err,
			)
			lastErr = err
			continue
		}

		meta := &VideoMetadata{
			Platform:        YouTube,
			ID:              videoID,
			Title:           streams.Title,
			Description:     streams.Description,
			DurationSeconds: streams.Duration,
			ThumbnailURL:    streams.Thumbnail,
			Uploader:        streams.Uploader,
		}

		for _, s := range streams.Subtitles {
			meta.SubtitleTracks = append(meta.SubtitleTracks, SubtitleTrack{
				URL:           s.URL,
				Code:          s.Code,
				Name:          s.Name,
				AutoGenerated: s.AutoGenerated,
			})
		}

		return meta, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no piped instances configured")
	}
	return nil, fmt.Errorf("platform: all piped instances failed for %s: %w", videoID, lastErr)
}

func (c *PipedClient) fetchStreams(ctx context.Context, instance, videoID string) (*pipedStreams, error) {
	endpoint := strings.TrimRight(instance, "/") + "/streams/" + url.PathEscape(videoID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, httpkit.ReadErrorBody(resp.Body, 4096))
	}

	var streams pipedStreams
	if err := json.NewDecoder(resp.Body).Decode(&streams); err != nil {
		return nil, fmt.Errorf("decode streams response: %w", err)
	}

	return &streams, nil
}

// FetchSubtitles downloads the raw subtitle document for a track.
func (c *PipedClient) FetchSubtitles(ctx context.Context, track SubtitleTrack) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, track.URL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("platform: subtitle fetch status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("platform: read subtitles: %w", err)
	}

	return string(body), nil
}

// SelectSubtitleTrack picks the best track for a language code,
// preferring tracks whose code starts with the requested language and
// falling back to the first available track.
func SelectSubtitleTrack(tracks []SubtitleTrack, language string) (SubtitleTrack, bool) {
	if len(tracks) == 0 {
		return SubtitleTrack{}, false
	}
	for _, t := range tracks {
		if strings.HasPrefix(strings.ToLower(t.Code), strings.ToLower(language)) {
			return t, true
		}
	}
	return tracks[0], true
}
