package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/vidsage/vidsage/internal/httpkit"
)

// facebookPatterns cover watch links, bare video paths, page-scoped
// video paths, and fb.watch short links.
var facebookPatterns = []*regexp.Regexp{
	regexp.MustCompile(`facebook\.com/watch/?\?v=(\d+)`),
	regexp.MustCompile(`facebook\.com/[^/]+/videos/(\d+)`),
	regexp.MustCompile(`facebook\.com/video\.php\?v=(\d+)`),
	regexp.MustCompile(`fb\.watch/([a-zA-Z0-9_-]+)`),
}

var facebookIDRe = regexp.MustCompile(`^\d+$`)

// ExtractFacebookID pulls the video ID out of a Facebook URL, falling
// back to a numeric v query parameter.
func ExtractFacebookID(rawURL string) (string, bool) {
	for _, re := range facebookPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1], true
		}
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if v := u.Query().Get("v"); facebookIDRe.MatchString(v) {
		return v, true
	}
	return "", false
}

// FacebookScraper fetches video metadata by scraping Open Graph tags
// from the public watch page. Facebook exposes no metadata API for
// anonymous clients, so title, description, and duration come from
// og: and video: meta tags.
type FacebookScraper struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
}

// NewFacebookScraper creates a scraper against the public facebook.com
// watch pages.
func NewFacebookScraper(logger *slog.Logger) *FacebookScraper {
	return &FacebookScraper{
		baseURL: "https://www.facebook.com",
		http: httpkit.NewClient(
			httpkit.WithTimeout(15 * time.Second),
		),
		logger: logger,
	}
}

// FetchMetadata retrieves what the watch page's Open Graph tags expose
// for a video ID. A page without og:title still yields metadata with
// the ID as title so the pipeline can proceed.
func (s *FacebookScraper) FetchMetadata(ctx context.Context, videoID string) (*VideoMetadata, error) {
	watchURL := s.baseURL + "/watch/?v=" + url.QueryEscape(videoID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, watchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html")

	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("platform: fetch watch page: %w", err)
	}
	defer httpkit.DrainAndClose(resp.Body, 4096)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("platform: watch page status %d", resp.StatusCode)
	}

	og, err := parseOpenGraph(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("platform: parse watch page: %w", err)
	}

	meta := &VideoMetadata{
		Platform:     Facebook,
		ID:           videoID,
		Title:        og["og:title"],
		Description:  og["og:description"],
		ThumbnailURL: og["og:image"],
	}
	if v := og["video:duration"]; v != "" {
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			meta.DurationSeconds = secs
		}
	}
	if meta.Title == "" {
		s.logger.Warn("watch page exposed no og:title", "video_id", videoID)
		meta.Title = "Facebook Video " + videoID
	}

	return meta, nil
}

// parseOpenGraph collects og:* and video:* meta tag properties from an
// HTML document.
func parseOpenGraph(r io.Reader) (map[string]string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	og := make(map[string]string)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var property, content string
			for _, a := range n.Attr {
				switch a.Key {
				case "property":
					property = a.Val
				case "content":
					content = a.Val
				}
			}
			if strings.HasPrefix(property, "og:") || strings.HasPrefix(property, "video:") {
				og[property] = content
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return og, nil
}
