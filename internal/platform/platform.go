// Package platform identifies videos from share URLs and fetches their
// metadata from platform-specific sources.
package platform

import (
	"fmt"
)

// Platform is a supported video hosting platform.
type Platform string

const (
	YouTube  Platform = "youtube"
	Facebook Platform = "facebook"
)

// VideoIdentity is a platform plus the platform-native video ID,
// extracted from a user-supplied URL.
type VideoIdentity struct {
	Platform Platform `json:"platform"`
	ID       string   `json:"id"`
	URL      string   `json:"url"`
}

// VideoMetadata describes a video as reported by its platform.
// Fields the platform does not expose are left zero.
type VideoMetadata struct {
	Platform        Platform        `json:"platform"`
	ID              string          `json:"id"`
	Title           string          `json:"title"`
	Description     string          `json:"description,omitempty"`
	DurationSeconds float64         `json:"duration_seconds,omitempty"`
	ThumbnailURL    string          `json:"thumbnail_url,omitempty"`
	Uploader        string          `json:"uploader,omitempty"`
	SubtitleTracks  []SubtitleTrack `json:"subtitle_tracks,omitempty"`
}

// SubtitleTrack is a caption track advertised by a platform proxy.
type SubtitleTrack struct {
	URL           string `json:"url"`
	Code          string `json:"code"`
	Name          string `json:"name,omitempty"`
	AutoGenerated bool   `json:"auto_generated,omitempty"`
}

// Detect extracts a video identity from a raw URL, trying each
// supported platform's URL patterns in turn.
func Detect(rawURL string) (VideoIdentity, error) {
	if id, ok := ExtractYouTubeID(rawURL); ok {
		return VideoIdentity{Platform: YouTube, ID: id, URL: rawURL}, nil
	}
	if id, ok := ExtractFacebookID(rawURL); ok {
		return VideoIdentity{Platform: Facebook, ID: id, URL: rawURL}, nil
	}
	return VideoIdentity{}, fmt.Errorf("platform: unsupported video URL %q", rawURL)
}
