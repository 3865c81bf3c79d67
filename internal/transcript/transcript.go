// Package transcript defines the timed transcript model shared by the
// acquisition pipeline, the prompt context builder, and persistence.
//
// A Transcript is created once per video by whichever acquisition tier
// succeeds, cached keyed by video identity, and never mutated afterward —
// reprocessing replaces it wholesale.
package transcript

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/vidsage/vidsage/internal/timecode"
)

// WordTiming is a single word with its time span. When the source
// provides no word-level timing, timings are interpolated evenly across
// the parent segment — a documented approximation, not a measurement.
type WordTiming struct {
	Text         string  `json:"text"`
	StartSeconds float64 `json:"start"`
	EndSeconds   float64 `json:"end"`
}

// Segment is one timed caption or speech segment.
type Segment struct {
	StartSeconds float64      `json:"start"`
	EndSeconds   float64      `json:"end"`
	Text         string       `json:"text"`
	Words        []WordTiming `json:"words,omitempty"`
}

// Transcript is the ordered segment sequence for one video.
type Transcript struct {
	Segments []Segment `json:"segments"`
	Language string    `json:"language"`

	// Source identifies the acquisition tier that produced this
	// transcript (e.g. "piped_subtitles", "ytdlp_subtitles",
	// "whisper", "whisper_chunked").
	Source string `json:"source"`

	TotalDurationSeconds float64 `json:"total_duration"`
}

// New builds a Transcript from segments, deriving TotalDurationSeconds
// from the final segment's end (0 for an empty transcript).
func New(segments []Segment, language, source string) *Transcript {
	t := &Transcript{
		Segments: segments,
		Language: language,
		Source:   source,
	}
	if n := len(segments); n > 0 {
		t.TotalDurationSeconds = segments[n-1].EndSeconds
	}
	return t
}

// Empty reports whether the transcript carries no segments.
func (t *Transcript) Empty() bool {
	return t == nil || len(t.Segments) == 0
}

// WordCount returns the total whitespace-delimited word count.
func (t *Transcript) WordCount() int {
	if t == nil {
		return 0
	}
	n := 0
	for _, s := range t.Segments {
		n += len(strings.Fields(s.Text))
	}
	return n
}

// Fingerprint returns a stable hex digest of the transcript content,
// used as a component of response cache keys. Two transcripts with the
// same segments, language, and source fingerprint identically.
func (t *Transcript) Fingerprint() string {
	if t == nil {
		return ""
	}
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s\n", t.Language, t.Source)
	for _, s := range t.Segments {
		fmt.Fprintf(h, "%.3f|%.3f|%s\n", s.StartSeconds, s.EndSeconds, s.Text)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Preview renders up to maxSegments "[MM:SS] text" lines for display.
func (t *Transcript) Preview(maxSegments int) string {
	if t.Empty() {
		return "No transcript available."
	}

	segs := t.Segments
	if maxSegments > 0 && len(segs) > maxSegments {
		segs = segs[:maxSegments]
	}

	lines := make([]string, 0, len(segs))
	for _, s := range segs {
		if s.Text == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("[%s] %s", timecode.Format(s.StartSeconds), s.Text))
	}
	return strings.Join(lines, "\n")
}

// InterpolateWords fills in s.Words by dividing the segment duration
// evenly across whitespace-split tokens. Existing word timings are left
// untouched. The even split is an approximation inherited from the
// subtitle sources, which carry no per-word timing.
func InterpolateWords(s *Segment) {
	if len(s.Words) > 0 {
		return
	}

	tokens := strings.Fields(s.Text)
	if len(tokens) == 0 {
		return
	}

	dur := (s.EndSeconds - s.StartSeconds) / float64(len(tokens))
	words := make([]WordTiming, 0, len(tokens))
	for i, tok := range tokens {
		start := s.StartSeconds + float64(i)*dur
		words = append(words, WordTiming{
			Text:         tok,
			StartSeconds: start,
			EndSeconds:   start + dur,
		})
	}
	s.Words = words
}
