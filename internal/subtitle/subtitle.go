// Package subtitle parses line-oriented subtitle documents (SRT and
// WebVTT) into timed transcript segments.
//
// The grammar is deliberately loose: real-world caption files mix SRT
// and VTT conventions, carry stray metadata, and omit cue indexes, so
// the parser is a single forward scan that keys everything off timing
// lines and treats anything unrecognized as caption text.
package subtitle

import (
	"regexp"
	"strings"

	"github.com/vidsage/vidsage/internal/timecode"
	"github.com/vidsage/vidsage/internal/transcript"
)

// timingLineRe matches SRT/VTT cue timing lines like
// "00:00:01,000 --> 00:00:03,000" or "00:01.500 --> 00:03.000",
// with optional VTT position metadata after the second timestamp.
var timingLineRe = regexp.MustCompile(`^(\d{1,2}:)?\d{1,2}:\d{2}[.,]\d{1,3}\s*-->\s*(\d{1,2}:)?\d{1,2}:\d{2}[.,]\d{1,3}`)

// cueIndexRe matches standalone numeric cue identifiers.
var cueIndexRe = regexp.MustCompile(`^\d+$`)

// headerLineRe matches VTT header and metadata lines.
var headerLineRe = regexp.MustCompile(`^(WEBVTT|NOTE|Kind:|Language:)`)

// htmlTagRe strips inline markup (<c>, <i>, <font>, karaoke timing tags)
// that auto-generated captions embed in cue text.
var htmlTagRe = regexp.MustCompile(`<[^>]+>`)

// Parse scans raw subtitle text into ordered segments. A timing line
// flushes the previous open segment (if it accumulated any text) and
// opens a new one; text lines append to the open segment separated by
// single spaces; index, header, and blank lines are skipped. Cues whose
// timing line is never followed by text are dropped. Word timings are
// interpolated evenly since subtitle formats carry none.
func Parse(raw string) []transcript.Segment {
	var segments []transcript.Segment
	var open *transcript.Segment

	flush := func() {
		if open != nil && open.Text != "" {
			transcript.InterpolateWords(open)
			segments = append(segments, *open)
		}
		open = nil
	}

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(strings.TrimRight(line, "\r"))

		if line == "" {
			continue
		}

		if timingLineRe.MatchString(line) {
			flush()

			parts := strings.SplitN(line, "-->", 2)
			start := parseCueTimestamp(parts[0])
			// VTT allows position metadata after the end timestamp.
			endField := strings.Fields(strings.TrimSpace(parts[1]))
			var end float64
			if len(endField) > 0 {
				end = parseCueTimestamp(endField[0])
			}
			if end < start {
				end = start
			}

			open = &transcript.Segment{StartSeconds: start, EndSeconds: end}
			continue
		}

		if cueIndexRe.MatchString(line) || headerLineRe.MatchString(line) {
			continue
		}

		if open != nil {
			text := strings.TrimSpace(htmlTagRe.ReplaceAllString(line, ""))
			if text == "" {
				continue
			}
			if open.Text != "" {
				open.Text += " " + text
			} else {
				open.Text = text
			}
		}
	}

	flush()
	return segments
}

// ParseTranscript parses raw subtitle text and wraps the segments in a
// Transcript tagged with the given language and acquisition source.
func ParseTranscript(raw, language, source string) *transcript.Transcript {
	return transcript.New(Parse(raw), language, source)
}

// parseCueTimestamp reads an SRT ("HH:MM:SS,mmm") or VTT ("HH:MM:SS.mmm",
// "MM:SS.mmm") cue timestamp into seconds. The comma decimal separator is
// normalized before delegating to the shared codec, which fails soft to 0.
func parseCueTimestamp(ts string) float64 {
	return timecode.Parse(strings.ReplaceAll(strings.TrimSpace(ts), ",", "."))
}
