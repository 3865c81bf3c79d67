// Package syncmark rewrites bracketed timestamps in model output into
// HTML spans a player UI can seek on.
package syncmark

import (
	"fmt"
	"regexp"

	"github.com/vidsage/vidsage/internal/timecode"
)

// timestampRe matches bracketed [MM:SS] and [HH:MM:SS] references.
var timestampRe = regexp.MustCompile(`\[\d{1,2}:\d{2}(?::\d{2})?\]`)

// Annotate wraps every bracketed timestamp in a span carrying the
// absolute offset in seconds, keeping the original label as the span
// text. Text without timestamps passes through unchanged.
func Annotate(text string) string {
	return timestampRe.ReplaceAllStringFunc(text, func(match string) string {
		total := int(timecode.Parse(match[1 : len(match)-1]))
		return fmt.Sprintf(`<span class="timestamp" data-time="%d">%s</span>`, total, match)
	})
}
