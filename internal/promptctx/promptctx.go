// Package promptctx renders a transcript into the bounded text block
// that accompanies a user query to a language model.
package promptctx

import (
	"strings"

	"github.com/vidsage/vidsage/internal/timecode"
	"github.com/vidsage/vidsage/internal/transcript"
)

const (
	// charsPerToken is the planning ratio used to convert a model's
	// token window into a character budget.
	charsPerToken = 4

	// reservedChars is held back from the budget for the system
	// preamble and the model's own response.
	reservedChars = 2000

	// truncationMarker is appended when the transcript did not fit.
	truncationMarker = "... [transcript truncated]"
)

// Build renders the transcript as timestamped lines that fit the
// model's context window alongside the query. Lines are included
// greedily from the start and never split; when the budget runs out a
// truncation marker is appended. Output is deterministic for the same
// inputs.
func Build(tr *transcript.Transcript, userQuery string, contextTokens int) string {
	if tr == nil || tr.Empty() {
		return ""
	}

	budget := contextTokens*charsPerToken - reservedChars - len(userQuery)
	if budget <= 0 {
		return truncationMarker
	}

	var b strings.Builder
	truncated := false

	for i, seg := range tr.Segments {
		line := "[" + timecode.Format(seg.StartSeconds) + "] " + seg.Text

		need := len(line)
		if i > 0 {
			need++ // joining newline
		}
		if b.Len()+need > budget {
			truncated = true
			break
		}

		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
	}

	if truncated {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(truncationMarker)
	}

	return b.String()
}
