package subtitle

import (
	"testing"
)

func TestParseSRT(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:03,000\nHello world\n\n2\n00:00:03,000 --> 00:00:05,000\nSecond line\n"

	segs := Parse(raw)
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].StartSeconds != 1.0 || segs[0].EndSeconds != 3.0 {
		t.Errorf("segment 0 timing = %v..%v, want 1..3", segs[0].StartSeconds, segs[0].EndSeconds)
	}
	if segs[0].Text != "Hello world" {
		t.Errorf("segment 0 text = %q", segs[0].Text)
	}
	if segs[1].StartSeconds != 3.0 || segs[1].EndSeconds != 5.0 {
		t.Errorf("segment 1 timing = %v..%v, want 3..5", segs[1].StartSeconds, segs[1].EndSeconds)
	}
	if segs[1].Text != "Second line" {
		t.Errorf("segment 1 text = %q", segs[1].Text)
	}
}

func TestParseVTT(t *testing.T) {
	raw := "WEBVTT\nKind: captions\nLanguage: en\n\n00:01.500 --> 00:03.000\nFirst cue\n\n00:03.000 --> 00:06.250 align:start position:0%\nSecond cue\n"

	segs := Parse(raw)
	if len(segs) != 2 {
		t.Fatalf("got %d segments, want 2", len(segs))
	}
	if segs[0].StartSeconds != 1.5 {
		t.Errorf("segment 0 start = %v, want 1.5", segs[0].StartSeconds)
	}
	if segs[1].EndSeconds != 6.25 {
		t.Errorf("segment 1 end = %v, want 6.25", segs[1].EndSeconds)
	}
}

func TestParseDropsEmptyCues(t *testing.T) {
	raw := "1\n00:00:01,000 --> 00:00:03,000\n\n2\n00:00:03,000 --> 00:00:05,000\nKept\n"

	segs := Parse(raw)
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	if segs[0].Text != "Kept" {
		t.Errorf("text = %q, want %q", segs[0].Text, "Kept")
	}
}

func TestParseEmptyInput(t *testing.T) {
	if segs := Parse(""); len(segs) != 0 {
		t.Fatalf("got %d segments, want 0", len(segs))
	}
	if segs := Parse("WEBVTT\n\n"); len(segs) != 0 {
		t.Fatalf("header-only input: got %d segments, want 0", len(segs))
	}
}

func TestParseJoinsMultilineCues(t *testing.T) {
	raw := "00:00:01,000 --> 00:00:04,000\nfirst part\nsecond part\nthird part\n"

	segs := Parse(raw)
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	if segs[0].Text != "first part second part third part" {
		t.Errorf("text = %q", segs[0].Text)
	}
}

func TestParseStripsInlineMarkup(t *testing.T) {
	raw := "00:00:01.000 --> 00:00:03.000\n<c>Hello</c> <00:00:02.000>there\n"

	segs := Parse(raw)
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	if segs[0].Text != "Hello there" {
		t.Errorf("text = %q, want %q", segs[0].Text, "Hello there")
	}
}

func TestParseInterpolatesWords(t *testing.T) {
	raw := "00:00:10,000 --> 00:00:14,000\none two three four\n"

	segs := Parse(raw)
	if len(segs) != 1 {
		t.Fatalf("got %d segments, want 1", len(segs))
	}
	words := segs[0].Words
	if len(words) != 4 {
		t.Fatalf("got %d words, want 4", len(words))
	}
	if words[0].StartSeconds != 10.0 || words[0].EndSeconds != 11.0 {
		t.Errorf("word 0 timing = %v..%v, want 10..11", words[0].StartSeconds, words[0].EndSeconds)
	}
	if words[3].EndSeconds != 14.0 {
		t.Errorf("word 3 end = %v, want 14", words[3].EndSeconds)
	}
}

func TestParseTranscript(t *testing.T) {
	tr := ParseTranscript("00:00:01,000 --> 00:00:03,000\nHello\n", "en", "piped_api")
	if tr.Language != "en" || tr.Source != "piped_api" {
		t.Errorf("language/source = %q/%q", tr.Language, tr.Source)
	}
	if tr.TotalDurationSeconds != 3.0 {
		t.Errorf("duration = %v, want 3", tr.TotalDurationSeconds)
	}
}
