package relay

import (
	"strings"
	"testing"
)

func TestSplitMessageShortTextUntouched(t *testing.T) {
	chunks := SplitMessage("hello", 10)
	if len(chunks) != 1 || chunks[0] != "hello" {
		t.Fatalf("chunks = %#v", chunks)
	}
}

func TestSplitMessagePrefersNewlineBreaks(t *testing.T) {
	text := "first line\nsecond line\nthird"
	chunks := SplitMessage(text, 15)
	if len(chunks) < 2 {
		t.Fatalf("chunks = %#v", chunks)
	}
	if !strings.HasSuffix(chunks[0], "\n") {
		t.Errorf("first chunk %q does not end at a newline", chunks[0])
	}
	if strings.Join(chunks, "") != text {
		t.Errorf("chunks do not reconstruct input: %#v", chunks)
	}
}

func TestSplitMessageHardBreakWithoutNewlines(t *testing.T) {
	text := strings.Repeat("x", 25)
	chunks := SplitMessage(text, 10)
	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	for i, c := range chunks {
		if len([]rune(c)) > 10 {
			t.Errorf("chunk %d exceeds limit: %q", i, c)
		}
	}
	if strings.Join(chunks, "") != text {
		t.Error("chunks do not reconstruct input")
	}
}

func TestSplitMessageMultibyteRunes(t *testing.T) {
	text := strings.Repeat("яж", 12) // 24 runes, 48 bytes
	chunks := SplitMessage(text, 10)
	for i, c := range chunks {
		if len([]rune(c)) > 10 {
			t.Errorf("chunk %d is %d runes", i, len([]rune(c)))
		}
	}
	if strings.Join(chunks, "") != text {
		t.Error("chunks do not reconstruct input")
	}
}
