package relay

import "strings"

// MaxMessageLen is the Telegram hard limit on message text length, in runes.
const MaxMessageLen = 4096

// SplitMessage splits text into chunks of at most limit runes, preferring to
// break after the last newline inside the window. The chunks concatenated in
// order reconstruct the input exactly.
func SplitMessage(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxMessageLen
	}
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var chunks []string
	for len(runes) > limit {
		cut := limit
		window := string(runes[:limit])
		if idx := strings.LastIndexByte(window, '\n'); idx >= 0 {
			// break after the newline so nothing is lost
			cut = len([]rune(window[:idx])) + 1
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}
