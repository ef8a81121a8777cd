package analysis

import (
	"strings"
	"unicode/utf8"
)

// Chunking bounds: chunks are sentence-bounded, at most maxChunkLen
// characters, and chunks shorter than minChunkLen are discarded as noise.
const (
	maxChunkLen = 500
	minChunkLen = 50
)

// splitChunks splits page text into sentence-bounded chunks suitable for
// per-chunk offering classification.
func splitChunks(text string) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		chunk := strings.TrimSpace(current.String())
		current.Reset()
		if len(chunk) >= minChunkLen {
			chunks = append(chunks, chunk)
		}
	}

	for _, sentence := range sentences {
		// A single oversized sentence becomes its own (truncated) chunk.
		if len(sentence) > maxChunkLen {
			flush()
			chunks = append(chunks, truncateRunes(sentence, maxChunkLen))
			continue
		}

		if current.Len()+len(sentence)+1 > maxChunkLen {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	flush()

	return chunks
}

// truncateRunes cuts s to at most limit bytes without splitting a
// multi-byte rune.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

// splitSentences splits text on sentence-ending punctuation.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	runes := []rune(strings.TrimSpace(text))
	for i, r := range runes {
		current.WriteRune(r)

		if r != '.' && r != '!' && r != '?' {
			continue
		}
		// Only break when followed by whitespace or end of text, so
		// decimals like 54.99 stay intact.
		if i+1 == len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
			if s := strings.TrimSpace(current.String()); s != "" {
				sentences = append(sentences, s)
			}
			current.Reset()
		}
	}

	if s := strings.TrimSpace(current.String()); s != "" {
		sentences = append(sentences, s)
	}

	return sentences
}
