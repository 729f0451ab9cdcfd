package knowledge

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxChars bounds chunk size during indexing.
const DefaultMaxChars = 800

// SplitChunks splits text into passages around sentence boundaries. Sentences
// accumulate greedily until adding the next one would push the chunk past
// maxChars, at which point the chunk is sealed and the sentence starts a new
// one. A single sentence longer than maxChars becomes its own oversized chunk
// rather than being truncated. Empty or whitespace-only input yields nil.
func SplitChunks(text string, maxChars int) []string {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	var chunks []string
	var current []string
	length := 0

	for _, sentence := range strings.Split(text, ".") {
		sentence = strings.TrimSpace(sentence)
		if sentence == "" {
			continue
		}

		n := utf8.RuneCountInString(sentence)
		if length+n > maxChars && len(current) > 0 {
			chunks = append(chunks, seal(current))
			current = []string{sentence}
			length = n
		} else {
			current = append(current, sentence)
			length += n
		}
	}

	if len(current) > 0 {
		chunks = append(chunks, seal(current))
	}
	return chunks
}

func seal(sentences []string) string {
	return strings.Join(sentences, ". ") + "."
}

// Summarize produces an extractive summary: the first maxSentences sentences
// of text. Text without sentence terminators falls back to a 500-character
// prefix.
func Summarize(text string, maxSentences int) string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		trimmed := strings.TrimSpace(text)
		if utf8.RuneCountInString(trimmed) > 500 {
			return string([]rune(trimmed)[:500])
		}
		return trimmed
	}
	if maxSentences > 0 && len(sentences) > maxSentences {
		sentences = sentences[:maxSentences]
	}
	return strings.Join(sentences, " ")
}

// splitSentences breaks text after runs of sentence terminators followed by
// whitespace.
func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	runes := []rune(strings.TrimSpace(text))

	for i := 0; i < len(runes); i++ {
		b.WriteRune(runes[i])
		if !isTerminator(runes[i]) {
			continue
		}
		// Consume the full terminator run, then split on whitespace.
		for i+1 < len(runes) && isTerminator(runes[i+1]) {
			i++
			b.WriteRune(runes[i])
		}
		if i+1 >= len(runes) || runes[i+1] == ' ' || runes[i+1] == '\n' || runes[i+1] == '\t' {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	// A trailing fragment without a terminator is not a sentence.
	return sentences
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
