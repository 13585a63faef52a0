package ingest

import (
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the target words per chunk.
	DefaultChunkSize = 512
	// DefaultOverlap is the words shared between adjacent chunks, so a
	// thought cut at a boundary survives in both.
	DefaultOverlap = 50
)

// splitSentences breaks transcript text on terminal punctuation and
// newlines. Caption text is loosely punctuated, so a newline always ends
// a sentence.
func splitSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for i, r := range text {
		current.WriteRune(r)
		switch r {
		case '\n':
			flush()
		case '.', '!', '?':
			if i == len(text)-1 || (i+1 < len(text) && unicode.IsSpace(rune(text[i+1]))) {
				flush()
			}
		}
	}
	flush()
	return sentences
}

// chunkSentences packs sentences into chunks of about chunkSize words,
// backing up by overlap words between chunks. Sentences are never split.
func chunkSentences(id string, sentences []string, chunkSize, overlap int) []Chunk {
	if len(sentences) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}

	var chunks []Chunk
	start := 0
	for start < len(sentences) {
		var buf strings.Builder
		words := 0
		end := start
		for end < len(sentences) {
			n := len(strings.Fields(sentences[end]))
			if words > 0 && words+n > chunkSize {
				break
			}
			if buf.Len() > 0 {
				buf.WriteByte(' ')
			}
			buf.WriteString(sentences[end])
			words += n
			end++
		}

		chunks = append(chunks, Chunk{Text: buf.String(), Index: len(chunks), DocID: id})

		// Back up over the overlap budget, but always move forward.
		next := end
		backed := 0
		for next > start && backed < overlap {
			next--
			backed += len(strings.Fields(sentences[next]))
		}
		if next == start {
			next = end
		}
		start = next
	}
	return chunks
}
