package llmextract

import "unicode/utf8"

// DefaultChunkSize is the chunk size in runes.
const DefaultChunkSize = 4000

// Chunk is a contiguous piece of the document.
type Chunk struct {
	Index  int    // 0-based
	Offset int    // byte offset into the document text
	Text   string
}

// Split cuts text into contiguous, non-overlapping chunks of at most size
// runes. Concatenating the chunks reproduces text exactly.
func Split(text string, size int) []Chunk {
	if size <= 0 {
		size = DefaultChunkSize
	}
	var chunks []Chunk
	offset := 0
	for offset < len(text) {
		end := offset
		for n := 0; n < size && end < len(text); n++ {
			_, w := utf8.DecodeRuneInString(text[end:])
			end += w
		}
		chunks = append(chunks, Chunk{
			Index:  len(chunks),
			Offset: offset,
			Text:   text[offset:end],
		})
		offset = end
	}
	return chunks
}
