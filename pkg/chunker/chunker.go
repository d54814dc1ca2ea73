package chunker

import (
	"fmt"

	"rag-chat-be/pkg/store"

	"github.com/google/uuid"
)

// lookbackWindow is how far back from the size boundary we search for a
// sentence terminator before giving up and splitting at the boundary.
const lookbackWindow = 100

func isSentenceEnd(r rune) bool {
	switch r {
	case '。', '.', '?', '!', '？', '！':
		return true
	}
	return false
}

// Chunker splits document text into overlapping chunks, preferring to cut at
// sentence boundaries. It operates on runes so CJK text is not split
// mid-character.
type Chunker struct {
	chunkSize int
	overlap   int
}

// New validates the chunking parameters. An overlap that reaches the chunk
// size can never make progress and is rejected rather than clamped.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunker: chunk size must be positive, got %d", chunkSize)
	}
	if overlap < 0 {
		return nil, fmt.Errorf("chunker: overlap must not be negative, got %d", overlap)
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("chunker: overlap (%d) must be smaller than chunk size (%d)", overlap, chunkSize)
	}
	return &Chunker{chunkSize: chunkSize, overlap: overlap}, nil
}

// SplitText splits content into overlapping pieces of at most chunkSize
// runes. Each piece except possibly the last ends at a sentence terminator
// when one exists within the look-back window; otherwise it is cut exactly
// at the size boundary. Empty content yields no pieces.
func (c *Chunker) SplitText(content string) []string {
	runes := []rune(content)
	total := len(runes)
	if total == 0 {
		return nil
	}

	var parts []string
	start := 0
	for start < total {
		end := start + c.chunkSize
		if end >= total {
			end = total
		} else {
			// Prefer the nearest sentence boundary behind the size limit.
			low := end - lookbackWindow
			if low < start {
				low = start
			}
			for i := end - 1; i > low; i-- {
				if isSentenceEnd(runes[i]) {
					end = i + 1
					break
				}
			}
		}

		parts = append(parts, string(runes[start:end]))
		if end == total {
			break
		}

		next := end - c.overlap
		if next < 0 {
			next = 0
		}
		// Guarantees forward progress even with a large overlap.
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return parts
}

// Split chunks a document, stamping each piece with the source document id
// and its sequence index. Document metadata is carried onto every chunk.
func (c *Chunker) Split(doc store.Document) []store.Chunk {
	parts := c.SplitText(doc.Content)
	if len(parts) == 0 {
		return nil
	}

	chunks := make([]store.Chunk, len(parts))
	for i, part := range parts {
		chunks[i] = store.Chunk{
			Id:         uuid.New(),
			DocumentId: doc.Id,
			Content:    part,
			Index:      i,
			Metadata:   doc.Metadata,
		}
	}
	return chunks
}

// ChunkSize reports the configured maximum chunk length in runes.
func (c *Chunker) ChunkSize() int { return c.chunkSize }

// Overlap reports the configured overlap between adjacent chunks in runes.
func (c *Chunker) Overlap() int { return c.overlap }
