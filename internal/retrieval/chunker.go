// ABOUTME: Overlapping-window text chunker for retrieval indexing
// ABOUTME: Prefers paragraph breaks, then line breaks, then word boundaries
package retrieval

import "strings"

// Chunker splits text into overlapping windows measured in runes.
type Chunker struct {
	Size    int
	Overlap int
}

// DefaultChunker matches the engine defaults: 1000-rune windows with
// 200 runes of overlap.
func DefaultChunker() Chunker {
	return Chunker{Size: 1000, Overlap: 200}
}

// Split divides text into chunks. Each chunk is at most Size runes and
// consecutive chunks share up to Overlap runes. Within a window the split
// lands on the last paragraph break if one exists, else the last line
// break, else the last space, else a hard cut.
func (c Chunker) Split(text string) []string {
	size := c.Size
	if size < 1 {
		size = 1000
	}
	overlap := c.Overlap
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(text)
	var chunks []string

	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			end = len(runes)
		} else {
			end = start + splitPoint(runes[start:end])
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
		next := end - overlap
		// The window must always advance.
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

// splitPoint returns the cut position inside a full window, preferring
// the latest paragraph break, then line break, then space.
func splitPoint(window []rune) int {
	s := string(window)

	if idx := strings.LastIndex(s, "\n\n"); idx > 0 {
		return len([]rune(s[:idx+2]))
	}
	if idx := strings.LastIndex(s, "\n"); idx > 0 {
		return len([]rune(s[:idx+1]))
	}
	if idx := strings.LastIndex(s, " "); idx > 0 {
		return len([]rune(s[:idx+1]))
	}
	return len(window)
}
