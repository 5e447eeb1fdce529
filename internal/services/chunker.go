package services

import (
	"strings"
	"unicode"
)

const (
	DefaultChunkSize    = 500
	DefaultChunkOverlap = 50
)

// Chunker splits document text into overlapping passages. Deterministic and
// pure: re-running on the same text yields the same passages, which keeps
// re-ingestion stable.
type Chunker struct {
	size    int
	overlap int
}

func NewChunker(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = DefaultChunkOverlap
		if overlap >= size {
			overlap = size / 10
		}
	}
	return &Chunker{size: size, overlap: overlap}
}

// Split cuts text into passages of roughly c.size runes with c.overlap runes
// of carryover. Each window breaks at the best boundary available inside it:
// paragraph, then sentence, then whitespace, then a hard cut.
func (c *Chunker) Split(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= c.size {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + c.size
		if end >= len(runes) {
			chunk := strings.TrimSpace(string(runes[start:]))
			if chunk != "" {
				chunks = append(chunks, chunk)
			}
			break
		}

		cut := c.bestBoundary(runes, start, end)
		chunk := strings.TrimSpace(string(runes[start:cut]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		next := cut - c.overlap
		if next <= start {
			// Overlap must never stall the walk.
			next = cut
		}
		start = next
	}
	return chunks
}

// bestBoundary scans the window [start,end) backwards for the highest-priority
// break point. Paragraph and sentence breaks are only taken from the window's
// back half so those chunks keep a useful size; the whitespace fallback covers
// the whole window, and a hard cut happens only when the window holds no
// boundary at all.
func (c *Chunker) bestBoundary(runes []rune, start, end int) int {
	floor := start + c.size/2

	// Paragraph break: a newline followed by another newline.
	for i := end - 1; i > floor; i-- {
		if runes[i] == '\n' && i+1 < len(runes) {
			j := i - 1
			for j > start && runes[j] == ' ' {
				j--
			}
			if runes[j] == '\n' {
				return i + 1
			}
		}
	}

	for i := end - 1; i > floor; i-- {
		if isSentenceEnd(runes[i]) {
			return i + 1
		}
	}

	for i := end - 1; i > start; i-- {
		if unicode.IsSpace(runes[i]) {
			return i + 1
		}
	}

	return end
}

func isSentenceEnd(r rune) bool {
	switch r {
	case '.', '!', '?', '。', '！', '？':
		return true
	}
	return false
}
