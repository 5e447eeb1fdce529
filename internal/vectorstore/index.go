package vectorstore

import (
	"fmt"
	"math"
	"sort"
)

// Item is one chunk entering the index. Entries are immutable once added;
// a re-ingested document replaces its chunks wholesale.
type Item struct {
	ID       string
	Vector   []float32
	Text     string
	FileName string
}

// Match is one ranked similarity result; higher score is better.
type Match struct {
	ID       string
	Score    float64
	Text     string
	FileName string
}

const (
	statsSampleLimit  = 5
	statsPreviewRunes = 100
)

// Sample is one stored chunk shown in diagnostics, with its text cut down to
// a short preview.
type Sample struct {
	ID             string `json:"id"`
	FileName       string `json:"file_name"`
	ContentPreview string `json:"content_preview"`
}

type Stats struct {
	Count     int      `json:"count"`
	Dimension int      `json:"dimension"`
	FileNames []string `json:"file_names"`
	Samples   []Sample `json:"samples"`
}

type entry struct {
	vector   []float32
	text     string
	fileName string
}

// Index is a flat per-assistant similarity index over cosine similarity.
// The dimension is fixed at creation time. Index is not safe for concurrent
// use; the Manager owns locking.
type Index struct {
	dim     int
	entries map[string]entry
}

func NewIndex(dim int) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("index dimension must be positive, got %d", dim)
	}
	return &Index{dim: dim, entries: make(map[string]entry)}, nil
}

func (ix *Index) Dimension() int { return ix.dim }
func (ix *Index) Count() int     { return len(ix.entries) }

func (ix *Index) Add(items []Item) error {
	for _, it := range items {
		if len(it.Vector) != ix.dim {
			return fmt.Errorf("vector dimension mismatch: index %d, vector %d", ix.dim, len(it.Vector))
		}
	}
	for _, it := range items {
		ix.entries[it.ID] = entry{vector: it.Vector, text: it.Text, fileName: it.FileName}
	}
	return nil
}

// Delete removes the given ids; unknown ids are ignored.
func (ix *Index) Delete(ids []string) {
	for _, id := range ids {
		delete(ix.entries, id)
	}
}

func (ix *Index) Search(query []float32, k int) ([]Match, error) {
	if len(query) != ix.dim {
		return nil, fmt.Errorf("query dimension mismatch: index %d, query %d", ix.dim, len(query))
	}
	if k <= 0 || len(ix.entries) == 0 {
		return nil, nil
	}

	scored := make([]Match, 0, len(ix.entries))
	for id, e := range ix.entries {
		scored = append(scored, Match{
			ID:       id,
			Score:    cosineSimilarity(query, e.vector),
			Text:     e.text,
			FileName: e.fileName,
		})
	}
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		// Stable order for equal scores so persisted and reloaded
		// indexes rank identically.
		return scored[i].ID < scored[j].ID
	})
	if k > len(scored) {
		k = len(scored)
	}
	return scored[:k], nil
}

func (ix *Index) Stats() Stats {
	seen := make(map[string]bool)
	ids := make([]string, 0, len(ix.entries))
	for id, e := range ix.entries {
		ids = append(ids, id)
		if e.fileName != "" {
			seen[e.fileName] = true
		}
	}
	names := make([]string, 0, len(seen))
	for n := range seen {
		names = append(names, n)
	}
	sort.Strings(names)

	// Sorted ids keep the sample set stable across restarts.
	sort.Strings(ids)
	if len(ids) > statsSampleLimit {
		ids = ids[:statsSampleLimit]
	}
	samples := make([]Sample, 0, len(ids))
	for _, id := range ids {
		e := ix.entries[id]
		samples = append(samples, Sample{
			ID:             id,
			FileName:       e.fileName,
			ContentPreview: previewText(e.text, statsPreviewRunes),
		})
	}
	return Stats{Count: len(ix.entries), Dimension: ix.dim, FileNames: names, Samples: samples}
}

func previewText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}

func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
