package vectorstore

import (
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Each assistant's index persists as two companion artifacts: a gob-encoded
// numeric file (dimension, ids, vectors) and a JSON docstore (id -> text and
// source file). Both must be present to load; a lone artifact counts as "no
// index".

type persistedIndex struct {
	Dimension int
	IDs       []string
	Vectors   [][]float32
}

type docEntry struct {
	Text     string `json:"text"`
	FileName string `json:"file_name"`
}

func indexPath(dir string, assistantID uuid.UUID) string {
	return filepath.Join(dir, fmt.Sprintf("assistant_%s.index", assistantID))
}

func docstorePath(dir string, assistantID uuid.UUID) string {
	return filepath.Join(dir, fmt.Sprintf("assistant_%s_docstore.json", assistantID))
}

func saveIndex(dir string, assistantID uuid.UUID, ix *Index) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create vector store dir: %w", err)
	}

	numeric := persistedIndex{
		Dimension: ix.dim,
		IDs:       make([]string, 0, len(ix.entries)),
		Vectors:   make([][]float32, 0, len(ix.entries)),
	}
	docs := make(map[string]docEntry, len(ix.entries))
	for id, e := range ix.entries {
		numeric.IDs = append(numeric.IDs, id)
		numeric.Vectors = append(numeric.Vectors, e.vector)
		docs[id] = docEntry{Text: e.text, FileName: e.fileName}
	}

	f, err := os.Create(indexPath(dir, assistantID))
	if err != nil {
		return fmt.Errorf("write index artifact: %w", err)
	}
	if err := gob.NewEncoder(f).Encode(&numeric); err != nil {
		_ = f.Close()
		return fmt.Errorf("encode index artifact: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close index artifact: %w", err)
	}

	raw, err := json.Marshal(docs)
	if err != nil {
		return fmt.Errorf("encode docstore artifact: %w", err)
	}
	if err := os.WriteFile(docstorePath(dir, assistantID), raw, 0o644); err != nil {
		return fmt.Errorf("write docstore artifact: %w", err)
	}
	return nil
}

// loadIndex returns (nil, nil) when the assistant has no persisted index,
// which includes the case where only one of the two artifacts exists.
func loadIndex(dir string, assistantID uuid.UUID) (*Index, error) {
	f, err := os.Open(indexPath(dir, assistantID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open index artifact: %w", err)
	}
	defer f.Close()

	rawDocs, err := os.ReadFile(docstorePath(dir, assistantID))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read docstore artifact: %w", err)
	}

	var numeric persistedIndex
	if err := gob.NewDecoder(f).Decode(&numeric); err != nil {
		return nil, fmt.Errorf("decode index artifact: %w", err)
	}
	var docs map[string]docEntry
	if err := json.Unmarshal(rawDocs, &docs); err != nil {
		return nil, fmt.Errorf("decode docstore artifact: %w", err)
	}
	if len(numeric.IDs) != len(numeric.Vectors) {
		return nil, fmt.Errorf("corrupt index artifact: %d ids, %d vectors", len(numeric.IDs), len(numeric.Vectors))
	}

	ix, err := NewIndex(numeric.Dimension)
	if err != nil {
		return nil, err
	}
	for i, id := range numeric.IDs {
		d := docs[id]
		ix.entries[id] = entry{vector: numeric.Vectors[i], text: d.Text, fileName: d.FileName}
	}
	return ix, nil
}
