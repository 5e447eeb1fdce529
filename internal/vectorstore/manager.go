package vectorstore

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
)

// DimensionMismatchError means an embedding provider produced vectors that do
// not fit the assistant's persisted index. Ingestion must abort rather than
// mix embedding spaces; the knowledge base has to be reset to change models.
type DimensionMismatchError struct {
	IndexDim  int
	VectorDim int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector store dimension mismatch (index: %d, model: %d); reset the assistant's knowledge base to change embedding models", e.IndexDim, e.VectorDim)
}

// Manager owns the process-wide mapping from assistant id to index handle.
// Mutations (Add/Delete) take the assistant's exclusive lock; searches share
// it, so a search never observes a half-applied batch. Indexes load lazily
// from disk on first access and persist immediately after every mutation.
type Manager struct {
	log *logger.Logger
	dir string

	mu      sync.Mutex
	handles map[uuid.UUID]*handle
}

type handle struct {
	mu     sync.RWMutex
	loaded bool
	ix     *Index // nil after load means no index exists yet
}

func NewManager(log *logger.Logger, dir string) *Manager {
	return &Manager{
		log:     log.With("component", "VectorIndexManager"),
		dir:     dir,
		handles: make(map[uuid.UUID]*handle),
	}
}

func (m *Manager) handleFor(assistantID uuid.UUID) *handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.handles[assistantID]
	if !ok {
		h = &handle{}
		m.handles[assistantID] = h
	}
	return h
}

// ensureLoaded must be called with h.mu held for writing.
func (m *Manager) ensureLoaded(h *handle, assistantID uuid.UUID) error {
	if h.loaded {
		return nil
	}
	ix, err := loadIndex(m.dir, assistantID)
	if err != nil {
		return fmt.Errorf("load index for assistant %s: %w", assistantID, err)
	}
	h.ix = ix
	h.loaded = true
	if ix != nil {
		m.log.Info("Loaded vector index from disk",
			"assistant_id", assistantID, "count", ix.Count(), "dimension", ix.Dimension())
	}
	return nil
}

// Search returns ranked matches; exists reports whether the assistant has an
// index at all. Absent index is a normal outcome, not an error.
func (m *Manager) Search(assistantID uuid.UUID, query []float32, k int) (matches []Match, exists bool, err error) {
	h := m.handleFor(assistantID)

	h.mu.RLock()
	if h.loaded {
		defer h.mu.RUnlock()
		if h.ix == nil {
			return nil, false, nil
		}
		matches, err = h.ix.Search(query, k)
		return matches, true, err
	}
	h.mu.RUnlock()

	h.mu.Lock()
	defer h.mu.Unlock()
	if err := m.ensureLoaded(h, assistantID); err != nil {
		return nil, false, err
	}
	if h.ix == nil {
		return nil, false, nil
	}
	matches, err = h.ix.Search(query, k)
	return matches, true, err
}

// Dimension reports the live index dimension, with exists=false when the
// assistant has no index yet.
func (m *Manager) Dimension(assistantID uuid.UUID) (int, bool, error) {
	h := m.handleFor(assistantID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := m.ensureLoaded(h, assistantID); err != nil {
		return 0, false, err
	}
	if h.ix == nil {
		return 0, false, nil
	}
	return h.ix.Dimension(), true, nil
}

// Add inserts a chunk batch, creating the index on first ingestion from the
// batch's vector dimension, and persists the index before returning. A batch
// whose vectors do not match the existing dimension fails with
// *DimensionMismatchError and leaves the index untouched.
func (m *Manager) Add(assistantID uuid.UUID, items []Item) error {
	if len(items) == 0 {
		return nil
	}
	h := m.handleFor(assistantID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := m.ensureLoaded(h, assistantID); err != nil {
		return err
	}

	if h.ix == nil {
		ix, err := NewIndex(len(items[0].Vector))
		if err != nil {
			return err
		}
		h.ix = ix
		m.log.Info("Creating new vector index", "assistant_id", assistantID, "dimension", ix.Dimension())
	}
	for _, it := range items {
		if len(it.Vector) != h.ix.Dimension() {
			return &DimensionMismatchError{IndexDim: h.ix.Dimension(), VectorDim: len(it.Vector)}
		}
	}
	if err := h.ix.Add(items); err != nil {
		return err
	}
	return saveIndex(m.dir, assistantID, h.ix)
}

// Delete removes ids and persists. Missing index or unknown ids are a no-op
// success so stale registry rows never block cleanup.
func (m *Manager) Delete(assistantID uuid.UUID, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	h := m.handleFor(assistantID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := m.ensureLoaded(h, assistantID); err != nil {
		return err
	}
	if h.ix == nil {
		return nil
	}
	h.ix.Delete(ids)
	return saveIndex(m.dir, assistantID, h.ix)
}

// Stats returns nil when the assistant has no index.
func (m *Manager) Stats(assistantID uuid.UUID) (*Stats, error) {
	h := m.handleFor(assistantID)
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := m.ensureLoaded(h, assistantID); err != nil {
		return nil, err
	}
	if h.ix == nil {
		return nil, nil
	}
	s := h.ix.Stats()
	return &s, nil
}
