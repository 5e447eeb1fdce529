package vectorstore

import (
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	t.Cleanup(log.Sync)
	return log
}

func testItems() []Item {
	return []Item{
		{ID: "c1", Vector: []float32{1, 0, 0}, Text: "alpha", FileName: "a.txt"},
		{ID: "c2", Vector: []float32{0, 1, 0}, Text: "beta", FileName: "a.txt"},
		{ID: "c3", Vector: []float32{0, 0, 1}, Text: "gamma", FileName: "b.txt"},
	}
}

func TestManagerSearchAbsentIndexReturnsNotExists(t *testing.T) {
	m := NewManager(testLogger(t), t.TempDir())
	matches, exists, err := m.Search(uuid.New(), []float32{1, 0, 0}, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if exists {
		t.Fatalf("index should not exist")
	}
	if len(matches) != 0 {
		t.Fatalf("want no matches, got %d", len(matches))
	}
}

func TestManagerAddCreatesPersistsAndSearches(t *testing.T) {
	dir := t.TempDir()
	m := NewManager(testLogger(t), dir)
	assistantID := uuid.New()

	if err := m.Add(assistantID, testItems()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := os.Stat(indexPath(dir, assistantID)); err != nil {
		t.Fatalf("index artifact missing: %v", err)
	}
	if _, err := os.Stat(docstorePath(dir, assistantID)); err != nil {
		t.Fatalf("docstore artifact missing: %v", err)
	}

	matches, exists, err := m.Search(assistantID, []float32{1, 0, 0}, 1)
	if err != nil || !exists {
		t.Fatalf("Search: exists=%v err=%v", exists, err)
	}
	if len(matches) != 1 || matches[0].ID != "c1" || matches[0].Text != "alpha" {
		t.Fatalf("unexpected match: %+v", matches)
	}
}

func TestManagerReloadsFromDiskWithIdenticalRanking(t *testing.T) {
	dir := t.TempDir()
	assistantID := uuid.New()

	first := NewManager(testLogger(t), dir)
	if err := first.Add(assistantID, testItems()); err != nil {
		t.Fatalf("Add: %v", err)
	}
	query := []float32{0.7, 0.7, 0.1}
	want, _, err := first.Search(assistantID, query, 3)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}

	// A fresh manager simulates a process restart.
	second := NewManager(testLogger(t), dir)
	got, exists, err := second.Search(assistantID, query, 3)
	if err != nil || !exists {
		t.Fatalf("reload Search: exists=%v err=%v", exists, err)
	}
	if len(got) != len(want) {
		t.Fatalf("match count: want=%d got=%d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i].ID || got[i].Text != want[i].Text || got[i].FileName != want[i].FileName {
			t.Fatalf("match %d differs after reload: want=%+v got=%+v", i, want[i], got[i])
		}
	}
}

func TestManagerLoneArtifactCountsAsNoIndex(t *testing.T) {
	dir := t.TempDir()
	assistantID := uuid.New()

	m := NewManager(testLogger(t), dir)
	if err := m.Add(assistantID, testItems()); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := os.Remove(docstorePath(dir, assistantID)); err != nil {
		t.Fatalf("remove docstore: %v", err)
	}

	fresh := NewManager(testLogger(t), dir)
	_, exists, err := fresh.Search(assistantID, []float32{1, 0, 0}, 1)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if exists {
		t.Fatalf("lone artifact must count as no index")
	}
}

func TestManagerAddDimensionMismatchLeavesIndexUntouched(t *testing.T) {
	m := NewManager(testLogger(t), t.TempDir())
	assistantID := uuid.New()
	if err := m.Add(assistantID, testItems()); err != nil {
		t.Fatalf("Add: %v", err)
	}

	err := m.Add(assistantID, []Item{{ID: "bad", Vector: []float32{1, 0}}})
	var mismatch *DimensionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("want DimensionMismatchError, got %v", err)
	}
	if mismatch.IndexDim != 3 || mismatch.VectorDim != 2 {
		t.Fatalf("mismatch dims: %+v", mismatch)
	}

	stats, err := m.Stats(assistantID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Count != 3 {
		t.Fatalf("index mutated by failed add: count=%d", stats.Count)
	}
}

func TestManagerDeleteIsIdempotentAndPersists(t *testing.T) {
	dir := t.TempDir()
	assistantID := uuid.New()
	m := NewManager(testLogger(t), dir)

	// Deleting against a missing index is a no-op success.
	if err := m.Delete(assistantID, []string{"nothing"}); err != nil {
		t.Fatalf("Delete on absent index: %v", err)
	}

	if err := m.Add(assistantID, testItems()); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := m.Delete(assistantID, []string{"c1", "unknown"}); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	fresh := NewManager(testLogger(t), dir)
	stats, err := fresh.Stats(assistantID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats == nil || stats.Count != 2 {
		t.Fatalf("delete not persisted: %+v", stats)
	}
}

func TestManagerStatsAbsentIndexIsNil(t *testing.T) {
	m := NewManager(testLogger(t), t.TempDir())
	stats, err := m.Stats(uuid.New())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats != nil {
		t.Fatalf("want nil stats, got %+v", stats)
	}
}
