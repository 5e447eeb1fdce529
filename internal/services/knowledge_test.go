package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cortexa-labs/cortexa-backend/internal/filestore"
	"github.com/cortexa-labs/cortexa-backend/internal/repos"
	"github.com/cortexa-labs/cortexa-backend/internal/testutil"
	"github.com/cortexa-labs/cortexa-backend/internal/types"
	"github.com/cortexa-labs/cortexa-backend/internal/vectorstore"
)

type knowledgeFixture struct {
	svc         KnowledgeService
	ai          *fakeAI
	vectors     *vectorstore.Manager
	db          *gorm.DB
	assistantID uuid.UUID
}

func newKnowledgeFixture(t *testing.T) *knowledgeFixture {
	t.Helper()
	log := testutil.Logger(t)
	db := testutil.DB(t)
	assistant := testutil.SeedAssistant(t, db)

	ai := newFakeAI()
	vectors := vectorstore.NewManager(log, t.TempDir())
	svc := NewKnowledgeService(
		log,
		repos.NewKnowledgeRepo(db, log),
		filestore.NewFileStore(log, t.TempDir()),
		vectors,
		ai,
		NewChunker(200, 20),
	)
	return &knowledgeFixture{svc: svc, ai: ai, vectors: vectors, db: db, assistantID: assistant.ID}
}

func TestIngestCreatesRecordAndIndex(t *testing.T) {
	fx := newKnowledgeFixture(t)
	ctx := context.Background()

	rec, err := fx.svc.Ingest(ctx, fx.assistantID, "returns.txt", "return policy",
		[]byte("Returns are accepted within 30 days of purchase. Refunds are issued to the original payment method."))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if rec.FileName != "returns.txt" || rec.FileType != FileTypeTXT {
		t.Fatalf("record: %+v", rec)
	}
	if rec.Description != "return policy" {
		t.Fatalf("description: %q", rec.Description)
	}
	if len(rec.ChunkIDs()) == 0 {
		t.Fatalf("no chunk ids recorded")
	}
	if rec.TokenCount <= 0 {
		t.Fatalf("token count: %d", rec.TokenCount)
	}
	if rec.Summary != "a short test document" {
		t.Fatalf("summary: %q", rec.Summary)
	}
	if !strings.Contains(string(rec.Keywords), "alpha") {
		t.Fatalf("keywords: %s", string(rec.Keywords))
	}

	stats, err := fx.svc.Stats(fx.assistantID)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats == nil || stats.Count != len(rec.ChunkIDs()) {
		t.Fatalf("index and registry disagree: stats=%+v chunk_ids=%d", stats, len(rec.ChunkIDs()))
	}
}

func TestReingestSameFilenameReplacesChunks(t *testing.T) {
	fx := newKnowledgeFixture(t)
	ctx := context.Background()

	first, err := fx.svc.Ingest(ctx, fx.assistantID, "policy.txt", "", []byte("Old policy: returns within 14 days."))
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}
	oldIDs := first.ChunkIDs()

	second, err := fx.svc.Ingest(ctx, fx.assistantID, "policy.txt", "", []byte("New policy: returns within 30 days."))
	if err != nil {
		t.Fatalf("second Ingest: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("re-upload must update the existing record, not create a new one")
	}

	records, err := fx.svc.List(ctx, fx.assistantID)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("want 1 record, got %d", len(records))
	}

	newIDs := second.ChunkIDs()
	for _, oldID := range oldIDs {
		for _, newID := range newIDs {
			if oldID == newID {
				t.Fatalf("chunk id %s survived re-ingestion", oldID)
			}
		}
	}

	stats, _ := fx.svc.Stats(fx.assistantID)
	if stats.Count != len(newIDs) {
		t.Fatalf("old chunks left in index: stats=%d want=%d", stats.Count, len(newIDs))
	}
}

func TestIngestUnsupportedFileTypeStoresNothing(t *testing.T) {
	fx := newKnowledgeFixture(t)
	ctx := context.Background()

	_, err := fx.svc.Ingest(ctx, fx.assistantID, "blob.bin", "", []byte{0x00, 0x01, 0xFF})
	if !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("want ErrUnsupportedFileType, got %v", err)
	}

	records, _ := fx.svc.List(ctx, fx.assistantID)
	if len(records) != 0 {
		t.Fatalf("record created for rejected upload")
	}
	stats, _ := fx.svc.Stats(fx.assistantID)
	if stats != nil {
		t.Fatalf("index created for rejected upload: %+v", stats)
	}
}

func TestIngestDimensionMismatchAborts(t *testing.T) {
	fx := newKnowledgeFixture(t)
	ctx := context.Background()

	first, err := fx.svc.Ingest(ctx, fx.assistantID, "a.txt", "", []byte("Document alpha content."))
	if err != nil {
		t.Fatalf("first Ingest: %v", err)
	}

	fx.ai.dim = 24
	_, err = fx.svc.Ingest(ctx, fx.assistantID, "b.txt", "", []byte("Document beta content."))
	var mismatch *DimensionMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("want DimensionMismatchError, got %v", err)
	}

	records, _ := fx.svc.List(ctx, fx.assistantID)
	if len(records) != 1 {
		t.Fatalf("failed ingestion must not leave a record: got %d", len(records))
	}
	stats, _ := fx.svc.Stats(fx.assistantID)
	if stats.Count != len(first.ChunkIDs()) {
		t.Fatalf("index mutated by failed ingestion: %+v", stats)
	}
}

func TestIngestSummaryFailureDegradesToPlaceholder(t *testing.T) {
	fx := newKnowledgeFixture(t)
	fx.ai.generateErr = errors.New("provider down")

	rec, err := fx.svc.Ingest(context.Background(), fx.assistantID, "doc.txt", "", []byte("Some content worth indexing."))
	if err != nil {
		t.Fatalf("Ingest must succeed despite summary failure: %v", err)
	}
	if rec.Summary != summaryPlaceholder {
		t.Fatalf("summary: want placeholder, got %q", rec.Summary)
	}
}

func TestUpdateContentReindexes(t *testing.T) {
	fx := newKnowledgeFixture(t)
	ctx := context.Background()

	rec, err := fx.svc.Ingest(ctx, fx.assistantID, "faq.txt", "", []byte("Shipping takes five business days."))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	updated, err := fx.svc.UpdateContent(ctx, fx.assistantID, rec.ID, "Returns are accepted within 30 days.", "")
	if err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}

	_, content, err := fx.svc.GetContent(ctx, fx.assistantID, rec.ID)
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if content != "Returns are accepted within 30 days." {
		t.Fatalf("content: %q", content)
	}

	matches, exists, err := fx.vectors.Search(fx.assistantID, fx.ai.vectorFor("returns accepted 30 days"), 1)
	if err != nil || !exists {
		t.Fatalf("Search: exists=%v err=%v", exists, err)
	}
	if len(matches) != 1 || !strings.Contains(matches[0].Text, "Returns are accepted") {
		t.Fatalf("index not updated: %+v", matches)
	}
	if stats, _ := fx.svc.Stats(fx.assistantID); stats.Count != len(updated.ChunkIDs()) {
		t.Fatalf("stats=%d chunk_ids=%d", stats.Count, len(updated.ChunkIDs()))
	}
}

func TestUpdateContentRejectsNonText(t *testing.T) {
	fx := newKnowledgeFixture(t)
	ctx := context.Background()
	log := testutil.Logger(t)

	repo := repos.NewKnowledgeRepo(fx.db, log)
	rec := &types.KnowledgeRecord{
		ID:          uuid.New(),
		AssistantID: fx.assistantID,
		FileName:    "scan.pdf",
		FileType:    FileTypePDF,
	}
	if _, err := repo.Create(ctx, nil, rec); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	_, err := fx.svc.UpdateContent(ctx, fx.assistantID, rec.ID, "new text", "")
	if !errors.Is(err, ErrNotEditable) {
		t.Fatalf("want ErrNotEditable, got %v", err)
	}
}

func TestGetContentRejectsNonText(t *testing.T) {
	fx := newKnowledgeFixture(t)
	ctx := context.Background()
	log := testutil.Logger(t)

	repo := repos.NewKnowledgeRepo(fx.db, log)
	rec := &types.KnowledgeRecord{
		ID:          uuid.New(),
		AssistantID: fx.assistantID,
		FileName:    "scan.pdf",
		FileType:    FileTypePDF,
	}
	if _, err := repo.Create(ctx, nil, rec); err != nil {
		t.Fatalf("seed record: %v", err)
	}

	_, _, err := fx.svc.GetContent(ctx, fx.assistantID, rec.ID)
	if !errors.Is(err, ErrNotEditable) {
		t.Fatalf("want ErrNotEditable, got %v", err)
	}
}

func TestUpdateContentUnknownRecord(t *testing.T) {
	fx := newKnowledgeFixture(t)
	_, err := fx.svc.UpdateContent(context.Background(), fx.assistantID, uuid.New(), "text", "")
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("want ErrRecordNotFound, got %v", err)
	}
}

func TestDeleteRemovesRecordAndChunks(t *testing.T) {
	fx := newKnowledgeFixture(t)
	ctx := context.Background()

	rec, err := fx.svc.Ingest(ctx, fx.assistantID, "doomed.txt", "", []byte("Content to be deleted."))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if err := fx.svc.Delete(ctx, fx.assistantID, rec.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	records, _ := fx.svc.List(ctx, fx.assistantID)
	if len(records) != 0 {
		t.Fatalf("record not removed")
	}
	stats, _ := fx.svc.Stats(fx.assistantID)
	if stats == nil || stats.Count != 0 {
		t.Fatalf("chunks not removed: %+v", stats)
	}

	if err := fx.svc.Delete(ctx, fx.assistantID, rec.ID); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("second delete: want ErrRecordNotFound, got %v", err)
	}
}

func TestParseSummaryResponse(t *testing.T) {
	summary, keywords := parseSummaryResponse("Summary: Covers refund rules.\nKeywords: refunds, returns, policy")
	if summary != "Covers refund rules." {
		t.Fatalf("summary: %q", summary)
	}
	if len(keywords) != 3 || keywords[0] != "refunds" || keywords[2] != "policy" {
		t.Fatalf("keywords: %v", keywords)
	}
}

func TestParseSummaryResponseMissingMarkersFallsBack(t *testing.T) {
	summary, keywords := parseSummaryResponse("Just a plain answer with no sections.")
	if summary != "Just a plain answer with no sections." {
		t.Fatalf("summary: %q", summary)
	}
	if keywords != nil {
		t.Fatalf("keywords: %v", keywords)
	}
}
