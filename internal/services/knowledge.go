package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/cortexa-labs/cortexa-backend/internal/filestore"
	"github.com/cortexa-labs/cortexa-backend/internal/logger"
	"github.com/cortexa-labs/cortexa-backend/internal/repos"
	"github.com/cortexa-labs/cortexa-backend/internal/types"
	"github.com/cortexa-labs/cortexa-backend/internal/vectorstore"
)

const summaryPlaceholder = "Summary unavailable."

// summaryDocLimit caps how much document text is sent to the model for
// summarization.
const summaryDocLimit = 6000

// KnowledgeService owns the document lifecycle: ingest, edit, delete, list.
// Re-uploading a filename replaces that document's chunks; the registry row
// and the live index always describe the same set of vectors.
type KnowledgeService interface {
	Ingest(ctx context.Context, assistantID uuid.UUID, fileName, description string, raw []byte) (*types.KnowledgeRecord, error)
	UpdateContent(ctx context.Context, assistantID, recordID uuid.UUID, content, description string) (*types.KnowledgeRecord, error)
	GetContent(ctx context.Context, assistantID, recordID uuid.UUID) (*types.KnowledgeRecord, string, error)
	Delete(ctx context.Context, assistantID, recordID uuid.UUID) error
	List(ctx context.Context, assistantID uuid.UUID) ([]*types.KnowledgeRecord, error)
	Stats(assistantID uuid.UUID) (*vectorstore.Stats, error)
}

type knowledgeService struct {
	log       *logger.Logger
	knowledge repos.KnowledgeRepo
	files     filestore.FileStore
	vectors   *vectorstore.Manager
	ai        AIClient
	chunker   *Chunker
}

func NewKnowledgeService(
	log *logger.Logger,
	knowledge repos.KnowledgeRepo,
	files filestore.FileStore,
	vectors *vectorstore.Manager,
	ai AIClient,
	chunker *Chunker,
) KnowledgeService {
	return &knowledgeService{
		log:       log.With("service", "KnowledgeService"),
		knowledge: knowledge,
		files:     files,
		vectors:   vectors,
		ai:        ai,
		chunker:   chunker,
	}
}

func (s *knowledgeService) Ingest(ctx context.Context, assistantID uuid.UUID, fileName, description string, raw []byte) (*types.KnowledgeRecord, error) {
	text, fileType, err := ExtractText(fileName, raw)
	if err != nil {
		return nil, err
	}

	existing, err := s.knowledge.GetByFileName(ctx, nil, assistantID, fileName)
	if err != nil {
		return nil, fmt.Errorf("look up knowledge record: %w", err)
	}

	if _, err := s.files.Save(assistantID, fileName, raw); err != nil {
		return nil, err
	}

	rec, err := s.reindex(ctx, assistantID, existing, fileName, fileType, description, text)
	if err != nil {
		return nil, err
	}

	action := "ingested"
	if existing != nil {
		action = "reingested"
	}
	s.log.Info("Document "+action,
		"assistant_id", assistantID,
		"file_name", fileName,
		"file_type", fileType,
		"chunks", len(rec.ChunkIDs()),
		"tokens", rec.TokenCount,
	)
	return rec, nil
}

// UpdateContent rewrites a plain text document's content in place and
// re-chunks it. Non-text records reject with ErrNotEditable.
func (s *knowledgeService) UpdateContent(ctx context.Context, assistantID, recordID uuid.UUID, content, description string) (*types.KnowledgeRecord, error) {
	rec, err := s.knowledge.GetByID(ctx, nil, assistantID, recordID)
	if err != nil {
		return nil, fmt.Errorf("look up knowledge record: %w", err)
	}
	if rec == nil {
		return nil, ErrRecordNotFound
	}
	if rec.FileType != FileTypeTXT {
		return nil, ErrNotEditable
	}

	if _, err := s.files.Save(assistantID, rec.FileName, []byte(content)); err != nil {
		return nil, err
	}

	if description == "" {
		description = rec.Description
	}
	text := normalizeNewlines(content)
	updated, err := s.reindex(ctx, assistantID, rec, rec.FileName, rec.FileType, description, text)
	if err != nil {
		return nil, err
	}

	s.log.Info("Document content updated",
		"assistant_id", assistantID,
		"record_id", recordID,
		"chunks", len(updated.ChunkIDs()),
	)
	return updated, nil
}

// reindex runs the shared chunk/embed/index/summarize sequence and upserts
// the registry row. When existing is non-nil its old chunks are removed
// first; that removal is best-effort so a lost index never blocks
// re-ingestion.
func (s *knowledgeService) reindex(ctx context.Context, assistantID uuid.UUID, existing *types.KnowledgeRecord, fileName, fileType, description, text string) (*types.KnowledgeRecord, error) {
	if existing != nil {
		if old := existing.ChunkIDs(); len(old) > 0 {
			if err := s.vectors.Delete(assistantID, old); err != nil {
				s.log.Warn("Failed to delete previous chunks, continuing",
					"assistant_id", assistantID, "file_name", fileName, "error", err)
			}
		}
	}

	chunks := s.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("document %q contains no extractable text", fileName)
	}

	vectors, err := s.ai.Embed(ctx, chunks)
	if err != nil {
		return nil, fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return nil, fmt.Errorf("embedding count mismatch: chunks=%d vectors=%d", len(chunks), len(vectors))
	}

	chunkIDs := make([]string, len(chunks))
	items := make([]vectorstore.Item, len(chunks))
	for i := range chunks {
		chunkIDs[i] = uuid.NewString()
		items[i] = vectorstore.Item{
			ID:       chunkIDs[i],
			Vector:   vectors[i],
			Text:     chunks[i],
			FileName: fileName,
		}
	}
	if err := s.vectors.Add(assistantID, items); err != nil {
		return nil, err
	}

	summary, keywords := s.summarize(ctx, fileName, text)
	keywordsJSON, err := json.Marshal(keywords)
	if err != nil {
		keywordsJSON = []byte("[]")
	}

	now := time.Now().UTC()
	if existing != nil {
		existing.FileType = fileType
		existing.Description = description
		existing.Summary = summary
		existing.Keywords = datatypes.JSON(keywordsJSON)
		existing.DocIDs = types.JoinChunkIDs(chunkIDs)
		existing.TokenCount = estimateTokens(text)
		existing.UploadDate = now
		if err := s.knowledge.Update(ctx, nil, existing); err != nil {
			return nil, fmt.Errorf("update knowledge record: %w", err)
		}
		return existing, nil
	}

	rec := &types.KnowledgeRecord{
		ID:          uuid.New(),
		AssistantID: assistantID,
		FileName:    fileName,
		FileType:    fileType,
		Description: description,
		Summary:     summary,
		Keywords:    datatypes.JSON(keywordsJSON),
		DocIDs:      types.JoinChunkIDs(chunkIDs),
		TokenCount:  estimateTokens(text),
		UploadDate:  now,
	}
	return s.knowledge.Create(ctx, nil, rec)
}

func (s *knowledgeService) GetContent(ctx context.Context, assistantID, recordID uuid.UUID) (*types.KnowledgeRecord, string, error) {
	rec, err := s.knowledge.GetByID(ctx, nil, assistantID, recordID)
	if err != nil {
		return nil, "", fmt.Errorf("look up knowledge record: %w", err)
	}
	if rec == nil {
		return nil, "", ErrRecordNotFound
	}
	if rec.FileType != FileTypeTXT {
		return nil, "", ErrNotEditable
	}
	raw, err := s.files.Read(assistantID, rec.FileName)
	if err != nil {
		return nil, "", err
	}
	return rec, string(raw), nil
}

// Delete removes the document's chunks from the index and drops the registry
// row. Chunks already gone from the index do not fail the operation.
func (s *knowledgeService) Delete(ctx context.Context, assistantID, recordID uuid.UUID) error {
	rec, err := s.knowledge.GetByID(ctx, nil, assistantID, recordID)
	if err != nil {
		return fmt.Errorf("look up knowledge record: %w", err)
	}
	if rec == nil {
		return ErrRecordNotFound
	}

	if ids := rec.ChunkIDs(); len(ids) > 0 {
		if err := s.vectors.Delete(assistantID, ids); err != nil {
			return fmt.Errorf("delete chunks from index: %w", err)
		}
	}
	if err := s.files.Remove(assistantID, rec.FileName); err != nil {
		s.log.Warn("Failed to remove stored file", "assistant_id", assistantID, "file_name", rec.FileName, "error", err)
	}
	if err := s.knowledge.DeleteByID(ctx, nil, assistantID, recordID); err != nil {
		return fmt.Errorf("delete knowledge record: %w", err)
	}

	s.log.Info("Document deleted", "assistant_id", assistantID, "record_id", recordID, "file_name", rec.FileName)
	return nil
}

func (s *knowledgeService) List(ctx context.Context, assistantID uuid.UUID) ([]*types.KnowledgeRecord, error) {
	return s.knowledge.ListByAssistant(ctx, nil, assistantID)
}

func (s *knowledgeService) Stats(assistantID uuid.UUID) (*vectorstore.Stats, error) {
	return s.vectors.Stats(assistantID)
}

// summarize asks the model for a summary and keyword list in one call. It is
// best-effort: a provider failure degrades to a placeholder and never fails
// ingestion.
func (s *knowledgeService) summarize(ctx context.Context, fileName, text string) (string, []string) {
	doc := text
	if len(doc) > summaryDocLimit {
		doc = doc[:summaryDocLimit]
	}

	system := "You summarize documents for a knowledge base. Reply with a 'Summary:' section containing one concise paragraph, followed by a 'Keywords:' section containing a comma-separated list of key terms."
	user := fmt.Sprintf("Document %q:\n\n%s", fileName, doc)

	resp, err := s.ai.GenerateText(ctx, system, user)
	if err != nil {
		s.log.Warn("Summary generation failed, using placeholder", "file_name", fileName, "error", err)
		return summaryPlaceholder, nil
	}
	return parseSummaryResponse(resp)
}

// parseSummaryResponse locates the Summary and Keywords sections. When the
// markers are missing the whole response becomes the summary with no
// keywords.
func parseSummaryResponse(resp string) (string, []string) {
	lower := strings.ToLower(resp)
	si := strings.Index(lower, "summary")
	ki := strings.Index(lower, "keywords")
	if si < 0 || ki < 0 || ki <= si {
		return strings.TrimSpace(resp), nil
	}

	summary := strings.TrimSpace(trimSectionMarker(resp[si:ki], "summary"))
	keywordText := strings.TrimSpace(trimSectionMarker(resp[ki:], "keywords"))

	var keywords []string
	for _, part := range strings.Split(keywordText, ",") {
		kw := strings.TrimSpace(part)
		if kw != "" {
			keywords = append(keywords, kw)
		}
	}
	if summary == "" {
		return strings.TrimSpace(resp), nil
	}
	return summary, keywords
}

// trimSectionMarker drops the leading marker word plus any following
// punctuation from a section slice.
func trimSectionMarker(s, marker string) string {
	if len(s) >= len(marker) && strings.EqualFold(s[:len(marker)], marker) {
		s = s[len(marker):]
	}
	return strings.TrimLeft(s, ":*# \t\n")
}

// estimateTokens approximates token usage for display. Four characters per
// token tracks typical English text closely enough for accounting.
func estimateTokens(text string) int {
	return len(text) / 4
}
