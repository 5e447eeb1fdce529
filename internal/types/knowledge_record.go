package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// KnowledgeRecord is one ingested document for one assistant. FileName is
// unique per assistant: re-uploading the same name updates the row in place.
// DocIDs always mirrors the set of vectors currently live in the index for
// this document.
type KnowledgeRecord struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	AssistantID uuid.UUID      `gorm:"type:uuid;not null;index;uniqueIndex:idx_assistant_file" json:"assistant_id"`
	FileName    string         `gorm:"not null;uniqueIndex:idx_assistant_file" json:"file_name"`
	FileType    string         `gorm:"not null" json:"file_type"`
	Description string         `gorm:"type:text" json:"description"`
	Summary     string         `gorm:"type:text" json:"summary"`
	Keywords    datatypes.JSON `gorm:"column:keywords" json:"keywords"`
	DocIDs      string         `gorm:"column:doc_ids;type:text;not null" json:"doc_ids"`
	TokenCount  int            `gorm:"not null" json:"token_count"`
	UploadDate  time.Time      `gorm:"not null" json:"upload_date"`
}

func (KnowledgeRecord) TableName() string { return "knowledge_record" }

// ChunkIDs splits the ordered, comma-joined doc id list.
func (r *KnowledgeRecord) ChunkIDs() []string {
	if strings.TrimSpace(r.DocIDs) == "" {
		return nil
	}
	parts := strings.Split(r.DocIDs, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func JoinChunkIDs(ids []string) string {
	return strings.Join(ids, ", ")
}
