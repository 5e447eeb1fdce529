package handlers

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/cortexa-labs/cortexa-backend/internal/services"
)

type KnowledgeHandler struct {
	knowledgeService services.KnowledgeService
}

func NewKnowledgeHandler(knowledgeService services.KnowledgeService) *KnowledgeHandler {
	return &KnowledgeHandler{knowledgeService: knowledgeService}
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_id", fmt.Errorf("invalid %s: %w", name, err))
		return uuid.Nil, false
	}
	return id, true
}

// Upload ingests a multipart document. Re-uploading an existing filename
// replaces that document.
func (kh *KnowledgeHandler) Upload(c *gin.Context) {
	assistantID, ok := parseUUIDParam(c, "assistant_id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "missing_file", err)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}
	raw, err := io.ReadAll(f)
	_ = f.Close()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "unreadable_file", err)
		return
	}

	description := c.PostForm("description")

	record, err := kh.knowledgeService.Ingest(c.Request.Context(), assistantID, fileHeader.Filename, description, raw)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"record": record})
}

func (kh *KnowledgeHandler) List(c *gin.Context) {
	assistantID, ok := parseUUIDParam(c, "assistant_id")
	if !ok {
		return
	}
	records, err := kh.knowledgeService.List(c.Request.Context(), assistantID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"records": records})
}

func (kh *KnowledgeHandler) GetContent(c *gin.Context) {
	assistantID, ok := parseUUIDParam(c, "assistant_id")
	if !ok {
		return
	}
	recordID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	record, content, err := kh.knowledgeService.GetContent(c.Request.Context(), assistantID, recordID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"record": record, "content": content})
}

type updateContentRequest struct {
	Content     string `json:"content" binding:"required"`
	Description string `json:"description"`
}

func (kh *KnowledgeHandler) UpdateContent(c *gin.Context) {
	assistantID, ok := parseUUIDParam(c, "assistant_id")
	if !ok {
		return
	}
	recordID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req updateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_body", err)
		return
	}
	record, err := kh.knowledgeService.UpdateContent(c.Request.Context(), assistantID, recordID, req.Content, req.Description)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"record": record})
}

func (kh *KnowledgeHandler) Delete(c *gin.Context) {
	assistantID, ok := parseUUIDParam(c, "assistant_id")
	if !ok {
		return
	}
	recordID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := kh.knowledgeService.Delete(c.Request.Context(), assistantID, recordID); err != nil {
		RespondServiceError(c, err)
		return
	}
	RespondOK(c, gin.H{"deleted": recordID})
}

// VectorStatus reports the live index shape for diagnostics.
func (kh *KnowledgeHandler) VectorStatus(c *gin.Context) {
	assistantID, ok := parseUUIDParam(c, "assistant_id")
	if !ok {
		return
	}
	stats, err := kh.knowledgeService.Stats(assistantID)
	if err != nil {
		RespondServiceError(c, err)
		return
	}
	if stats == nil {
		RespondOK(c, gin.H{"exists": false})
		return
	}
	RespondOK(c, gin.H{
		"exists":    true,
		"count":     stats.Count,
		"dimension": stats.Dimension,
		"files":     stats.FileNames,
		"samples":   stats.Samples,
	})
}
