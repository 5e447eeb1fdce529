package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cortexa-labs/cortexa-backend/internal/services"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    code,
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// RespondServiceError maps the service error taxonomy onto HTTP statuses.
func RespondServiceError(c *gin.Context, err error) {
	var dim *services.DimensionMismatchError
	switch {
	case errors.Is(err, services.ErrUnsupportedFileType):
		RespondError(c, http.StatusBadRequest, "unsupported_file_type", err)
	case errors.Is(err, services.ErrNotEditable):
		RespondError(c, http.StatusBadRequest, "not_editable", err)
	case errors.Is(err, services.ErrNoMessages):
		RespondError(c, http.StatusBadRequest, "no_messages", err)
	case errors.Is(err, services.ErrRecordNotFound):
		RespondError(c, http.StatusNotFound, "record_not_found", err)
	case errors.Is(err, services.ErrAssistantNotFound):
		RespondError(c, http.StatusNotFound, "assistant_not_found", err)
	case errors.Is(err, services.ErrConversationNotFound):
		RespondError(c, http.StatusNotFound, "conversation_not_found", err)
	case errors.Is(err, services.ErrAlreadyFinalized):
		RespondError(c, http.StatusConflict, "already_finalized", err)
	case errors.As(err, &dim):
		RespondError(c, http.StatusConflict, "dimension_mismatch", err)
	default:
		RespondError(c, http.StatusInternalServerError, "internal_error", err)
	}
}
