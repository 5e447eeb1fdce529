package services

import (
	"errors"

	"github.com/cortexa-labs/cortexa-backend/internal/vectorstore"
)

var (
	// ErrUnsupportedFileType means the uploaded payload is not txt, md, pdf
	// or docx. Nothing is stored when this is returned.
	ErrUnsupportedFileType = errors.New("unsupported file type: only txt, md, pdf and docx are accepted")

	// ErrNotEditable means in-place content editing was attempted on a
	// record whose source is not plain text.
	ErrNotEditable = errors.New("only plain text documents can be edited in place")

	ErrRecordNotFound       = errors.New("knowledge record not found")
	ErrAssistantNotFound    = errors.New("assistant not found")
	ErrConversationNotFound = errors.New("conversation not found")

	// ErrAlreadyFinalized guards the exactly-once finalize transition.
	ErrAlreadyFinalized = errors.New("conversation already finalized")

	// ErrNoMessages rejects finalizing a conversation with no recorded turns.
	ErrNoMessages = errors.New("conversation has no messages")

	ErrGenerationFailed = errors.New("answer generation failed")
)

// DimensionMismatchError is re-exported so callers can match it without
// importing the vector store package.
type DimensionMismatchError = vectorstore.DimensionMismatchError
