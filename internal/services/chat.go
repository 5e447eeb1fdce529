package services

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
	"github.com/cortexa-labs/cortexa-backend/internal/types"
	"github.com/cortexa-labs/cortexa-backend/internal/workerpool"
)

// ChatService executes the persistence and generation steps of one
// conversational turn. The session layer owns frame ordering; this service
// owns durable state and the worker-pool handoff.
type ChatService interface {
	RecordCustomerMessage(ctx context.Context, conversationID uuid.UUID, text string) error
	GenerateReply(ctx context.Context, assistantID, conversationID uuid.UUID, query string) (string, error)
}

type chatService struct {
	log           *logger.Logger
	conversations ConversationService
	answers       AnswerService
	pool          *workerpool.Pool
}

func NewChatService(
	log *logger.Logger,
	conversations ConversationService,
	answers AnswerService,
	pool *workerpool.Pool,
) ChatService {
	return &chatService{
		log:           log.With("service", "ChatService"),
		conversations: conversations,
		answers:       answers,
		pool:          pool,
	}
}

func (s *chatService) RecordCustomerMessage(ctx context.Context, conversationID uuid.UUID, text string) error {
	_, err := s.conversations.AddMessage(ctx, conversationID, types.SenderCustomer, text)
	return err
}

// GenerateReply runs answer generation on the worker pool, persists the reply
// and returns it. A degraded generation (provider failure with a usable
// fallback text) is logged and still replied; only errors with no text to
// send propagate to the caller.
func (s *chatService) GenerateReply(ctx context.Context, assistantID, conversationID uuid.UUID, query string) (string, error) {
	var reply string
	err := s.pool.Do(ctx, func(ctx context.Context) error {
		text, genErr := s.answers.Answer(ctx, assistantID, query)
		reply = text
		return genErr
	})
	if err != nil {
		if reply == "" || !errors.Is(err, ErrGenerationFailed) {
			return "", err
		}
		s.log.Error("Replying with fallback after generation failure",
			"assistant_id", assistantID,
			"conversation_id", conversationID,
			"error", err,
		)
	}

	if _, persistErr := s.conversations.AddMessage(ctx, conversationID, types.SenderAssistant, reply); persistErr != nil {
		return "", persistErr
	}
	return reply, nil
}
