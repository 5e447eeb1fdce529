package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
	"github.com/cortexa-labs/cortexa-backend/internal/repos"
	"github.com/cortexa-labs/cortexa-backend/internal/types"
)

// ConversationService persists conversations and their append-only message
// history.
type ConversationService interface {
	Create(ctx context.Context, assistantID uuid.UUID, customerID, customerName, customerEmail string) (*types.Conversation, error)
	AddMessage(ctx context.Context, conversationID uuid.UUID, sender, content string) (*types.Message, error)
	Messages(ctx context.Context, conversationID uuid.UUID) ([]*types.Message, error)
	ListByAssistant(ctx context.Context, assistantID uuid.UUID) ([]*types.Conversation, error)
	Finalize(ctx context.Context, conversationID uuid.UUID) (*types.Conversation, error)
}

type conversationService struct {
	log           *logger.Logger
	assistants    repos.AssistantRepo
	conversations repos.ConversationRepo
	messages      repos.MessageRepo
}

func NewConversationService(
	log *logger.Logger,
	assistants repos.AssistantRepo,
	conversations repos.ConversationRepo,
	messages repos.MessageRepo,
) ConversationService {
	return &conversationService{
		log:           log.With("service", "ConversationService"),
		assistants:    assistants,
		conversations: conversations,
		messages:      messages,
	}
}

func (s *conversationService) Create(ctx context.Context, assistantID uuid.UUID, customerID, customerName, customerEmail string) (*types.Conversation, error) {
	assistant, err := s.assistants.GetByID(ctx, nil, assistantID)
	if err != nil {
		return nil, fmt.Errorf("look up assistant: %w", err)
	}
	if assistant == nil {
		return nil, ErrAssistantNotFound
	}

	conversation := &types.Conversation{
		ID:            uuid.New(),
		AssistantID:   assistantID,
		CustomerID:    customerID,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		CreatedAt:     time.Now().UTC(),
	}
	if _, err := s.conversations.Create(ctx, nil, conversation); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	s.log.Info("Conversation created",
		"conversation_id", conversation.ID,
		"assistant_id", assistantID,
		"customer_id", customerID,
	)
	return conversation, nil
}

func (s *conversationService) AddMessage(ctx context.Context, conversationID uuid.UUID, sender, content string) (*types.Message, error) {
	message := &types.Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		Sender:         sender,
		Content:        content,
		Timestamp:      time.Now().UTC(),
	}
	if _, err := s.messages.Create(ctx, nil, message); err != nil {
		return nil, fmt.Errorf("persist message: %w", err)
	}
	return message, nil
}

func (s *conversationService) Messages(ctx context.Context, conversationID uuid.UUID) ([]*types.Message, error) {
	conversation, err := s.conversations.GetByID(ctx, nil, conversationID)
	if err != nil {
		return nil, fmt.Errorf("look up conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}
	return s.messages.ListByConversation(ctx, nil, conversationID)
}

func (s *conversationService) ListByAssistant(ctx context.Context, assistantID uuid.UUID) ([]*types.Conversation, error) {
	return s.conversations.ListByAssistant(ctx, nil, assistantID)
}

// Finalize marks a conversation completed exactly once. It rejects
// conversations with no messages and ones already finalized.
func (s *conversationService) Finalize(ctx context.Context, conversationID uuid.UUID) (*types.Conversation, error) {
	conversation, err := s.conversations.GetByID(ctx, nil, conversationID)
	if err != nil {
		return nil, fmt.Errorf("look up conversation: %w", err)
	}
	if conversation == nil {
		return nil, ErrConversationNotFound
	}
	if conversation.Completed {
		return nil, ErrAlreadyFinalized
	}

	count, err := s.messages.CountByConversation(ctx, nil, conversationID)
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}
	if count == 0 {
		return nil, ErrNoMessages
	}

	now := time.Now().UTC()
	if err := s.conversations.MarkCompleted(ctx, nil, conversationID, now); err != nil {
		return nil, fmt.Errorf("mark completed: %w", err)
	}
	conversation.Completed = true
	conversation.CompletedAt = &now

	s.log.Info("Conversation finalized", "conversation_id", conversationID, "messages", count)
	return conversation, nil
}
