package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/cortexa-labs/cortexa-backend/internal/logger"
	"github.com/cortexa-labs/cortexa-backend/internal/repos"
	"github.com/cortexa-labs/cortexa-backend/internal/types"
	"github.com/cortexa-labs/cortexa-backend/internal/vectorstore"
)

// Prompt templates substitute $language, $data (the customer's question) and
// $context (retrieved passages, with-context template only).
const (
	defaultPromptNoContext = "Answer the question in $language. Question: $data"

	defaultPromptWithContext = "Answer the question in $language using only the provided context.\n\nContext:\n$context\n\nQuestion: $data"
)

// AnswerService turns one customer question into one generated reply using
// the assistant's knowledge index.
type AnswerService interface {
	Answer(ctx context.Context, assistantID uuid.UUID, query string) (string, error)
}

type answerService struct {
	log        *logger.Logger
	assistants repos.AssistantRepo
	vectors    *vectorstore.Manager
	ai         AIClient
	k          int
}

func NewAnswerService(
	log *logger.Logger,
	assistants repos.AssistantRepo,
	vectors *vectorstore.Manager,
	ai AIClient,
	retrievalK int,
) AnswerService {
	if retrievalK < 1 {
		retrievalK = 4
	}
	return &answerService{
		log:        log.With("service", "AnswerService"),
		assistants: assistants,
		vectors:    vectors,
		ai:         ai,
		k:          retrievalK,
	}
}

// Answer retrieves against the assistant's index and generates a reply.
// No index at all yields the assistant's configured fallback text, a normal
// outcome. A provider failure returns the fallback text together with
// ErrGenerationFailed so the caller can still reply while logging the fault.
func (s *answerService) Answer(ctx context.Context, assistantID uuid.UUID, query string) (string, error) {
	assistant, err := s.assistants.GetByID(ctx, nil, assistantID)
	if err != nil {
		return "", fmt.Errorf("look up assistant: %w", err)
	}
	if assistant == nil {
		return "", ErrAssistantNotFound
	}
	cfg := assistant.Config()

	_, hasIndex, err := s.vectors.Dimension(assistantID)
	if err != nil {
		return "", err
	}
	if !hasIndex {
		s.log.Debug("No index for assistant, returning fallback", "assistant_id", assistantID)
		return cfg.MessageNoIdea, nil
	}

	queryVecs, err := s.ai.Embed(ctx, []string{query})
	if err != nil || len(queryVecs) != 1 {
		s.log.Error("Query embedding failed", "assistant_id", assistantID, "error", err)
		return cfg.MessageNoIdea, fmt.Errorf("%w: embed query: %v", ErrGenerationFailed, err)
	}

	matches, _, err := s.vectors.Search(assistantID, queryVecs[0], s.k)
	if err != nil {
		return cfg.MessageNoIdea, fmt.Errorf("%w: search index: %v", ErrGenerationFailed, err)
	}

	prompt := s.buildPrompt(cfg, query, matches)

	text, err := s.ai.GenerateText(ctx, "", prompt)
	if err != nil {
		s.log.Error("Answer generation failed", "assistant_id", assistantID, "error", err)
		return cfg.MessageNoIdea, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	return strings.TrimSpace(text), nil
}

// buildPrompt picks the template solely on whether any passages came back,
// never on a score threshold.
func (s *answerService) buildPrompt(cfg types.AssistantConfig, query string, matches []vectorstore.Match) string {
	if len(matches) == 0 {
		tmpl := cfg.PromptNoContext
		if strings.TrimSpace(tmpl) == "" {
			tmpl = defaultPromptNoContext
		}
		return strings.NewReplacer(
			"$language", cfg.Language,
			"$data", query,
		).Replace(tmpl)
	}

	parts := make([]string, len(matches))
	for i, m := range matches {
		parts[i] = m.Text
	}
	contextBlock := strings.Join(parts, "\n\n")

	tmpl := cfg.PromptWithContext
	if strings.TrimSpace(tmpl) == "" {
		tmpl = defaultPromptWithContext
	}
	return strings.NewReplacer(
		"$language", cfg.Language,
		"$data", query,
		"$context", contextBlock,
	).Replace(tmpl)
}
