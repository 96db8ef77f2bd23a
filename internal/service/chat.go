package service

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"solo-rising/internal/llm"
	"solo-rising/internal/model"
)

// MaxChatMessage is the longest accepted chat message in characters.
const MaxChatMessage = 2000

// ChatService proxies persona-themed chat to the configured model.
type ChatService struct {
	llm      llm.LLM
	profiles *ProfileService
}

// NewChatService creates a new ChatService instance. profiles is optional
// and only used to default the persona to the user's character.
func NewChatService(client llm.LLM, profiles *ProfileService) *ChatService {
	return &ChatService{llm: client, profiles: profiles}
}

// Reply answers message in the voice of character. Unknown or empty
// characters fall back to the user's own character, then to the neutral
// coach.
func (s *ChatService) Reply(ctx context.Context, userID int64, message, character string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(message) > MaxChatMessage {
		return "", ErrMessageTooLong
	}
	if s.llm == nil {
		return "", fmt.Errorf("%w: no provider configured", ErrChatUnavailable)
	}

	if _, ok := model.LookupCharacter(character); !ok && s.profiles != nil {
		if user, err := s.profiles.GetLedger(ctx, userID); err == nil && user.CharacterType != nil {
			character = *user.CharacterType
		}
	}

	reply, err := s.llm.Chat(ctx, model.SystemPromptFor(character), message)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", userID).Msg("Chat provider failed")
		return "", fmt.Errorf("%w: %w", ErrChatUnavailable, err)
	}
	return reply, nil
}
