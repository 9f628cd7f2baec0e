package key_value

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iamvkosarev/mednote/internal/model"
)

type messageInternal struct {
	ID        string              `json:"id"`
	Source    model.MessageSource `json:"source"`
	Body      string              `json:"body"`
	CreatedAt time.Time           `json:"created_at"`
}

type chatInternal struct {
	ChatID     string                `json:"chat_id"`
	Transcript string                `json:"transcript"`
	Result     model.DiagnosisResult `json:"result"`
	Messages   []messageInternal     `json:"messages"`
	CreatedAt  time.Time             `json:"created_at"`
}

// AIChatStorage keeps chat sessions as JSON documents. Every write renews
// the idle TTL; a zero TTL keeps chats until they are deleted.
type AIChatStorage struct {
	rdb     *redis.Client
	idleTTL time.Duration
	now     func() time.Time
}

func NewAIChatStorage(rdb *redis.Client, idleTTL time.Duration) *AIChatStorage {
	return &AIChatStorage{
		rdb:     rdb,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

func (a *AIChatStorage) CreateChat(ctx context.Context, chatCtx model.ChatContext, welcome string) (model.AIChat, error) {
	chatID := uuid.New()
	now := a.now().UTC()
	chatInt := chatInternal{
		ChatID:     chatID.String(),
		Transcript: chatCtx.Transcript,
		Result:     chatCtx.Result,
		Messages:   make([]messageInternal, 0, 1),
		CreatedAt:  now,
	}
	if welcome != "" {
		chatInt.Messages = append(chatInt.Messages, messageInternal{
			ID:        uuid.NewString(),
			Source:    model.MessageSourceAssistant,
			Body:      welcome,
			CreatedAt: now,
		})
	}
	if err := a.setChatInt(ctx, chatID, chatInt); err != nil {
		return model.AIChat{}, fmt.Errorf("failed to set chat internal %s: %w", chatID.String(), err)
	}
	return chatInt.chat(chatID)
}

func (a *AIChatStorage) GetChat(ctx context.Context, chatID uuid.UUID) (model.AIChat, error) {
	chatInt, err := a.getChatInt(ctx, chatID)
	if err != nil {
		return model.AIChat{}, err
	}
	return chatInt.chat(chatID)
}

func (a *AIChatStorage) AddMessageToChat(
	ctx context.Context,
	chatID uuid.UUID,
	messageText string,
	messageSource model.MessageSource,
) (model.ChatMessage, error) {
	chatInt, err := a.getChatInt(ctx, chatID)
	if err != nil {
		return model.ChatMessage{}, err
	}
	msgInt := messageInternal{
		ID:        uuid.NewString(),
		Source:    messageSource,
		Body:      messageText,
		CreatedAt: a.now().UTC(),
	}
	chatInt.Messages = append(chatInt.Messages, msgInt)
	if err = a.setChatInt(ctx, chatID, chatInt); err != nil {
		return model.ChatMessage{}, fmt.Errorf("failed to set internal chat %s: %w", chatID.String(), err)
	}
	return msgInt.message()
}

func (a *AIChatStorage) DeleteChat(ctx context.Context, chatID uuid.UUID) error {
	if err := a.rdb.Del(ctx, getChatIDKey(chatID)).Err(); err != nil {
		return fmt.Errorf("failed to delete chat %s: %w", chatID, err)
	}
	return nil
}

func (a *AIChatStorage) getChatInt(ctx context.Context, chatID uuid.UUID) (chatInternal, error) {
	chatIDKey := getChatIDKey(chatID)
	chatIntRaw, err := a.rdb.Get(ctx, chatIDKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return chatInternal{}, model.ErrChatDoesNotExist
		}
		return chatInternal{}, fmt.Errorf("failed to get chat %s: %w", chatID, err)
	}
	var chatInt chatInternal
	if err = json.Unmarshal([]byte(chatIntRaw), &chatInt); err != nil {
		return chatInternal{}, fmt.Errorf("failed to unmarshal chat %s: %w", chatID, err)
	}
	return chatInt, nil
}

func (a *AIChatStorage) setChatInt(ctx context.Context, chatID uuid.UUID, chatInt chatInternal) error {
	chatIDKey := getChatIDKey(chatID)
	chatIntJSON, err := json.Marshal(chatInt)
	if err != nil {
		return fmt.Errorf("failed to marshal internal chat: %w", err)
	}
	if err = a.rdb.Set(ctx, chatIDKey, chatIntJSON, a.idleTTL).Err(); err != nil {
		return fmt.Errorf("failed to save chatInternal %s: %w", chatIDKey, err)
	}
	return nil
}

func (c chatInternal) chat(chatID uuid.UUID) (model.AIChat, error) {
	messages := make([]model.ChatMessage, 0, len(c.Messages))
	for _, msgInt := range c.Messages {
		msg, err := msgInt.message()
		if err != nil {
			return model.AIChat{}, fmt.Errorf("failed to parse chat %s: %w", chatID, err)
		}
		messages = append(messages, msg)
	}
	result := c.Result
	result.Normalize()
	return model.AIChat{
		ChatID: chatID,
		Context: model.ChatContext{
			Transcript: c.Transcript,
			Result:     result,
		},
		Messages:  messages,
		CreatedAt: c.CreatedAt,
	}, nil
}

func (m messageInternal) message() (model.ChatMessage, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("failed to parse message id %s: %w", m.ID, err)
	}
	return model.ChatMessage{
		ID:        id,
		Source:    m.Source,
		Body:      m.Body,
		CreatedAt: m.CreatedAt,
	}, nil
}

func getChatIDKey(chatID uuid.UUID) string {
	return fmt.Sprintf("chat_%v", chatID.String())
}
