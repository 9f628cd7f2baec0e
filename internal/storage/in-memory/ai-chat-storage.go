package in_memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iamvkosarev/mednote/internal/model"
)

type AIChatStorage struct {
	mu    sync.RWMutex
	chats map[uuid.UUID]*model.AIChat
	now   func() time.Time
}

func NewAIChatStorage() *AIChatStorage {
	return &AIChatStorage{
		chats: make(map[uuid.UUID]*model.AIChat),
		now:   time.Now,
	}
}

func (a *AIChatStorage) CreateChat(_ context.Context, chatCtx model.ChatContext, welcome string) (model.AIChat, error) {
	now := a.now().UTC()
	chat := model.AIChat{
		ChatID:    uuid.New(),
		Context:   chatCtx,
		Messages:  make([]model.ChatMessage, 0, 1),
		CreatedAt: now,
	}
	if welcome != "" {
		chat.Messages = append(chat.Messages, model.ChatMessage{
			ID:        uuid.New(),
			Source:    model.MessageSourceAssistant,
			Body:      welcome,
			CreatedAt: now,
		})
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.chats[chat.ChatID] = &chat
	return copyChat(chat), nil
}

func (a *AIChatStorage) GetChat(_ context.Context, chatID uuid.UUID) (model.AIChat, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	chat, ok := a.chats[chatID]
	if !ok {
		return model.AIChat{}, model.ErrChatDoesNotExist
	}
	return copyChat(*chat), nil
}

func (a *AIChatStorage) AddMessageToChat(
	_ context.Context,
	chatID uuid.UUID,
	messageText string,
	messageSource model.MessageSource,
) (model.ChatMessage, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	chat, ok := a.chats[chatID]
	if !ok {
		return model.ChatMessage{}, model.ErrChatDoesNotExist
	}
	msg := model.ChatMessage{
		ID:        uuid.New(),
		Source:    messageSource,
		Body:      messageText,
		CreatedAt: a.now().UTC(),
	}
	chat.Messages = append(chat.Messages, msg)
	return msg, nil
}

func (a *AIChatStorage) DeleteChat(_ context.Context, chatID uuid.UUID) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.chats, chatID)
	return nil
}

func copyChat(chat model.AIChat) model.AIChat {
	chat.Messages = append([]model.ChatMessage(nil), chat.Messages...)
	return chat
}
