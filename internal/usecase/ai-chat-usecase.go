package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/pkg/local"
	"github.com/iamvkosarev/mednote/pkg/logging"
)

type AiChatStorage interface {
	CreateChat(ctx context.Context, chatCtx model.ChatContext, welcome string) (model.AIChat, error)
	GetChat(ctx context.Context, chatID uuid.UUID) (model.AIChat, error)
	AddMessageToChat(
		ctx context.Context,
		chatID uuid.UUID,
		messageText string,
		messageSource model.MessageSource,
	) (model.ChatMessage, error)
	DeleteChat(ctx context.Context, chatID uuid.UUID) error
}

type AiChatUsecaseDeps struct {
	AiChatStorage AiChatStorage
	Assistant     ChatResponder
	Catalog       *local.Catalog
	Logger        *logging.Logger
}

type AiChatUsecase struct {
	AiChatUsecaseDeps

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewAiChatUsecase(deps AiChatUsecaseDeps) *AiChatUsecase {
	if deps.Logger == nil {
		deps.Logger = logging.Default()
	}
	if deps.Catalog == nil {
		deps.Catalog = local.NewCatalog(deps.Logger)
	}
	return &AiChatUsecase{
		AiChatUsecaseDeps: deps,
		inFlight:          make(map[uuid.UUID]struct{}),
	}
}

// Open starts a chat about a diagnosed consultation. The first message is
// an assistant greeting summarising the diagnosis.
func (a *AiChatUsecase) Open(ctx context.Context, chatCtx model.ChatContext, lang local.Language) (model.AIChat, error) {
	chatCtx.Result.Normalize()
	chat, err := a.AiChatStorage.CreateChat(ctx, chatCtx, a.welcomeMessage(chatCtx.Result, lang))
	if err != nil {
		return model.AIChat{}, fmt.Errorf("failed to create chat: %w", err)
	}
	a.Logger.Info("chat opened", "chat_id", chat.ChatID)
	return chat, nil
}

func (a *AiChatUsecase) GetChat(ctx context.Context, chatID uuid.UUID) (model.AIChat, error) {
	return a.AiChatStorage.GetChat(ctx, chatID)
}

// Send posts a user message and waits for the assistant reply. The history
// sent along is the transcript as it was before this message.
func (a *AiChatUsecase) Send(ctx context.Context, chatID uuid.UUID, text string) (model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ChatMessage{}, model.ErrEmptyMessage
	}
	if !a.acquire(chatID) {
		return model.ChatMessage{}, model.ErrChatBusy
	}
	defer a.release(chatID)

	chat, err := a.AiChatStorage.GetChat(ctx, chatID)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("failed to get chat %s: %w", chatID, err)
	}
	history := chat.Turns()

	if _, err = a.AiChatStorage.AddMessageToChat(ctx, chatID, text, model.MessageSourceUser); err != nil {
		return model.ChatMessage{}, fmt.Errorf("failed to add user message: %w", err)
	}

	reply, err := a.Assistant.Chat(ctx, text, chat.Context, history)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("failed to get chat reply: %w", err)
	}

	msg, err := a.AiChatStorage.AddMessageToChat(ctx, chatID, reply, model.MessageSourceAssistant)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("failed to add assistant message: %w", err)
	}
	return msg, nil
}

func (a *AiChatUsecase) Close(ctx context.Context, chatID uuid.UUID) error {
	if err := a.AiChatStorage.DeleteChat(ctx, chatID); err != nil {
		return fmt.Errorf("failed to delete chat %s: %w", chatID, err)
	}
	a.Logger.Info("chat closed", "chat_id", chatID)
	return nil
}

func (a *AiChatUsecase) welcomeMessage(result model.DiagnosisResult, lang local.Language) string {
	t := func(key string) string { return a.Catalog.Translate(key, lang) }

	exams := strings.Join(result.Exams, ", ")
	if exams == "" {
		exams = t(local.KeyNoExamsRecommended)
	}
	medications := strings.Join(result.Medications, ", ")
	if medications == "" {
		medications = t(local.KeyNoMedicationsRecommended)
	}

	var b strings.Builder
	b.WriteString(t(local.KeyChatWelcomeIntro))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s: %s\n", t(local.KeyChatWelcomeDiagnosis), result.Diagnosis)
	fmt.Fprintf(&b, "%s: %s\n", t(local.KeyChatWelcomeExams), exams)
	fmt.Fprintf(&b, "%s: %s\n\n", t(local.KeyChatWelcomeMedications), medications)
	b.WriteString(t(local.KeyChatWelcomeEnd))
	return b.String()
}

func (a *AiChatUsecase) acquire(chatID uuid.UUID) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, busy := a.inFlight[chatID]; busy {
		return false
	}
	a.inFlight[chatID] = struct{}{}
	return true
}

func (a *AiChatUsecase) release(chatID uuid.UUID) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inFlight, chatID)
}
