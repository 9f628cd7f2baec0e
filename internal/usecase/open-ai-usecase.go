package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/iamvkosarev/mednote/config"
	"github.com/iamvkosarev/mednote/internal/model"
	"github.com/iamvkosarev/mednote/pkg/local"
	"github.com/iamvkosarev/mednote/pkg/logging"
	openai_tools "github.com/iamvkosarev/mednote/pkg/openai-tools"
)

const (
	OpenAIRoleUser      = openai.ChatMessageRoleUser
	OpenAIRoleAssistant = openai.ChatMessageRoleAssistant
	OpenAIRoleSystem    = openai.ChatMessageRoleSystem

	defaultMaxHistoryTokens = 3500
)

const diagnosisPrompt = `You are a medical assistant helping a doctor with a preliminary analysis of a consultation transcript.
Answer in %s. Reply with a single JSON object and nothing else, using exactly these fields:
{"diagnosis": string, "diseases": [string], "exams": [string], "medications": [string],
 "explanation": {"reasoning": string, "confidence": number between 0 and 1, "keySymptoms": [string],
 "differentialDiagnoses": [string], "recommendationBasis": string}}`

const chatPrompt = `You are a medical assistant answering follow-up questions about one consultation.
Answer in %s, briefly, and remind the user to confirm with a doctor when relevant.
Transcript: %s
Diagnosis: %s
Possible conditions: %s
Suggested tests: %s
Medications: %s`

type tokenCounter func(messages []openai.ChatCompletionMessage, model string) (int, error)

// OpenAIUsecase talks to OpenAI directly instead of going through the
// MedNote backend.
type OpenAIUsecase struct {
	cfg        config.OpenAI
	client     *openai.Client
	logger     *logging.Logger
	countToken tokenCounter
}

func NewOpenAIUsecase(cfg config.OpenAI, logger *logging.Logger) *OpenAIUsecase {
	clientConfig := openai.DefaultConfig(cfg.OpenAIAPIKey)
	if cfg.OpenAIBaseURL != "" {
		clientConfig.BaseURL = cfg.OpenAIBaseURL
	}
	if cfg.OpenAIModel == "" {
		cfg.OpenAIModel = openai.GPT3Dot5Turbo
	}
	if cfg.TranscriptionModel == "" {
		cfg.TranscriptionModel = openai.Whisper1
	}
	if cfg.MaxHistoryTokens <= 0 {
		cfg.MaxHistoryTokens = defaultMaxHistoryTokens
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &OpenAIUsecase{
		cfg:        cfg,
		client:     openai.NewClientWithConfig(clientConfig),
		logger:     logger,
		countToken: openai_tools.CountToken,
	}
}

func (gpt *OpenAIUsecase) Transcribe(ctx context.Context, audio model.Audio) (string, error) {
	if len(audio.Data) == 0 {
		return "", model.ErrEmptyAudio
	}
	fileName := audio.FileName
	if fileName == "" {
		fileName = "recording." + model.AudioExtension(audio.MIMEType)
	}
	resp, err := gpt.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    gpt.cfg.TranscriptionModel,
		FilePath: fileName,
		Reader:   bytes.NewReader(audio.Data),
	})
	if err != nil {
		return "", openAIError(err, "failed to transcribe audio")
	}
	return strings.TrimSpace(resp.Text), nil
}

func (gpt *OpenAIUsecase) Diagnose(ctx context.Context, transcript string) (model.DiagnosisResult, error) {
	lang := local.DetectLanguage(transcript, local.Primary)
	resp, err := gpt.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       gpt.cfg.OpenAIModel,
		Temperature: gpt.cfg.ModelTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: OpenAIRoleSystem, Content: fmt.Sprintf(diagnosisPrompt, languageName(lang))},
			{Role: OpenAIRoleUser, Content: transcript},
		},
	})
	if err != nil {
		return model.DiagnosisResult{}, openAIError(err, "failed to analyze symptoms")
	}
	if len(resp.Choices) == 0 {
		return model.DiagnosisResult{}, &model.BackendError{Status: 200, Message: "empty completion"}
	}

	var result model.DiagnosisResult
	content := stripCodeFence(resp.Choices[0].Message.Content)
	if err = json.Unmarshal([]byte(content), &result); err != nil {
		return model.DiagnosisResult{}, fmt.Errorf("failed to parse diagnosis: %w", err)
	}
	result.Language = string(lang)
	result.Normalize()
	return result, nil
}

func (gpt *OpenAIUsecase) Chat(
	ctx context.Context,
	message string,
	chatCtx model.ChatContext,
	history []model.ChatTurn,
) (string, error) {
	return gpt.ChatStream(ctx, message, chatCtx, history, nil)
}

// ChatStream is Chat with the partial answer passed to onDelta as it grows.
func (gpt *OpenAIUsecase) ChatStream(
	ctx context.Context,
	message string,
	chatCtx model.ChatContext,
	history []model.ChatTurn,
	onDelta func(answer string),
) (string, error) {
	messageHistory := gpt.chatMessages(message, chatCtx, history)

	req := openai.ChatCompletionRequest{
		Model:       gpt.cfg.OpenAIModel,
		Temperature: gpt.cfg.ModelTemperature,
		TopP:        1,
		N:           1,
		Messages:    messageHistory,
		Stream:      true,
	}
	stream, err := gpt.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", openAIError(err, "failed to send chat message")
	}
	defer stream.Close()

	var answer strings.Builder
	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", openAIError(err, "chat stream failed")
		}
		if len(response.Choices) == 0 {
			continue
		}
		answer.WriteString(response.Choices[0].Delta.Content)
		if onDelta != nil {
			onDelta(answer.String())
		}
	}
	return answer.String(), nil
}

// chatMessages builds the prompt: system context, history trimmed from the
// oldest turn until it fits the token budget, then the new message.
func (gpt *OpenAIUsecase) chatMessages(
	message string,
	chatCtx model.ChatContext,
	history []model.ChatTurn,
) []openai.ChatCompletionMessage {
	result := chatCtx.Result
	lang := local.ParseLanguage(result.Language)
	if result.Language == "" {
		lang = local.DetectLanguage(message, local.Primary)
	}
	system := openai.ChatCompletionMessage{
		Role: OpenAIRoleSystem,
		Content: fmt.Sprintf(
			chatPrompt,
			languageName(lang),
			chatCtx.Transcript,
			result.Diagnosis,
			strings.Join(result.Diseases, ", "),
			strings.Join(result.Exams, ", "),
			strings.Join(result.Medications, ", "),
		),
	}

	turns := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, turn := range history {
		turns = append(turns, openai.ChatCompletionMessage{
			Role:    parseMessageSourceToRole(turn.Role),
			Content: turn.Content,
		})
	}
	userMessage := openai.ChatCompletionMessage{Role: OpenAIRoleUser, Content: message}

	build := func() []openai.ChatCompletionMessage {
		messages := make([]openai.ChatCompletionMessage, 0, len(turns)+2)
		messages = append(messages, system)
		messages = append(messages, turns...)
		return append(messages, userMessage)
	}
	for len(turns) > 0 {
		tokenCount, err := gpt.countToken(build(), gpt.cfg.OpenAIModel)
		if err != nil {
			gpt.logger.Warn("failed to count tokens, trimming history", "error", err)
			turns = turns[1:]
			continue
		}
		if tokenCount < gpt.cfg.MaxHistoryTokens {
			break
		}
		turns = turns[1:]
		gpt.logger.Debug("history trimmed due to token limit", "turns_left", len(turns))
	}
	return build()
}

func parseMessageSourceToRole(source model.MessageSource) string {
	switch source {
	case model.MessageSourceUser:
		return OpenAIRoleUser
	default:
		return OpenAIRoleAssistant
	}
}

func languageName(lang local.Language) string {
	if lang == local.Eng {
		return "English"
	}
	return "Brazilian Portuguese"
}

func stripCodeFence(content string) string {
	content = strings.TrimSpace(content)
	if !strings.HasPrefix(content, "```") {
		return content
	}
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	return strings.TrimSpace(content)
}

// openAIError maps client errors onto the same error kinds the backend
// client produces.
func openAIError(err error, message string) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &model.BackendError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &model.BackendError{Status: reqErr.HTTPStatusCode, Message: message}
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return &model.ConnectivityError{Message: message, Err: err}
}
