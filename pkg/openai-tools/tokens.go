package openai_tools

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
	"github.com/sashabaranov/go-openai"
)

const fallbackEncoding = "cl100k_base"

// CountToken estimates the prompt size of messages for the given model.
func CountToken(messages []openai.ChatCompletionMessage, model string) (int, error) {
	tkm, err := tiktoken.EncodingForModel(model)
	if err != nil {
		tkm, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return 0, fmt.Errorf("failed to get encoding for model %s: %w", model, err)
		}
	}
	return countWith(func(s string) int { return len(tkm.Encode(s, nil, nil)) }, messages), nil
}

func countWith(encode func(string) int, messages []openai.ChatCompletionMessage) int {
	const (
		tokensPerMessage = 3
		tokensPerName    = 1
		replyPriming     = 3
	)
	numTokens := 0
	for _, message := range messages {
		numTokens += tokensPerMessage
		numTokens += encode(message.Content)
		numTokens += encode(message.Role)
		if message.Name != "" {
			numTokens += encode(message.Name) + tokensPerName
		}
	}
	return numTokens + replyPriming
}
