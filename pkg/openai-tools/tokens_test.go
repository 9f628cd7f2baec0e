package openai_tools

import (
	"strings"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
)

func TestCountWith(t *testing.T) {
	words := func(s string) int { return len(strings.Fields(s)) }
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: "you are helpful"},
		{Role: openai.ChatMessageRoleUser, Content: "hello there", Name: "doctor"},
	}

	// 2 messages * 3 + content (3+2) + roles (1+1) + name (1+1) + priming 3
	assert.Equal(t, 18, countWith(words, messages))
	assert.Equal(t, 3, countWith(words, nil))
}
