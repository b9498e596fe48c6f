package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mockReply(t *testing.T, input string) *Result {
	t.Helper()
	result, err := NewMockResponder().Generate(context.Background(), []Turn{
		{Role: "user", Content: input},
	}, "")
	require.NoError(t, err)
	return result
}

func TestMockResponder_Triggers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"greeting", "hello there", "Hello! I am Chatty"},
		{"greeting short", "hi", "Hello! I am Chatty"},
		{"time", "what time is it", "It is currently"},
		{"code", "show me some code", "Here is a Python example"},
		{"javascript keyword", "explain javascript closures", "Here is a Python example"},
		{"identity", "who are you exactly?", "I am Chatty, a chatbot"},
		{"weather", "how is the weather", "can't check the real weather"},
		{"joke", "tell me a joke", "dark mode"},
		{"no match", "tell me about quantum entanglement", "I am an AI assistant. How can I help you?"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := mockReply(t, tt.input)
			assert.Contains(t, result.Content, tt.want)
		})
	}
}

func TestMockResponder_CaseInsensitive(t *testing.T) {
	result := mockReply(t, "HELLO THERE")
	assert.Contains(t, result.Content, "Hello! I am Chatty")
}

func TestMockResponder_FirstMatchWins(t *testing.T) {
	// Greeting is checked before joke, so a message containing both keywords
	// gets the greeting reply.
	result := mockReply(t, "hello, tell me a joke")
	assert.Contains(t, result.Content, "Hello! I am Chatty")
	assert.NotContains(t, result.Content, "dark mode")
}

func TestMockResponder_Metadata(t *testing.T) {
	result := mockReply(t, "anything at all")
	assert.Equal(t, MockModel, result.Model)
	assert.Equal(t, MockTokens, result.TokensUsed)
}

func TestMockResponder_MatchesLatestTurnOnly(t *testing.T) {
	result, err := NewMockResponder().Generate(context.Background(), []Turn{
		{Role: "user", Content: "tell me a joke"},
		{Role: "assistant", Content: "dark mode joke"},
		{Role: "user", Content: "what about the weather"},
	}, "")
	require.NoError(t, err)
	assert.Contains(t, result.Content, "weather")
	assert.False(t, strings.Contains(result.Content, "dark mode"))
}

func TestMockResponder_NoTurns(t *testing.T) {
	_, err := NewMockResponder().Generate(context.Background(), nil, "")
	assert.Error(t, err)
}
