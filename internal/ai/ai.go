package ai

import "context"

// Turn is one role-tagged message in a conversation, oldest first when
// passed as a slice.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Result carries the generated text plus whatever usage metadata the
// provider reported. TokensUsed of zero means "unknown", not "free".
type Result struct {
	Content    string `json:"content"`
	TokensUsed int    `json:"tokens_used"`
	Model      string `json:"model"`
}

// Generator produces an assistant reply for an ordered turn sequence. The
// final turn is the live user message; earlier turns are prior context.
type Generator interface {
	Generate(ctx context.Context, turns []Turn, systemPrompt string) (*Result, error)
}
