package ai

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// MockModel is the model identifier stamped on every mock reply. It is the
// only signal stored alongside a message that a real generation did not
// happen.
const MockModel = "mock-v1"

// MockTokens is the nominal token count reported for mock replies.
const MockTokens = 50

type trigger struct {
	keywords []string
	reply    func() string
}

// MockResponder substitutes for the Gemini gateway when it is disabled or
// errors. Replies are keyword-matched against the lowercased latest turn;
// triggers are checked in order and the first match wins.
type MockResponder struct {
	triggers []trigger
	now      func() time.Time
}

func NewMockResponder() *MockResponder {
	r := &MockResponder{now: time.Now}
	r.triggers = []trigger{
		{keywords: []string{"hello", "hi"}, reply: func() string {
			return "Hello! I am Chatty, your intelligent assistant. I can help you with coding, general questions, or just have a chat. How can I help you today?"
		}},
		{keywords: []string{"time"}, reply: func() string {
			return fmt.Sprintf("It is currently %s. Time flies when you're coding!", r.now().Format("3:04:05 PM"))
		}},
		{keywords: []string{"code", "javascript", "python"}, reply: func() string {
			return "Here is a Python example for you:\n\n```python\ndef fibonacci(n):\n    if n <= 1:\n        return n\n    return fibonacci(n-1) + fibonacci(n-2)\n\nprint(fibonacci(10))\n```\n\nAnd a JavaScript one:\n```javascript\nconst greet = (name) => `Hello, ${name}!`;\nconsole.log(greet('Developer'));\n```"
		}},
		{keywords: []string{"who are you"}, reply: func() string {
			return "I am Chatty, a chatbot backend written in Go. I am normally connected to the Gemini API, but if you are seeing this, I might be in fallback mode."
		}},
		{keywords: []string{"weather"}, reply: func() string {
			return "I can't check the real weather right now, but I hope it's sunny where you are!"
		}},
		{keywords: []string{"joke"}, reply: func() string {
			return "Why do programmers prefer dark mode? Because light attracts bugs!"
		}},
	}
	return r
}

func (r *MockResponder) Generate(_ context.Context, turns []Turn, _ string) (*Result, error) {
	if len(turns) == 0 {
		return nil, fmt.Errorf("no turns provided")
	}

	latest := strings.ToLower(turns[len(turns)-1].Content)
	reply := "I am an AI assistant. How can I help you?"
	for _, t := range r.triggers {
		if matchesAny(latest, t.keywords) {
			reply = t.reply()
			break
		}
	}

	return &Result{
		Content:    reply,
		TokensUsed: MockTokens,
		Model:      MockModel,
	}, nil
}

func matchesAny(input string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(input, kw) {
			return true
		}
	}
	return false
}
