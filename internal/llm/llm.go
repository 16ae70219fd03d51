// Package llm is a thin chat-completion client over the OpenAI, Anthropic
// and Gemini SDKs. Models are addressed as "provider/model_name".
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
)

// DefaultMaxTokens bounds a completion when no WithMaxTokens option is given.
const DefaultMaxTokens = 2048

// ErrTruncated marks a completion that stopped at the token limit. Complete
// still returns the partial text alongside it.
var ErrTruncated = errors.New("completion truncated at token limit")

type Message struct {
	Role    Role
	Content string
}

type Client interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

type Option func(*clientOptions)

type clientOptions struct {
	baseURL   string
	maxTokens int64
}

func WithBaseURL(url string) Option {
	return func(o *clientOptions) {
		o.baseURL = url
	}
}

func WithMaxTokens(n int64) Option {
	return func(o *clientOptions) {
		if n > 0 {
			o.maxTokens = n
		}
	}
}

func ParseModel(model string) (provider, modelName string, err error) {
	parts := strings.SplitN(strings.TrimSpace(model), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid model format %q: expected provider/model_name", model)
	}
	return parts[0], parts[1], nil
}

// Supported reports whether provider has a client implementation.
func Supported(provider string) bool {
	switch provider {
	case ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return true
	}
	return false
}

func NewClient(provider, apiKey, model string, opts ...Option) (Client, error) {
	o := &clientOptions{maxTokens: DefaultMaxTokens}
	for _, opt := range opts {
		opt(o)
	}

	switch provider {
	case ProviderOpenAI:
		return newOpenAIClient(apiKey, model, o)
	case ProviderAnthropic:
		return newAnthropicClient(apiKey, model, o)
	case ProviderGemini:
		return newGeminiClient(apiKey, model, o)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q: supported providers are openai, anthropic, gemini", provider)
	}
}
