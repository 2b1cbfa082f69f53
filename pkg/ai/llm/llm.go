// Package llm is the chat-completion port used for text drafting.
package llm

import (
	"context"
	"strings"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// LLM generates a reply for a conversation
type LLM interface {
	Chat(ctx context.Context, messages []Message, opts ...Option) (Response, error)
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type Response struct {
	Message Message
	Usage   Usage
}

// Text is the trimmed content of the reply
func (r Response) Text() string {
	return strings.TrimSpace(r.Message.Content)
}

func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content}
}

// ============================================================================
// Options
// ============================================================================

type ChatOptions struct {
	Model       string
	Temperature float32
	MaxTokens   int
	JSONMode    bool
	User        string
}

type Option func(*ChatOptions)

func WithModel(model string) Option {
	return func(o *ChatOptions) { o.Model = model }
}

func WithTemperature(temp float32) Option {
	return func(o *ChatOptions) { o.Temperature = temp }
}

func WithMaxTokens(tokens int) Option {
	return func(o *ChatOptions) { o.MaxTokens = tokens }
}

// WithJSONMode asks for a single JSON object as reply
func WithJSONMode() Option {
	return func(o *ChatOptions) { o.JSONMode = true }
}

// WithUser tags the request with the end user id
func WithUser(user string) Option {
	return func(o *ChatOptions) { o.User = user }
}

// Apply resolves opts over the defaults
func Apply(opts ...Option) *ChatOptions {
	o := &ChatOptions{Temperature: 0.7}
	for _, opt := range opts {
		opt(o)
	}
	return o
}
