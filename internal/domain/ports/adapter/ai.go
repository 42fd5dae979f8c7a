package adapter

import "context"

// Usage for a single answer call.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// Image is an inline document handed to a vision-capable provider.
type Image struct {
	MIMEType string
	Data     []byte
}

// AnswerProvider is the port the local dev server uses to produce answers.
type AnswerProvider interface {
	Name() string

	// Answer returns the assistant text for a single prompt.
	Answer(ctx context.Context, prompt string) (string, Usage, error)

	// Describe runs a prompt against an image and returns the raw model text.
	Describe(ctx context.Context, prompt string, img Image) (string, error)
}
