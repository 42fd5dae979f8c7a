package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"smart-study-buddy/internal/domain/ports/adapter"
)

var _ adapter.AnswerProvider = (*EchoAdapter)(nil)

// EchoAdapter is the offline provider used when no API key is configured.
type EchoAdapter struct {
	delay time.Duration
}

func NewEchoAdapter(delay time.Duration) *EchoAdapter {
	return &EchoAdapter{delay: delay}
}

func (a *EchoAdapter) Name() string { return "echo" }

func (a *EchoAdapter) Answer(ctx context.Context, prompt string) (string, adapter.Usage, error) {
	if err := a.wait(ctx); err != nil {
		return "", adapter.Usage{}, err
	}
	words := len(strings.Fields(prompt))
	text := fmt.Sprintf("(offline study buddy) You asked: %q\n\n"+
		"1. Restate the problem in your own words.\n"+
		"2. Break it into smaller steps.\n"+
		"3. Check each step against an example.", prompt)
	return text, adapter.Usage{PromptTokens: words, CompletionTokens: len(strings.Fields(text)), TotalTokens: words + len(strings.Fields(text))}, nil
}

func (a *EchoAdapter) Describe(ctx context.Context, prompt string, img adapter.Image) (string, error) {
	return "", ErrVisionUnsupported
}

func (a *EchoAdapter) wait(ctx context.Context) error {
	if a.delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(a.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
