package ai

import (
	"context"

	"smart-study-buddy/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.AnswerProvider = (*limitedAI)(nil)

type limitedAI struct {
	inner adapter.AnswerProvider
	sem   chan struct{}
}

// NewLimitedAI caps concurrent upstream calls; waiting callers honor ctx.
func NewLimitedAI(inner adapter.AnswerProvider, maxConcurrent int) adapter.AnswerProvider {
	if maxConcurrent <= 0 {
		return inner
	}
	return &limitedAI{
		inner: inner,
		sem:   make(chan struct{}, maxConcurrent),
	}
}

func (l *limitedAI) Name() string { return l.inner.Name() }

func (l *limitedAI) acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *limitedAI) Answer(ctx context.Context, prompt string) (string, adapter.Usage, error) {
	if err := l.acquire(ctx); err != nil {
		return "", adapter.Usage{}, err
	}
	defer func() { <-l.sem }()
	return l.inner.Answer(ctx, prompt)
}

func (l *limitedAI) Describe(ctx context.Context, prompt string, img adapter.Image) (string, error) {
	if err := l.acquire(ctx); err != nil {
		return "", err
	}
	defer func() { <-l.sem }()
	return l.inner.Describe(ctx, prompt, img)
}
