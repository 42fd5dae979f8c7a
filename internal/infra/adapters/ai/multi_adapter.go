// File: internal/infra/adapters/ai/multi_adapter.go
package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"smart-study-buddy/internal/domain/ports/adapter"
	"smart-study-buddy/internal/infra/logging"
)

// ErrVisionUnsupported is returned by providers that cannot read documents.
var ErrVisionUnsupported = errors.New("provider cannot read images")

const studySystemPrompt = "You are a patient study buddy for students. " +
	"Explain step by step, keep answers short, and answer in the language of the question."

var _ adapter.AnswerProvider = (*MultiAIAdapter)(nil)

// MultiAIAdapter tries the preferred provider first and falls back to the
// others in registration order when it fails.
type MultiAIAdapter struct {
	order []adapter.AnswerProvider
	log   *zerolog.Logger
}

// NewMultiAIAdapter puts preferred (by Name) at the front; nil providers are skipped.
func NewMultiAIAdapter(preferred string, providers []adapter.AnswerProvider, log *zerolog.Logger) *MultiAIAdapter {
	if log == nil {
		log = logging.Nop()
	}
	preferred = strings.ToLower(preferred)
	var head, tail []adapter.AnswerProvider
	for _, p := range providers {
		if p == nil {
			continue
		}
		if p.Name() == preferred && len(head) == 0 {
			head = append(head, p)
			continue
		}
		tail = append(tail, p)
	}
	return &MultiAIAdapter{order: append(head, tail...), log: log}
}

func (m *MultiAIAdapter) Name() string {
	if len(m.order) == 0 {
		return "none"
	}
	return m.order[0].Name()
}

func (m *MultiAIAdapter) Answer(ctx context.Context, prompt string) (string, adapter.Usage, error) {
	var errs []error
	for _, p := range m.order {
		text, u, err := p.Answer(ctx, prompt)
		if err == nil {
			return text, u, nil
		}
		m.log.Warn().Str("provider", p.Name()).Err(err).Msg("answer failed, trying next provider")
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return "", adapter.Usage{}, errors.New("no answer provider configured")
	}
	return "", adapter.Usage{}, errors.Join(errs...)
}

// Describe only consults providers that can read documents.
func (m *MultiAIAdapter) Describe(ctx context.Context, prompt string, img adapter.Image) (string, error) {
	var errs []error
	for _, p := range m.order {
		text, err := p.Describe(ctx, prompt, img)
		if err == nil {
			return text, nil
		}
		if !errors.Is(err, ErrVisionUnsupported) {
			m.log.Warn().Str("provider", p.Name()).Err(err).Msg("describe failed, trying next provider")
		}
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return "", ErrVisionUnsupported
	}
	return "", errors.Join(errs...)
}
