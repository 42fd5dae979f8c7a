package ai_test

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"smart-study-buddy/internal/domain/ports/adapter"
	ai "smart-study-buddy/internal/infra/adapters/ai"
)

type stubAI struct {
	name      string
	err       error
	answerN   int
	describeN int
	vision    bool
}

func (s *stubAI) Name() string { return s.name }

func (s *stubAI) Answer(ctx context.Context, prompt string) (string, adapter.Usage, error) {
	s.answerN++
	if s.err != nil {
		return "", adapter.Usage{}, s.err
	}
	return s.name + ":" + prompt, adapter.Usage{PromptTokens: 1, CompletionTokens: 1}, nil
}

func (s *stubAI) Describe(ctx context.Context, prompt string, img adapter.Image) (string, error) {
	s.describeN++
	if !s.vision {
		return "", ai.ErrVisionUnsupported
	}
	if s.err != nil {
		return "", s.err
	}
	return `{"result":"` + s.name + `"}`, nil
}

func TestMulti_PreferredFirstThenFallback(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	open := &stubAI{name: "openai", err: errors.New("429")}
	gem := &stubAI{name: "gemini"}

	m := ai.NewMultiAIAdapter("openai", []adapter.AnswerProvider{gem, open, nil}, nil)
	if m.Name() != "openai" {
		t.Fatalf("preferred provider should lead, got %s", m.Name())
	}
	got, _, err := m.Answer(ctx, "q")
	if err != nil || got != "gemini:q" {
		t.Fatalf("Answer = %q, %v", got, err)
	}
	if open.answerN != 1 || gem.answerN != 1 {
		t.Fatalf("calls open:%d gem:%d", open.answerN, gem.answerN)
	}
}

func TestMulti_AllFail(t *testing.T) {
	t.Parallel()
	m := ai.NewMultiAIAdapter("x", []adapter.AnswerProvider{
		&stubAI{name: "a", err: errors.New("down")},
		&stubAI{name: "b", err: errors.New("quota")},
	}, nil)
	_, _, err := m.Answer(context.Background(), "q")
	if err == nil || !strings.Contains(err.Error(), "down") || !strings.Contains(err.Error(), "quota") {
		t.Fatalf("expected joined errors, got %v", err)
	}
	if _, _, err := ai.NewMultiAIAdapter("", nil, nil).Answer(context.Background(), "q"); err == nil {
		t.Fatal("empty chain should fail")
	}
}

func TestMulti_DescribeSkipsTextOnly(t *testing.T) {
	t.Parallel()
	echo := &stubAI{name: "echo"}
	gem := &stubAI{name: "gemini", vision: true}
	m := ai.NewMultiAIAdapter("echo", []adapter.AnswerProvider{echo, gem}, nil)
	out, err := m.Describe(context.Background(), "solve", adapter.Image{MIMEType: "image/png", Data: []byte{1}})
	if err != nil || out != `{"result":"gemini"}` {
		t.Fatalf("Describe = %q, %v", out, err)
	}

	textOnly := ai.NewMultiAIAdapter("echo", []adapter.AnswerProvider{ai.NewEchoAdapter(0)}, nil)
	if _, err := textOnly.Describe(context.Background(), "solve", adapter.Image{}); !errors.Is(err, ai.ErrVisionUnsupported) {
		t.Fatalf("expected ErrVisionUnsupported, got %v", err)
	}
}

func TestEcho_Answer(t *testing.T) {
	t.Parallel()
	text, u, err := ai.NewEchoAdapter(0).Answer(context.Background(), "what is a prime")
	if err != nil || !strings.Contains(text, "what is a prime") || u.PromptTokens != 4 {
		t.Fatalf("Answer = %q, %+v, %v", text, u, err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := ai.NewEchoAdapter(time.Second).Answer(ctx, "q"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

type blockingAI struct {
	stubAI
	active, peak int32
	release      chan struct{}
}

func (b *blockingAI) Answer(ctx context.Context, prompt string) (string, adapter.Usage, error) {
	n := atomic.AddInt32(&b.active, 1)
	for {
		p := atomic.LoadInt32(&b.peak)
		if n <= p || atomic.CompareAndSwapInt32(&b.peak, p, n) {
			break
		}
	}
	<-b.release
	atomic.AddInt32(&b.active, -1)
	return "ok", adapter.Usage{}, nil
}

func TestLimitedAI_CapsConcurrency(t *testing.T) {
	t.Parallel()
	inner := &blockingAI{stubAI: stubAI{name: "b"}, release: make(chan struct{})}
	l := ai.NewLimitedAI(inner, 2)
	if l.Name() != "b" {
		t.Fatalf("Name = %s", l.Name())
	}

	done := make(chan struct{}, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, _, _ = l.Answer(context.Background(), "q")
			done <- struct{}{}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(inner.release)
	for i := 0; i < 4; i++ {
		<-done
	}
	if p := atomic.LoadInt32(&inner.peak); p > 2 {
		t.Fatalf("peak concurrency = %d", p)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hold := &blockingAI{release: make(chan struct{})}
	t.Cleanup(func() { close(hold.release) })
	full := ai.NewLimitedAI(hold, 1)
	go func() { _, _, _ = full.Answer(context.Background(), "hold") }()
	time.Sleep(20 * time.Millisecond)
	if _, _, err := full.Answer(ctx, "q"); !errors.Is(err, context.Canceled) {
		t.Fatalf("waiting caller should honor ctx, got %v", err)
	}
}
