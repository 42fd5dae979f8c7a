package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"smart-study-buddy/internal/domain/model"
	"smart-study-buddy/internal/domain/ports/adapter"
	"smart-study-buddy/internal/infra/logging"
	"smart-study-buddy/internal/infra/metrics"
	"smart-study-buddy/internal/usecase"
)

// Renderer turns a terminal transcript entry into chat text.
type Renderer func(m model.Message) string

// ExchangeProcessor runs accepted exchanges and uploads on the pool and
// delivers the terminal message back to the chat.
type ExchangeProcessor struct {
	pool    *Pool
	bot     adapter.ChatReplier
	render  Renderer
	timeout time.Duration
	log     *zerolog.Logger
}

func NewExchangeProcessor(pool *Pool, bot adapter.ChatReplier, render Renderer, timeout time.Duration, log *zerolog.Logger) *ExchangeProcessor {
	if log == nil {
		log = logging.Nop()
	}
	return &ExchangeProcessor{pool: pool, bot: bot, render: render, timeout: timeout, log: log}
}

// EnqueueExchange hands the exchange to the pool. When the queue is full the
// exchange is completed immediately with the queue error so pending never sticks.
func (p *ExchangeProcessor) EnqueueExchange(chatID int64, s *usecase.Session, ex *usecase.Exchange) error {
	err := p.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := p.withTimeout(ctx)
		defer cancel()
		ctx = logging.WithChatID(logging.WithSessID(ctx, s.ID()), chatID)

		start := time.Now()
		m := s.Dispatch(ctx, ex)
		p.finish(ctx, chatID, "exchange", m, time.Since(start))
		return nil
	})
	if err != nil {
		metrics.IncJob("exchange", "dropped")
		if m, ok := s.Complete(ex.Fail(err)); ok {
			p.deliver(context.Background(), chatID, m)
		}
		p.log.Warn().Err(err).Int64("chat_id", chatID).Msg("exchange dropped")
	}
	return err
}

// EnqueueUpload is EnqueueExchange for the solve path.
func (p *ExchangeProcessor) EnqueueUpload(chatID int64, s *usecase.Session, job *usecase.UploadJob) error {
	err := p.pool.Submit(func(ctx context.Context) error {
		ctx, cancel := p.withTimeout(ctx)
		defer cancel()
		ctx = logging.WithChatID(logging.WithSessID(ctx, s.ID()), chatID)

		start := time.Now()
		m := s.DispatchUpload(ctx, job)
		p.finish(ctx, chatID, "upload", m, time.Since(start))
		return nil
	})
	if err != nil {
		metrics.IncJob("upload", "dropped")
		if m, ok := s.CompleteUpload(job.Fail(err)); ok {
			p.deliver(context.Background(), chatID, m)
		}
		p.log.Warn().Err(err).Int64("chat_id", chatID).Msg("upload dropped")
	}
	return err
}

func (p *ExchangeProcessor) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, p.timeout)
}

func (p *ExchangeProcessor) finish(ctx context.Context, chatID int64, kind string, m model.Message, took time.Duration) {
	status := "completed"
	if m.Role == model.RoleError {
		status = "failed"
	}
	metrics.IncJob(kind, status)
	logging.With(ctx, p.log).Info().Str("kind", kind).Str("status", status).Dur("duration", took).Msg("job finished")
	// Delivery must outlive a timed-out exchange context.
	p.deliver(context.WithoutCancel(ctx), chatID, m)
}

func (p *ExchangeProcessor) deliver(ctx context.Context, chatID int64, m model.Message) {
	if m.ID == "" {
		return
	}
	if err := p.bot.SendMessage(ctx, chatID, p.render(m)); err != nil {
		p.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to deliver reply")
	}
}
