package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"resty.dev/v3"

	"smart-study-buddy/internal/domain"
	"smart-study-buddy/internal/domain/model"
	"smart-study-buddy/internal/infra/i18n"
	"smart-study-buddy/internal/infra/logging"
	red "smart-study-buddy/internal/infra/redis"
	"smart-study-buddy/internal/infra/worker"
	"smart-study-buddy/internal/usecase"
)

// Limiter is satisfied by redis.RateLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// Downloader fetches a Telegram file by its direct URL.
type Downloader func(ctx context.Context, url string) ([]byte, error)

type Options struct {
	UpdateWorkers int
	Limiter       Limiter    // optional
	Download      Downloader // defaults to a resty GET
}

// Bot routes Telegram updates into per-chat sessions and hands accepted
// exchanges and uploads to the processor.
type Bot struct {
	api      botAPI
	sender   *Sender
	registry *usecase.Registry
	proc     *worker.ExchangeProcessor
	catalog  *i18n.Catalog
	limiter  Limiter
	download Downloader
	workers  int
	log      *zerolog.Logger
}

// NewBotAPI connects with the token; kept separate so tests can inject a fake API.
func NewBotAPI(token string) (*tgbotapi.BotAPI, error) {
	if token == "" {
		return nil, errors.New("telegram bot token is empty")
	}
	return tgbotapi.NewBotAPI(token)
}

func NewBot(api botAPI, sender *Sender, registry *usecase.Registry, proc *worker.ExchangeProcessor, catalog *i18n.Catalog, opts Options, log *zerolog.Logger) *Bot {
	if log == nil {
		log = logging.Nop()
	}
	if opts.UpdateWorkers <= 0 {
		opts.UpdateWorkers = 5
	}
	if opts.Download == nil {
		opts.Download = RestyDownloader(resty.New())
	}
	return &Bot{
		api:      api,
		sender:   sender,
		registry: registry,
		proc:     proc,
		catalog:  catalog,
		limiter:  opts.Limiter,
		download: opts.Download,
		workers:  opts.UpdateWorkers,
		log:      log,
	}
}

// RestyDownloader reads the whole file; Telegram caps bot downloads at 20 MB.
func RestyDownloader(c *resty.Client) Downloader {
	return func(ctx context.Context, url string) ([]byte, error) {
		resp, err := c.R().SetContext(ctx).Get(url)
		if err != nil {
			return nil, err
		}
		if !resp.IsSuccess() {
			return nil, fmt.Errorf("download: http %d", resp.StatusCode())
		}
		return resp.Bytes(), nil
	}
}

// StartPolling fans updates out to a fixed set of goroutines and blocks until ctx is done.
func (b *Bot) StartPolling(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	var wg sync.WaitGroup
	updateChan := make(chan tgbotapi.Update, 100)

	for i := 0; i < b.workers; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case up, ok := <-updateChan:
					if !ok {
						return
					}
					if err := b.HandleUpdate(ctx, up); err != nil {
						b.log.Warn().Int("worker", id).Err(err).Msg("update failed")
					}
				}
			}
		}(i)
	}

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			close(updateChan)
			wg.Wait()
			return ctx.Err()
		case up := <-updates:
			updateChan <- up
		}
	}
}

// HandleUpdate processes one update synchronously up to the point where an
// exchange or upload is queued.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return b.handleQuery(ctx, update.CallbackQuery)
	}
	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return nil
	}
	chatID := msg.Chat.ID
	ctx = logging.WithChatID(ctx, chatID)
	tr := b.translator(msg.From)

	kind := "message"
	switch {
	case msg.IsCommand():
		kind = "command"
	case msg.Document != nil || len(msg.Photo) > 0:
		kind = "upload"
	}
	if !b.allow(ctx, chatID, kind) {
		return b.sender.SendMessage(ctx, chatID, tr.T("rate_limited"))
	}

	if msg.IsCommand() {
		if fn, ok := b.commandRoutes()[msg.Command()]; ok {
			return fn(ctx, msg)
		}
		return b.sender.SendMessage(ctx, chatID, helpText)
	}
	if f, ok := b.fileOf(ctx, msg); ok {
		return b.handleUpload(ctx, chatID, f, tr)
	}
	if msg.Text != "" {
		return b.handleText(ctx, chatID, msg.Text, tr)
	}
	return nil
}

func (b *Bot) handleText(ctx context.Context, chatID int64, text string, tr *i18n.Translator) error {
	s, _ := b.registry.GetOrCreate(chatID)
	s.SetDraft(text)
	ex, err := s.Submit()
	if err != nil {
		return b.sender.SendMessage(ctx, chatID, tr.T("pending_busy"))
	}
	if ex == nil {
		return nil
	}
	b.sender.Typing(chatID)
	return b.proc.EnqueueExchange(chatID, s, ex)
}

func (b *Bot) handleUpload(ctx context.Context, chatID int64, f model.File, tr *i18n.Translator) error {
	s, _ := b.registry.GetOrCreate(chatID)
	job, err := s.Upload(f)
	if err != nil {
		if errors.Is(err, domain.ErrUploadPending) {
			return b.sender.SendMessage(ctx, chatID, tr.T("upload_busy"))
		}
		return b.sender.SendMessage(ctx, chatID, tr.T("upload_unsupported", f.MIMEType))
	}
	_ = b.sender.SendMessage(ctx, chatID, tr.T("solving"))
	return b.proc.EnqueueUpload(chatID, s, job)
}

// fileOf builds an upload from a photo (largest size) or a document. The file
// is only downloaded when the encoder opens it, after the type was accepted.
func (b *Bot) fileOf(ctx context.Context, msg *tgbotapi.Message) (model.File, bool) {
	var fileID, name, mimeType string
	switch {
	case msg.Document != nil:
		fileID, name, mimeType = msg.Document.FileID, msg.Document.FileName, msg.Document.MimeType
		if name == "" {
			name = "document"
		}
	case len(msg.Photo) > 0:
		fileID, name, mimeType = msg.Photo[len(msg.Photo)-1].FileID, "photo.jpg", "image/jpeg"
	default:
		return model.File{}, false
	}

	// The worker runs after this update returns.
	dl := context.WithoutCancel(ctx)
	return model.File{
		Name:     name,
		MIMEType: mimeType,
		Open: func() (io.ReadCloser, error) {
			url, err := b.api.GetFileDirectURL(fileID)
			if err != nil {
				return nil, err
			}
			data, err := b.download(dl, url)
			if err != nil {
				return nil, err
			}
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}, true
}

func (b *Bot) allow(ctx context.Context, chatID int64, kind string) bool {
	if b.limiter == nil {
		return true
	}
	ok, err := b.limiter.Allow(ctx, red.ChatKey(chatID, kind))
	if err != nil {
		// Redis trouble should not silence the bot.
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("rate limit check failed")
		return true
	}
	return ok
}

func (b *Bot) translator(u *tgbotapi.User) *i18n.Translator {
	if u == nil {
		return b.catalog.For(i18n.DefaultLang)
	}
	return b.catalog.For(u.LanguageCode)
}
