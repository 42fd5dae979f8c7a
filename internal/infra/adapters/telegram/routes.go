package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"smart-study-buddy/internal/domain/model"
	"smart-study-buddy/internal/domain/ports/adapter"
)

const (
	cbNew = "cmd:new"

	helpText = "Commands:\n/start - welcome\n/new - start a new conversation\n/help - this message\n\n" +
		"Send any question as text, or a photo / PDF of a problem to solve it."
)

type commandHandler func(ctx context.Context, msg *tgbotapi.Message) error

func (b *Bot) commandRoutes() map[string]commandHandler {
	return map[string]commandHandler{
		"start": b.handleStart,
		"new":   b.handleNew,
		"help": func(ctx context.Context, msg *tgbotapi.Message) error {
			return b.sender.SendMessage(ctx, msg.Chat.ID, helpText)
		},
	}
}

// handleStart shows the welcome that seeds every transcript.
func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	s, _ := b.registry.GetOrCreate(msg.Chat.ID)
	return b.sendWelcome(ctx, msg.Chat.ID, s.Transcript(), b.translator(msg.From).T("upload_hint"))
}

func (b *Bot) handleNew(ctx context.Context, msg *tgbotapi.Message) error {
	return b.reset(ctx, msg.Chat.ID, b.translator(msg.From).T("reset_done"))
}

func (b *Bot) reset(ctx context.Context, chatID int64, notice string) error {
	s := b.registry.Reset(chatID)
	if err := b.sender.SendMessage(ctx, chatID, notice); err != nil {
		return err
	}
	return b.sendWelcome(ctx, chatID, s.Transcript(), "")
}

func (b *Bot) sendWelcome(ctx context.Context, chatID int64, msgs []model.Message, hint string) error {
	text := strings.TrimSpace(hint)
	if len(msgs) > 0 && msgs[0].Role == model.RoleAssistant {
		text = strings.TrimSpace(msgs[0].Content + "\n\n" + hint)
	}
	if text == "" {
		return nil
	}
	rows := [][]adapter.InlineButton{{{Text: "🆕 New conversation", Data: cbNew}}}
	return b.sender.SendButtons(ctx, chatID, text, rows)
}

func (b *Bot) handleQuery(ctx context.Context, q *tgbotapi.CallbackQuery) error {
	if q == nil || q.From == nil {
		return nil
	}
	// Stop the client-side spinner when we return.
	defer func() { _, _ = b.api.Request(tgbotapi.NewCallback(q.ID, "")) }()

	chatID := q.From.ID
	if q.Message != nil && q.Message.Chat != nil {
		chatID = q.Message.Chat.ID
	}
	if !b.allow(ctx, chatID, "command") {
		return b.sender.SendMessage(ctx, chatID, b.translator(q.From).T("rate_limited"))
	}

	switch strings.TrimSpace(q.Data) {
	case cbNew:
		return b.reset(ctx, chatID, b.translator(q.From).T("reset_done"))
	default:
		return nil
	}
}
