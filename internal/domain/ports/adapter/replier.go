package adapter

import "context"

// InlineButton is one button under a reply. Data is the callback payload;
// URL buttons open a link instead.
type InlineButton struct {
	Text string
	Data string
	URL  string
}

// ChatReplier delivers rendered transcript entries to a chat front-end.
type ChatReplier interface {
	// SendMessage may split text longer than the platform allows.
	SendMessage(ctx context.Context, chatID int64, text string) error
	SendButtons(ctx context.Context, chatID int64, text string, rows [][]InlineButton) error
}
