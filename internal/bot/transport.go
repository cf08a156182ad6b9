package bot

import (
	"context"
	"errors"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

var errNotStarted = errors.New("bot: transport not bound")

// Transport sends plain text to arbitrary chats through the running bot.
// It is bound once the bot is built, which happens after the app is wired.
type Transport struct {
	bot atomic.Pointer[tele.Bot]
}

// Bind attaches the running bot.
func (t *Transport) Bind(b *tele.Bot) {
	t.bot.Store(b)
}

// SendText sends text without parse mode and returns the message id.
func (t *Transport) SendText(_ context.Context, chatID int64, text string) (int, error) {
	b := t.bot.Load()
	if b == nil {
		return 0, errNotStarted
	}
	msg, err := b.Send(tele.ChatID(chatID), text, &tele.SendOptions{DisableWebPagePreview: true})
	if err != nil {
		return 0, err
	}
	if msg == nil {
		return 0, nil
	}
	return msg.ID, nil
}
