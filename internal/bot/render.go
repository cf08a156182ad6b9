package bot

import (
	"context"
	"strings"

	tghelpers "github.com/m3rciful/screeningbot/core/telegram/helpers"
	"github.com/m3rciful/screeningbot/core/telegram/keyboard"
	"github.com/m3rciful/screeningbot/internal/chat"

	tele "gopkg.in/telebot.v4"
)

// markup converts the keyboard of r. Reply keyboards win over inline ones,
// which win over keyboard removal.
func markup(r chat.Reply) *tele.ReplyMarkup {
	switch {
	case len(r.Keyboard) > 0 || r.ContactButton != "":
		return keyboard.WithContact(r.ContactButton, r.Keyboard...)
	case len(r.Inline) > 0:
		btns := make([]keyboard.InlineBtn, 0, len(r.Inline))
		for _, b := range r.Inline {
			btns = append(btns, keyboard.InlineBtn{Text: b.Text, Unique: b.Key})
		}
		return keyboard.InlineButtons(btns)
	case r.RemoveKeyboard:
		return keyboard.RemoveKeyboard()
	}
	return nil
}

// outbox replies into the chat of c, in order.
func outbox(c tele.Context) chat.Outbox {
	return chat.OutboxFunc(func(_ context.Context, r chat.Reply) error {
		return tghelpers.SendText(c, r.Text, markup(r))
	})
}

// inbound converts the current update into a transport-neutral message.
func inbound(c tele.Context) chat.Inbound {
	var in chat.Inbound
	if u := c.Sender(); u != nil {
		in.From = chat.Identity{
			ID:          u.ID,
			DisplayName: strings.TrimSpace(u.FirstName + " " + u.LastName),
			Username:    u.Username,
		}
	}
	if ch := c.Chat(); ch != nil {
		in.ChatID = ch.ID
	}
	if msg := c.Message(); msg != nil {
		in.Text = msg.Text
		if ct := msg.Contact; ct != nil {
			in.Contact = &chat.Contact{
				Phone:     ct.PhoneNumber,
				UserID:    ct.UserID,
				FirstName: ct.FirstName,
				LastName:  ct.LastName,
			}
		}
	}
	return in
}
