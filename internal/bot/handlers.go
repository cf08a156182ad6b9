package bot

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/m3rciful/screeningbot/core/buildinfo"
	"github.com/m3rciful/screeningbot/core/logger"
	"github.com/m3rciful/screeningbot/core/telegram/callbacks"
	tghelpers "github.com/m3rciful/screeningbot/core/telegram/helpers"
	"github.com/m3rciful/screeningbot/core/telegram/middleware"
	"github.com/m3rciful/screeningbot/internal/form"
	"github.com/m3rciful/screeningbot/internal/menu"
	"github.com/m3rciful/screeningbot/internal/relay"

	tele "gopkg.in/telebot.v4"
)

// StatsFunc reports the dispatcher counters for the stats command.
type StatsFunc func() (queued int, sent, failed, retried uint64)

// Handlers adapts telebot updates to the menu router and relay bridge.
type Handlers struct {
	router     *menu.Router
	bridge     *relay.Bridge
	store      *form.Store
	operatorID int64
	journal    string
	texts      OperatorTexts
	stats      StatsFunc
}

// InProgress reports whether userID is inside a form.
func (h *Handlers) InProgress(userID int64) bool {
	return h.router.InProgress(userID)
}

// Handle feeds a text or contact message to the router.
func (h *Handlers) Handle(c tele.Context) error {
	return h.router.Handle(tghelpers.BuildContext(c), inbound(c), outbox(c))
}

// Start handles /start.
func (h *Handlers) Start(c tele.Context) error {
	return h.router.Start(tghelpers.BuildContext(c), inbound(c), outbox(c))
}

// Cancel handles /cancel.
func (h *Handlers) Cancel(c tele.Context) error {
	return h.router.Cancel(tghelpers.BuildContext(c), inbound(c), outbox(c))
}

// Help handles /help.
func (h *Handlers) Help(c tele.Context) error {
	return h.router.Help(tghelpers.BuildContext(c), inbound(c), outbox(c))
}

// Callback handles the inline buttons owned by the menu router.
func (h *Handlers) Callback(c tele.Context) error {
	key := callbacks.CallbackKey(c)
	return h.router.Callback(tghelpers.BuildContext(c), inbound(c), key, outbox(c))
}

// IsOperatorReply claims operator messages that reply to another message.
func (h *Handlers) IsOperatorReply(c tele.Context) bool {
	msg := c.Message()
	return msg != nil && msg.ReplyTo != nil && middleware.IsOperator(c, h.operatorID)
}

// OperatorReply forwards the operator's reply to the requester. Replies
// that cannot be correlated are dropped; the bridge logs them.
func (h *Handlers) OperatorReply(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	msg := c.Message()
	original := msg.ReplyTo.Text
	if original == "" {
		original = msg.ReplyTo.Caption
	}
	_, err := h.bridge.RouteOperatorReply(ctx, relay.OperatorReply{
		OriginalText:      original,
		OriginalMessageID: msg.ReplyTo.ID,
		Text:              msg.Text,
	})
	if err == nil || errors.Is(err, relay.ErrEmptyReply) || errors.Is(err, relay.ErrNoMarker) {
		return nil
	}
	return err
}

// Stats handles the operator-only /stats command.
func (h *Handlers) Stats(c tele.Context) error {
	var queued int
	var sent, failed, retried uint64
	if h.stats != nil {
		queued, sent, failed, retried = h.stats()
	}
	text := fmt.Sprintf(h.texts.Stats, h.store.Len(), queued, sent, failed, retried, h.journal, buildinfo.String())
	return tghelpers.SendText(c, text, nil)
}

// RejectOperatorCommand answers non-operators trying operator commands.
func (h *Handlers) RejectOperatorCommand(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	logger.Info(ctx, logger.CompTG, "operator.reject", slog.String("command", c.Text()))
	return tghelpers.SendText(c, h.texts.Forbidden, nil)
}

// CallbackNotFound acknowledges stale inline buttons.
func (h *Handlers) CallbackNotFound(c tele.Context) error {
	return c.Respond()
}
