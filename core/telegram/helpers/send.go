package helpers

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/m3rciful/screeningbot/core/logger"
	"github.com/m3rciful/screeningbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by Enqueue.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

// Enqueue runs fn on the shared dispatcher. Without a dispatcher, or when
// its queue is saturated or closed, fn runs inline.
func Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	disp := globalDispatcher.Load()
	if disp == nil {
		return run()
	}
	if err := disp.Enqueue(ctx, action, endpoint, run); err != nil {
		if errors.Is(err, sender.ErrQueueFull) || errors.Is(err, sender.ErrQueueClosed) {
			logger.Warn(ctx, logger.CompSender, "queue.fallback",
				slog.String("action", action),
				slog.String("endpoint", endpoint),
				slog.String("error", err.Error()),
			)
			return run()
		}
		return err
	}
	return nil
}

// Queue exposes Enqueue as a value for components taking a queue interface.
type Queue struct{}

// Enqueue calls the package-level Enqueue.
func (Queue) Enqueue(ctx context.Context, action, endpoint string, run func() error) error {
	return Enqueue(ctx, action, endpoint, run)
}

// SendText sends raw text (no parse mode) to the current chat. It is
// synchronous so the replies to one update arrive in order.
func SendText(c tele.Context, text string, markup *tele.ReplyMarkup) error {
	if markup != nil {
		return c.Send(text, &tele.SendOptions{ReplyMarkup: markup, DisableWebPagePreview: true})
	}
	return c.Send(text, &tele.SendOptions{DisableWebPagePreview: true})
}
