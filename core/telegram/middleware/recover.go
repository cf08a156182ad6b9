package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/screeningbot/core/logger"
	tghelpers "github.com/m3rciful/screeningbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// PanicError is returned in place of a recovered handler panic.
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string { return fmt.Sprintf("handler panic: %v", e.Value) }

// Code implements the error code hook used by handler summaries.
func (e *PanicError) Code() string { return "panic" }

// RecoverMiddleware turns handler panics into a logged *PanicError so one
// bad update never stops the bot.
func RecoverMiddleware(next tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) (err error) {
		defer func() {
			if r := recover(); r != nil {
				ctx := context.Background()
				if stored, ok := tghelpers.ContextFrom(c); ok {
					ctx = stored
				}
				logger.Error(ctx, logger.CompTG, "panic",
					slog.Any("error", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = &PanicError{Value: r}
			}
		}()
		return next(c)
	}
}
