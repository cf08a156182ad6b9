package router

import (
	"time"

	tg "github.com/m3rciful/screeningbot/core/telegram"
	"github.com/m3rciful/screeningbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// Conversation owns the input of users inside a multi-step flow.
type Conversation interface {
	InProgress(userID int64) bool
	Handle(c tele.Context) error
}

// TextOptions controls routing of text and contact updates.
type TextOptions struct {
	// Intercept claims an update before any other routing; Intercepted
	// handles it. Used for operator replies.
	Intercept   func(c tele.Context) bool
	Intercepted tele.HandlerFunc

	// Contact handles shared contacts outside a conversation.
	Contact tele.HandlerFunc
}

// TextRoutes builds the OnText and OnContact handlers. Priority: intercept,
// active conversation, registry text fallback.
func TextRoutes(conv Conversation, reg *tg.Registry, opts TextOptions) []tg.Route {
	intercepted := func(c tele.Context, start time.Time) (bool, error) {
		if opts.Intercept == nil || opts.Intercepted == nil || !opts.Intercept(c) {
			return false, nil
		}
		return true, handleWithSummary(c, "intercept", start, func() error {
			return opts.Intercepted(c)
		})
	}
	inConversation := func(c tele.Context) bool {
		return conv != nil && c.Sender() != nil && conv.InProgress(c.Sender().ID)
	}

	textHandler := func(c tele.Context) error {
		start := time.Now()
		if ok, err := intercepted(c, start); ok {
			return err
		}

		if inConversation(c) {
			return handleWithSummary(c, "conversation", start, func() error {
				return conv.Handle(c)
			})
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}

		logHandlerSummary(c, "unknown_text", start, "skip", nil)
		return nil
	}

	contactHandler := func(c tele.Context) error {
		start := time.Now()
		if ok, err := intercepted(c, start); ok {
			return err
		}
		if inConversation(c) {
			return handleWithSummary(c, "conversation_contact", start, func() error {
				return conv.Handle(c)
			})
		}
		if opts.Contact != nil {
			return handleWithSummary(c, "contact", start, func() error {
				return opts.Contact(c)
			})
		}
		logHandlerSummary(c, "contact", start, "skip", nil)
		return nil
	}

	wrap := func(h tele.HandlerFunc) tele.HandlerFunc {
		return middleware.LoggerMiddleware(middleware.RecoverMiddleware(h))
	}
	return []tg.Route{
		{Endpoint: tele.OnText, Handler: wrap(textHandler)},
		{Endpoint: tele.OnContact, Handler: wrap(contactHandler)},
	}
}
