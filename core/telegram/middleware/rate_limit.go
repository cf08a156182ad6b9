package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/m3rciful/screeningbot/core/logger"
	tghelpers "github.com/m3rciful/screeningbot/core/telegram/helpers"

	tele "gopkg.in/telebot.v4"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds ("callback", "message", "contact") that
	// bypass limiting.
	Exclude   map[string]struct{}
	OnLimited tele.HandlerFunc
	// Exempt users are never limited.
	Exempt map[int64]struct{}
	now    func() time.Time
}

// RateLimitMiddleware enforces a minimum interval between updates of the
// same user.
func RateLimitMiddleware(opts RateLimitOptions) tele.MiddlewareFunc {
	var (
		mu       sync.Mutex
		lastSeen = make(map[int64]time.Time)
		swept    time.Time
	)
	now := opts.now
	if now == nil {
		now = time.Now
	}
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			user := c.Sender()
			if user == nil || opts.Interval <= 0 {
				return next(c)
			}
			if _, ok := opts.Exempt[user.ID]; ok {
				return next(c)
			}
			kind := UpdateKind(c.Update())
			if _, skip := opts.Exclude[kind]; skip {
				return next(c)
			}

			t := now()
			mu.Lock()
			if t.Sub(swept) > time.Minute {
				for id, seen := range lastSeen {
					if t.Sub(seen) > opts.Interval {
						delete(lastSeen, id)
					}
				}
				swept = t
			}
			if last, ok := lastSeen[user.ID]; ok && t.Sub(last) < opts.Interval {
				mu.Unlock()
				ctx := context.Background()
				if stored, ok := tghelpers.ContextFrom(c); ok {
					ctx = stored
				}
				logger.Warn(ctx, logger.CompTG, "rate_limit",
					slog.String("kind", kind),
					slog.Int64("user_id", user.ID),
				)
				if opts.OnLimited != nil {
					_ = opts.OnLimited(c)
				}
				return nil
			}
			lastSeen[user.ID] = t
			mu.Unlock()
			return next(c)
		}
	}
}
