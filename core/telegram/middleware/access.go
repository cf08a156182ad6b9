package middleware

import tele "gopkg.in/telebot.v4"

// OperatorOptions defines how operator-only checks behave.
type OperatorOptions struct {
	OperatorID int64
	OnReject   tele.HandlerFunc
}

// IsOperator reports whether the update comes from the operator chat.
func IsOperator(c tele.Context, operatorID int64) bool {
	if operatorID == 0 || c == nil {
		return false
	}
	if chat := c.Chat(); chat != nil && chat.ID == operatorID {
		return true
	}
	if user := c.Sender(); user != nil && user.ID == operatorID {
		return true
	}
	return false
}

// OperatorOnly lets only the operator reach downstream handlers. With no
// operator configured every update is rejected.
func OperatorOnly(opts OperatorOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if !IsOperator(c, opts.OperatorID) {
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
