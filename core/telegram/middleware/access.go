package middleware

import (
	"announcebot/core/logger"
	tghelpers "announcebot/core/telegram/helpers"
	"log/slog"

	tele "gopkg.in/telebot.v4"
)

// AdminChecker answers whether a user belongs to the admin set.
type AdminChecker interface {
	IsAdmin(userID int64) bool
}

// AdminOptions defines how admin-only checks should behave.
type AdminOptions struct {
	Checker  AdminChecker
	OnReject tele.HandlerFunc
}

// AdminOnlyMiddleware ensures that only admins can invoke downstream handlers.
// Denials are logged and answered via OnReject; the update is otherwise dropped.
func AdminOnlyMiddleware(opts AdminOptions) tele.MiddlewareFunc {
	return func(next tele.HandlerFunc) tele.HandlerFunc {
		return func(c tele.Context) error {
			if opts.Checker == nil {
				return next(c)
			}
			userID := c.Sender().ID
			if !opts.Checker.IsAdmin(userID) {
				ctx := tghelpers.BuildContext(c)
				logger.TG.LogAttrs(ctx, slog.LevelInfo, "access.denied",
					slog.String("status", "skip"),
					slog.Int64("user_id", userID),
				)
				if opts.OnReject != nil {
					return opts.OnReject(c)
				}
				return nil
			}
			return next(c)
		}
	}
}
