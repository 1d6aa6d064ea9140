package bot

import (
	"context"
	"strings"

	"gopkg.in/telebot.v4"
)

const msgAccessDenied = "🚫 Доступ закрыт."

// AccessMiddleware evaluates the access gate before every handler.
// /start is always admitted so a new employee can register and answer
// the consent prompt; the consent buttons are admitted for anyone with
// an employee row, even a deactivated one. Everything else requires a
// registered, active account. The denial text is deliberately the same
// for an unknown and a deactivated identity.
func (b *Bot) AccessMiddleware(next telebot.HandlerFunc) telebot.HandlerFunc {
	return func(ctx telebot.Context) error {
		sender := ctx.Sender()
		if sender == nil {
			return nil
		}

		timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		text := ctx.Text()
		if strings.HasPrefix(text, "/start") {
			return next(ctx)
		}

		if text == consentAcceptLabel || text == consentDeclineLabel {
			if b.tracker.HasAnyRecord(timeoutCtx, sender.ID) {
				return next(ctx)
			}
			return ctx.Send(msgAccessDenied, removeKeyboard())
		}

		if b.tracker.AllowMessage(timeoutCtx, sender.ID, sender.Username, displayName(sender)) {
			return next(ctx)
		}

		b.log.Info("Access denied", "username", sender.Username, "id", sender.ID)
		return ctx.Send(msgAccessDenied, removeKeyboard())
	}
}
