package bot

import (
	"context"
	"errors"
	"strconv"
	"time"

	"gopkg.in/telebot.v4"

	"github.com/vludko/workformat-bot/internal/dates"
	"github.com/vludko/workformat-bot/internal/tracker"
)

const (
	msgInternalError = "❌ Произошла ошибка при сохранении формата работы. Попробуйте позже."

	msgConsentRequired = "⚠️ Для работы с ботом необходимо дать согласие на обработку персональных данных.\n" +
		"Используйте команду /start для продолжения."

	msgRangeExamples = "Примеры:\n" +
		"• 01.01.2024 - 15.01.2024\n" +
		"• 01.01 - 15.01 (год будет текущим)\n" +
		"• 15.03.2024 - 20.03.2024"
)

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	sender := ctx.Sender()
	b.metrics.CommandReceived.WithLabelValues("/start").Inc()
	b.log.Info("User started the bot", "id", sender.ID, "username", sender.Username)

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	decision := b.tracker.OnFirstContact(timeoutCtx, sender.ID, sender.Username, displayName(sender))
	switch decision {
	case tracker.DecisionNeedsConsent:
		b.metrics.NewUsers.Inc()
		return ctx.Send(
			"👋 Добро пожаловать!\n\n"+
				"Я помогу отслеживать формат работы сотрудников.\n\n"+
				"⚠️ Для продолжения необходимо дать согласие на обработку персональных данных.",
			consentKeyboard(),
		)
	case tracker.DecisionAllowed:
		return ctx.Send(
			"👋 Добро пожаловать!\n\n"+
				"Я помогу отслеживать формат работы сотрудников.\n"+
				"Выберите формат работы на сегодня:",
			workFormatKeyboard(),
		)
	case tracker.DecisionBlocked:
		fallthrough
	default:
		return ctx.Send(msgAccessDenied, removeKeyboard())
	}
}

// routeTextHandler dispatches a plain text message: consent buttons,
// work-format buttons, a pending date-range input, or a hint.
func (b *Bot) routeTextHandler(ctx telebot.Context) error {
	text := ctx.Text()

	switch {
	case text == consentAcceptLabel:
		return b.consentHandler(ctx, true)
	case text == consentDeclineLabel:
		return b.consentHandler(ctx, false)
	case IsWorkFormat(text):
		return b.formatHandler(ctx, text)
	}

	if state, ok := b.stateManager.Get(ctx.Sender().ID); ok {
		return b.dateRangeHandler(ctx, state.PendingFormat, text)
	}

	return ctx.Reply("Пожалуйста, используйте кнопки или команду /start.")
}

// consentHandler records the employee's answer to the consent prompt.
func (b *Bot) consentHandler(ctx telebot.Context, accepted bool) error {
	userID := ctx.Sender().ID
	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	started := time.Now()
	outcome, err := b.tracker.OnConsentResponse(timeoutCtx, userID, accepted)
	b.metrics.DBQueryDuration.WithLabelValues("record_consent").Observe(time.Since(started).Seconds())
	if err != nil {
		b.log.Error("Failed to record consent", "id", userID, "error", err)
		return ctx.Send(msgInternalError, removeKeyboard())
	}

	switch outcome {
	case tracker.ConsentRecordedActive:
		return ctx.Send(
			"✅ Спасибо! Согласие на обработку персональных данных получено.\n"+
				"Выберите формат работы на сегодня:",
			workFormatKeyboard(),
		)
	case tracker.ConsentRecordedInactive:
		return ctx.Send(
			"✅ Согласие на обработку персональных данных получено.\n\n"+
				"🚫 Ваш аккаунт деактивирован. Обратитесь к администратору.",
			removeKeyboard(),
		)
	case tracker.ConsentBlocked:
		fallthrough
	default:
		return ctx.Send(msgAccessDenied, removeKeyboard())
	}
}

// formatHandler reacts to a work-format button. A leave format asks for
// a date range; everything else is recorded for today at once. Choosing
// a new format while a range input is pending drops the old one.
func (b *Bot) formatHandler(ctx telebot.Context, label string) error {
	userID := ctx.Sender().ID
	b.stateManager.Clear(userID)

	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	started := time.Now()
	result, err := b.tracker.OnFormatSelection(timeoutCtx, userID, label, "")
	b.metrics.DBQueryDuration.WithLabelValues("record_format").Observe(time.Since(started).Seconds())
	if err != nil {
		b.log.Error("Failed to record work format", "id", userID, "format", label, "error", err)
		return ctx.Send(msgInternalError, removeKeyboard())
	}

	switch result.Status {
	case tracker.SelectionNeedsRange:
		b.stateManager.Set(userID, UserState{PendingFormat: label})
		return ctx.Send(
			"📅 Укажите диапазон дат для формата \""+label+"\":\n\n"+msgRangeExamples,
			removeKeyboard(),
		)
	case tracker.SelectionSaved:
		b.metrics.AttendanceRecorded.WithLabelValues(label).Inc()
		return ctx.Send(
			"✅ Формат работы сохранён:\n"+
				"📅 Дата: "+dates.Display(result.StartDate)+"\n"+
				"💼 Формат: "+label,
			removeKeyboard(),
		)
	case tracker.SelectionNeedsConsent:
		return ctx.Send(msgConsentRequired, removeKeyboard())
	case tracker.SelectionBlocked, tracker.SelectionInvalid:
		fallthrough
	default:
		return ctx.Send(msgAccessDenied, removeKeyboard())
	}
}

// dateRangeHandler validates the date range supplied for a pending
// leave format. An invalid input keeps the format pending and asks
// again, as many times as needed.
func (b *Bot) dateRangeHandler(ctx telebot.Context, label, rangeText string) error {
	userID := ctx.Sender().ID
	timeoutCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	started := time.Now()
	result, err := b.tracker.OnFormatSelection(timeoutCtx, userID, label, rangeText)
	b.metrics.DBQueryDuration.WithLabelValues("record_range").Observe(time.Since(started).Seconds())
	if err != nil {
		b.log.Error("Failed to record leave range", "id", userID, "format", label, "error", err)
		return ctx.Send(msgInternalError, removeKeyboard())
	}

	switch result.Status {
	case tracker.SelectionInvalid:
		b.stateManager.Set(userID, UserState{PendingFormat: label})
		return ctx.Send(
			"❌ " + rangeErrorText(result.Reason) + "\n\n" +
				"Пожалуйста, укажите диапазон дат ещё раз.\n\n" + msgRangeExamples,
		)
	case tracker.SelectionSaved:
		b.metrics.AttendanceRecorded.WithLabelValues(label).Inc()
		return ctx.Send(
			"✅ Формат работы сохранён:\n"+
				"📅 Период: "+dates.Display(result.StartDate)+" - "+dates.Display(result.EndDate)+"\n"+
				"💼 Формат: "+label+"\n"+
				"📊 Дней: "+strconv.Itoa(len(result.Days)),
			removeKeyboard(),
		)
	case tracker.SelectionNeedsConsent:
		return ctx.Send(msgConsentRequired, removeKeyboard())
	case tracker.SelectionBlocked, tracker.SelectionNeedsRange:
		fallthrough
	default:
		return ctx.Send(msgAccessDenied, removeKeyboard())
	}
}

// rangeErrorText translates a range validation error for the user.
func rangeErrorText(err error) string {
	switch {
	case errors.Is(err, dates.ErrEmptyDate):
		return "Дата не указана."
	case errors.Is(err, dates.ErrInvalidFormat):
		return "Некорректный формат даты. Используйте ДД.ММ.ГГГГ или ДД.ММ."
	case errors.Is(err, dates.ErrInvalidCalendarDate):
		return "Такой даты не существует."
	case errors.Is(err, dates.ErrRangeOrder):
		return "Дата начала позже даты окончания."
	case errors.Is(err, tracker.ErrRangeTooLarge):
		return "Слишком большой диапазон дат."
	default:
		return "Некорректный диапазон дат."
	}
}
