package bot

import (
	"fmt"

	"gopkg.in/telebot.v4"

	"github.com/vludko/workformat-bot/internal/models"
)

// SendMorningPrompt delivers the daily work-format prompt to one
// employee. Satisfies scheduler.Notifier.
func (b *Bot) SendMorningPrompt(employee models.Employee) error {
	_, err := b.bot.Send(
		telebot.ChatID(employee.ID),
		"Доброе утро! Пожалуйста, отметьте формат работы на сегодня.",
		workFormatKeyboard(),
	)
	if err != nil {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to send morning prompt: %w", err)
	}
	b.metrics.SentMessages.WithLabelValues("text").Inc()

	return nil
}

// SendAfternoonReminder nudges one employee who has not answered today.
func (b *Bot) SendAfternoonReminder(employee models.Employee) error {
	_, err := b.bot.Send(
		telebot.ChatID(employee.ID),
		"Напоминание: пожалуйста, отметьте формат работы на сегодня.",
		workFormatKeyboard(),
	)
	if err != nil {
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return fmt.Errorf("failed to send afternoon reminder: %w", err)
	}
	b.metrics.SentMessages.WithLabelValues("text").Inc()

	return nil
}
