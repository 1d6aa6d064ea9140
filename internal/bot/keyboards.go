package bot

import "gopkg.in/telebot.v4"

// Consent button labels. The middleware matches on the exact text.
const (
	consentAcceptLabel  = "✅ Да, согласен"
	consentDeclineLabel = "❌ Нет, не согласен"
)

// workFormats are the reply-keyboard labels, in keyboard order.
var workFormats = []string{
	"Офис", "Удалёнка",
	"Учёба", "Болезнь",
	"Отпуск", "Экспедиция",
	"Отгул неоплачиваемый", "Отгул оплачиваемый",
}

// IsWorkFormat reports whether the text is one of the keyboard labels.
func IsWorkFormat(text string) bool {
	for _, format := range workFormats {
		if text == format {
			return true
		}
	}
	return false
}

// consentKeyboard builds the one-time consent keyboard.
func consentKeyboard() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}
	menu.Reply(menu.Row(menu.Text(consentAcceptLabel), menu.Text(consentDeclineLabel)))
	return menu
}

// workFormatKeyboard builds the one-time work-format keyboard, two
// labels per row.
func workFormatKeyboard() *telebot.ReplyMarkup {
	menu := &telebot.ReplyMarkup{ResizeKeyboard: true, OneTimeKeyboard: true}

	const perRow = 2
	rows := make([]telebot.Row, 0, len(workFormats)/perRow)
	for i := 0; i < len(workFormats); i += perRow {
		rows = append(rows, menu.Row(menu.Text(workFormats[i]), menu.Text(workFormats[i+1])))
	}
	menu.Reply(rows...)

	return menu
}

// removeKeyboard hides the reply keyboard.
func removeKeyboard() *telebot.ReplyMarkup {
	return &telebot.ReplyMarkup{RemoveKeyboard: true}
}
