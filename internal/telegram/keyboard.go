package telegram

import tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

const keyboardColumns = 2

// CategoryKeyboard lays names out in rows of two, in order; the last row
// holds the remainder. It returns nil for no names.
func CategoryKeyboard(names []string) *tgbotapi.ReplyKeyboardMarkup {
	if len(names) == 0 {
		return nil
	}
	rows := make([][]tgbotapi.KeyboardButton, 0, (len(names)+keyboardColumns-1)/keyboardColumns)
	for i := 0; i < len(names); i += keyboardColumns {
		end := min(i+keyboardColumns, len(names))
		row := make([]tgbotapi.KeyboardButton, 0, end-i)
		for _, n := range names[i:end] {
			row = append(row, tgbotapi.NewKeyboardButton(n))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(row...))
	}
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.OneTimeKeyboard = false
	return &kb
}
