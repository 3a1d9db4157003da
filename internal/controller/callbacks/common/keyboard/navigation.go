package keyboard

import "github.com/go-telegram/bot/models"

// BackButton создаёт кнопку "Назад"
func BackButton(callbackData string) models.InlineKeyboardButton {
	return Button("⬅️ Назад", callbackData)
}

// CloseButton создаёт кнопку "Закрыть"
func CloseButton(callbackData string) models.InlineKeyboardButton {
	return Button("❌ Закрыть", callbackData)
}
