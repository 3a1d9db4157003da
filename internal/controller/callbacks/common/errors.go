package common

import (
	"errors"

	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
)

// Общие ошибки для обработчиков
var (
	ErrNoMessage     = errors.New("no message in callback")
	ErrInvalidFormat = errors.New("invalid callback format")
)

// NoGroupText ответ, когда группа для команды не определена
const NoGroupText = "📚 Поли не знает, к какой группе ты принадлежишь! Напиши команду /add, чтобы всё настроить"

// ErrorMessage возвращает пользовательское сообщение для ошибки
func ErrorMessage(err error) string {
	switch {
	case errors.Is(err, service.ErrGroupNotSet):
		return "❌ Сначала установите группу командой /add"
	case errors.Is(err, service.ErrUnknownGroup):
		return "❌ Такой группы нет в расписании. Проверь номер группы"
	case errors.Is(err, service.ErrInvalidTime):
		return "❌ Неверный формат времени. Используй ЧЧ:ММ, например 08:00"
	case errors.Is(err, service.ErrInvalidSubgroup):
		return "❌ Подгруппа может быть только 1 или 2"
	case errors.Is(err, service.ErrInvalidDate):
		return "❌ Некорректная дата. Используй формат ДД.ММ.ГГГГ"
	case errors.Is(err, service.ErrPermissionDenied):
		return "🛡️ У вас нет прав для этой команды"
	case errors.Is(err, service.ErrInvalidPattern):
		return "❌ Некорректное регулярное выражение"
	case errors.Is(err, service.ErrUserNotFound):
		return "❌ Пользователь не найден"
	case errors.Is(err, service.ErrFeedbackNotFound):
		return "Фидбек не найден"
	case errors.Is(err, service.ErrEmptyFeedback):
		return "❌ Пустое сообщение. Отправь текст, фото, видео или документ"
	case errors.Is(err, service.ErrNotEnoughGroups):
		return "❌ Укажи минимум две группы, например: 241-362 241-361"
	case errors.Is(err, service.ErrPeriodTooLong):
		return "❌ Период не может быть больше 10 дней"
	case errors.Is(err, service.ErrPeriodReversed):
		return "❌ Дата начала периода позже даты окончания"
	case errors.Is(err, ErrNoMessage):
		return "❌ Ошибка обработки сообщения"
	case errors.Is(err, ErrInvalidFormat):
		return "❌ Неверный формат данных"
	default:
		return "❌ Произошла ошибка. Попробуйте позже."
	}
}
