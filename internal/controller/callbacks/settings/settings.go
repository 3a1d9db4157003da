package settings

import (
	"context"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/state"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

// ChangeTimePrompt просьба ввести время уведомлений
const ChangeTimePrompt = "🕐 Укажи время для ежедневных уведомлений в формате ЧЧ:ММ\nНапример: 08:00"

// withSettingsAccess в групповом чате настройки меняют только администраторы чата
func withSettingsAccess(
	ctx context.Context,
	b *bot.Bot,
	callback *models.CallbackQuery,
	h *callbacktypes.Handler,
	handler func(*common.HandlerContext, *model.NotifySettings),
) {
	common.WithSettings(ctx, b, callback, h, func(hc *common.HandlerContext, s *model.NotifySettings) {
		if hc.GroupChat && !h.Messenger.IsChatAdmin(ctx, hc.ChatID, hc.TelegramID) {
			hc.AnswerAlert("🔑 Только администраторы группового чата могут менять настройки.")
			return
		}
		handler(hc, s)
	})
}

// refresh перерисовывает экран настроек после изменения
func refresh(hc *common.HandlerContext) {
	s, err := hc.Handler.UserService.Settings(hc.Ctx, hc.ChatID, hc.TelegramID, hc.GroupChat)
	if err != nil {
		hc.Handler.Logger.Error("Failed to reload settings", zap.Int64("chat_id", hc.ChatID), zap.Error(err))
		return
	}
	text, kb := common.BuildSettingsScreen(s)
	if err := hc.EditMessage(text, kb); err != nil {
		hc.Handler.Logger.Warn("Failed to redraw settings", zap.Int64("chat_id", hc.ChatID), zap.Error(err))
	}
}

func enabledWord(enabled bool) string {
	if enabled {
		return "включены"
	}
	return "выключены"
}

// HandleToggleDaily включает/выключает ежедневную рассылку
func HandleToggleDaily(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	withSettingsAccess(ctx, b, callback, h, func(hc *common.HandlerContext, _ *model.NotifySettings) {
		enabled, err := h.UserService.ToggleDaily(ctx, hc.ChatID, hc.TelegramID, hc.GroupChat)
		if err != nil {
			common.HandleError(hc, err, "toggle_daily")
			return
		}
		refresh(hc)
		common.LogAndAnswer(hc, "Daily notifications toggled", "Ежедневные уведомления "+enabledWord(enabled))
	})
}

// HandleToggleOnline включает/выключает напоминания об онлайн-парах
func HandleToggleOnline(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	withSettingsAccess(ctx, b, callback, h, func(hc *common.HandlerContext, _ *model.NotifySettings) {
		enabled, err := h.UserService.ToggleOnline(ctx, hc.ChatID, hc.TelegramID, hc.GroupChat)
		if err != nil {
			common.HandleError(hc, err, "toggle_online")
			return
		}
		refresh(hc)
		common.LogAndAnswer(hc, "Online reminders toggled", "Уведомления об онлайн-парах "+enabledWord(enabled))
	})
}

// HandleChangeTime переводит пользователя в ожидание нового времени
func HandleChangeTime(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	withSettingsAccess(ctx, b, callback, h, func(hc *common.HandlerContext, _ *model.NotifySettings) {
		hc.SetState(state.StateChangingNotifyTime)
		hc.Answer("")
		if err := hc.SendMessage(ChangeTimePrompt, nil); err != nil {
			h.Logger.Warn("Failed to send time prompt", zap.Int64("chat_id", hc.ChatID), zap.Error(err))
		}
	})
}

// HandleChangeSubgroup показывает выбор подгруппы
func HandleChangeSubgroup(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithContext(ctx, b, callback, h, func(hc *common.HandlerContext) {
		if hc.GroupChat {
			hc.AnswerAlert("Подгруппы доступны только в личных чатах")
			return
		}
		text, kb := common.BuildSubgroupScreen()
		if err := hc.EditMessage(text, kb); err != nil {
			common.HandleError(hc, err, "show_subgroups")
			return
		}
		hc.Answer("")
	})
}

// HandleSetSubgroup сохраняет подгруппу, 0 снимает фильтр
func HandleSetSubgroup(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithContext(ctx, b, callback, h, func(hc *common.HandlerContext) {
		if hc.GroupChat {
			hc.AnswerAlert("Подгруппы доступны только в личных чатах")
			return
		}
		subgroup, err := strconv.Atoi(strings.TrimPrefix(callback.Data, common.SubgroupPrefix))
		if err != nil {
			common.HandleError(hc, common.ErrInvalidFormat, "set_subgroup")
			return
		}
		if err := h.UserService.SetSubgroup(ctx, hc.TelegramID, subgroup); err != nil {
			common.HandleError(hc, err, "set_subgroup")
			return
		}
		refresh(hc)

		answer := "Фильтр по подгруппе снят"
		if subgroup != 0 {
			answer = "Подгруппа " + strconv.Itoa(subgroup) + " сохранена"
		}
		common.LogAndAnswer(hc, "Subgroup set", answer)
	})
}

// HandleBack возвращает к экрану настроек
func HandleBack(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithContext(ctx, b, callback, h, func(hc *common.HandlerContext) {
		refresh(hc)
		hc.Answer("")
	})
}

// HandleClose удаляет сообщение с настройками
func HandleClose(ctx context.Context, b *bot.Bot, callback *models.CallbackQuery, h *callbacktypes.Handler) {
	common.WithContext(ctx, b, callback, h, func(hc *common.HandlerContext) {
		if err := hc.DeleteMessage(); err != nil {
			h.Logger.Warn("Failed to delete settings message", zap.Int64("chat_id", hc.ChatID), zap.Error(err))
		}
		hc.Answer("")
	})
}
