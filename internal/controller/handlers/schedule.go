package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/state"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
	"github.com/Freeeeeet/poly_schedule_bot/internal/textutil"
)

const (
	dateUsageText = "❌ Укажи дату в формате: /date [группа] ДД.ММ.ГГГГ\n" +
		"Примеры:\n" +
		"• /date 15.12.2025\n" +
		"• /date 241-362 15.12.2025"
	invalidDateText = "❌ Некорректная дата. Используй формат ДД.ММ.ГГГГ\nНапример: /date 15.12.2025"

	teacherUsageText = "❌ Укажи преподавателя: /teacher Иванов [ДД.ММ.ГГГГ]"
	roomUsageText    = "❌ Укажи аудиторию: /room Пр2402 [ДД.ММ.ГГГГ]"

	compareIntroText = "📊 Сравнение расписаний групп\n\n" +
		"Отправь номера групп для сравнения через пробел.\n" +
		"Можно также указать минимальную длительность окна (в минутах) и дату.\n\n" +
		"Примеры:\n" +
		"• 221-361 221-365\n" +
		"• 221-361 221-365 60\n" +
		"• 221-361 221-365 60 15.10.2025\n" +
		"• 221-361 221-365 60 8.10.2025-13.10.2025\n\n" +
		"Используй /cancel для отмены."
)

// HandleDay обрабатывает /day [группа] - расписание на сегодня
func (h *Handlers) HandleDay(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.sendDay(ctx, update, 0)
}

// HandleNextDay обрабатывает /nextday [группа] - расписание на завтра
func (h *Handlers) HandleNextDay(ctx context.Context, b *bot.Bot, update *models.Update) {
	h.sendDay(ctx, update, 1)
}

func (h *Handlers) sendDay(ctx context.Context, update *models.Update, offset int) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)

	group, subgroup, ok := h.resolveGroup(ctx, r, textutil.ExtractGroup(textutil.CommandPayload(r.msg.Text)))
	if !ok {
		return
	}

	date := h.now().AddDate(0, 0, offset)
	h.reply(ctx, r, h.schedules.DayResponse(ctx, group, date, subgroup))
}

// HandleCurrent обрабатывает /cur [группа] - текущее занятие
func (h *Handlers) HandleCurrent(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)

	group, subgroup, ok := h.resolveGroup(ctx, r, textutil.ExtractGroup(textutil.CommandPayload(r.msg.Text)))
	if !ok {
		return
	}
	h.reply(ctx, r, h.schedules.CurrentLesson(ctx, group, h.now(), subgroup))
}

// HandleDate обрабатывает /date [группа] ДД.ММ.ГГГГ
func (h *Handlers) HandleDate(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)

	args := textutil.CommandArgs(r.msg.Text)
	var explicit, rawDate string
	switch len(args) {
	case 1:
		rawDate = args[0]
	case 2:
		explicit, rawDate = textutil.ExtractGroup(args[0]), args[1]
		if explicit == "" {
			h.reply(ctx, r, dateUsageText)
			return
		}
	default:
		h.reply(ctx, r, dateUsageText)
		return
	}

	date, err := h.parseDate(rawDate)
	if err != nil {
		h.reply(ctx, r, invalidDateText)
		return
	}

	group, subgroup, ok := h.resolveGroup(ctx, r, explicit)
	if !ok {
		return
	}
	h.reply(ctx, r, h.schedules.DayResponse(ctx, group, date, subgroup))
}

// HandleWeek обрабатывает /week [группа] [ДД.ММ.ГГГГ] - картинка с расписанием недели
func (h *Handlers) HandleWeek(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)

	args, rawDate := splitTrailingDate(textutil.CommandArgs(r.msg.Text))
	date := h.now()
	if rawDate != "" {
		d, err := h.parseDate(rawDate)
		if err != nil {
			h.reply(ctx, r, invalidDateText)
			return
		}
		date = d
	}

	group, subgroup, ok := h.resolveGroup(ctx, r, textutil.ExtractGroup(strings.Join(args, " ")))
	if !ok {
		return
	}

	days, err := h.schedules.WeekLessons(ctx, group, date, subgroup)
	if err != nil {
		h.logger.Warn("Failed to load week", zap.String("group", group), zap.Error(err))
		h.reply(ctx, r, service.ScheduleFailedText(group))
		return
	}

	img, err := common.GenerateWeekImage(group, days, h.schedules.ScheduleType(), h.now())
	if err != nil {
		h.logger.Error("Failed to render week image", zap.String("group", group), zap.Error(err))
		h.reply(ctx, r, "❌ Не удалось нарисовать расписание недели")
		return
	}

	if err := h.messenger.SendPhoto(ctx, r.chatID, r.threadID, "week.png", img, common.WeekCaption(group, days)); err != nil {
		h.logger.Error("Failed to send week image", zap.Int64("chat_id", r.chatID), zap.Error(err))
	}
}

// HandleTeacher обрабатывает /teacher ФИО [ДД.ММ.ГГГГ]
func (h *Handlers) HandleTeacher(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)

	args, rawDate := splitTrailingDate(textutil.CommandArgs(r.msg.Text))
	if len(args) == 0 {
		h.reply(ctx, r, teacherUsageText)
		return
	}

	date := h.now()
	if rawDate != "" {
		d, err := h.parseDate(rawDate)
		if err != nil {
			h.reply(ctx, r, invalidDateText)
			return
		}
		date = d
	}
	h.reply(ctx, r, h.schedules.TeacherDay(ctx, strings.Join(args, " "), date))
}

// HandleRoom обрабатывает /room номер [ДД.ММ.ГГГГ]
func (h *Handlers) HandleRoom(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)

	args, rawDate := splitTrailingDate(textutil.CommandArgs(r.msg.Text))
	if len(args) == 0 {
		h.reply(ctx, r, roomUsageText)
		return
	}

	date := h.now()
	if rawDate != "" {
		d, err := h.parseDate(rawDate)
		if err != nil {
			h.reply(ctx, r, invalidDateText)
			return
		}
		date = d
	}
	h.reply(ctx, r, h.schedules.RoomDay(ctx, strings.Join(args, " "), date))
}

// HandleCompareGroups обрабатывает /compare_groups; без аргументов спрашивает группы следующим сообщением
func (h *Handlers) HandleCompareGroups(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)

	payload := textutil.CommandPayload(r.msg.Text)
	if payload == "" {
		h.states.SetState(r.stateKey(), state.StateAwaitingCompareGroups)
		h.reply(ctx, r, compareIntroText)
		return
	}
	h.compare(ctx, r, payload)
}

// compare разбирает аргументы сравнения и отвечает отчётом; false при ошибке разбора
func (h *Handlers) compare(ctx context.Context, r request, payload string) bool {
	req, err := service.ParseCompareArgs(payload, h.now())
	if err != nil {
		if !errors.Is(err, service.ErrNotEnoughGroups) && !errors.Is(err, service.ErrPeriodTooLong) &&
			!errors.Is(err, service.ErrPeriodReversed) {
			h.logger.Warn("Unexpected compare error", zap.Error(err))
		}
		h.reply(ctx, r, common.ErrorMessage(err))
		return false
	}

	h.reply(ctx, r, h.schedules.Compare(ctx, req))
	return true
}
