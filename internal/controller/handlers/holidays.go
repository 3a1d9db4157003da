package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
	"github.com/Freeeeeet/poly_schedule_bot/internal/textutil"
)

const holidayUsageText = "Использование: /add_holidays <group|all> DD.MM.YYYY DD.MM.YYYY <тип>\n" +
	"Пример: /add_holidays 241-362 01.01.2024 10.01.2024 Зимние каникулы"

func holidayGroupTitle(group string) string {
	if group == model.HolidayAllGroups {
		return "все группы"
	}
	return group
}

// HolidayAddedText подтверждение добавления каникул
func HolidayAddedText(h *model.Holiday) string {
	return fmt.Sprintf("✅ Каникулы добавлены:\nГруппа: %s\nПериод: %s - %s\nТип: %s",
		holidayGroupTitle(h.Group),
		formatting.FormatDate(h.StartDate),
		formatting.FormatDate(h.EndDate),
		h.Type)
}

// HolidayListText ответ на /list_holidays
func HolidayListText(holidays []*model.Holiday) string {
	if len(holidays) == 0 {
		return "Каникулы не добавлены"
	}
	var b strings.Builder
	b.WriteString("🎉 Каникулы и праздники:\n\n")
	for _, h := range holidays {
		fmt.Fprintf(&b, "#%d %s: %s - %s, %s\n",
			h.ID,
			holidayGroupTitle(h.Group),
			formatting.FormatDate(h.StartDate),
			formatting.FormatDate(h.EndDate),
			h.Type)
	}
	b.WriteString("\nУдалить: /del_holiday <id>")
	return b.String()
}

// HandleAddHolidays обрабатывает /add_holidays
func (h *Handlers) HandleAddHolidays(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requirePermission(ctx, r, model.PermAddHolidays) {
		return
	}

	payload := textutil.CommandPayload(r.msg.Text)
	if len(strings.Fields(payload)) < 4 {
		h.reply(ctx, r, holidayUsageText)
		return
	}

	holiday, err := h.holidays.Add(ctx, payload)
	switch {
	case errors.Is(err, service.ErrInvalidDate), errors.Is(err, service.ErrUnknownGroup):
		h.reply(ctx, r, common.ErrorMessage(err)+"\n\n"+holidayUsageText)
		return
	case err != nil:
		h.replyError(ctx, r, err, "add_holidays")
		return
	}
	h.reply(ctx, r, HolidayAddedText(holiday))
}

// HandleListHolidays обрабатывает /list_holidays
func (h *Handlers) HandleListHolidays(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requirePermission(ctx, r, model.PermListHolidays) {
		return
	}

	holidays, err := h.holidays.List(ctx)
	if err != nil {
		h.replyError(ctx, r, err, "list_holidays")
		return
	}
	h.reply(ctx, r, HolidayListText(holidays))
}

// HandleDeleteHoliday обрабатывает /del_holiday <id>
func (h *Handlers) HandleDeleteHoliday(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requirePermission(ctx, r, model.PermAddHolidays) {
		return
	}

	args := textutil.CommandArgs(r.msg.Text)
	if len(args) != 1 {
		h.reply(ctx, r, "Использование: /del_holiday <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.reply(ctx, r, "❌ Неверный формат ID")
		return
	}

	deleted, err := h.holidays.Delete(ctx, id)
	if err != nil {
		h.replyError(ctx, r, err, "del_holiday")
		return
	}
	if !deleted {
		h.reply(ctx, r, fmt.Sprintf("❌ Каникулы #%d не найдены", id))
		return
	}
	h.reply(ctx, r, fmt.Sprintf("✅ Каникулы #%d удалены", id))
}
