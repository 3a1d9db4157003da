package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/repository"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
	"github.com/Freeeeeet/poly_schedule_bot/internal/textutil"
)

const patternUsageText = "Использование: /add_pattern <regexp> => <ответ>\nПример: /add_pattern привет|здравствуй => Привет! 👋"

// PatternListText ответ на /patterns
func PatternListText(patterns []*model.Pattern) string {
	if len(patterns) == 0 {
		return "Автоответов нет"
	}
	var b strings.Builder
	b.WriteString("💬 Автоответы:\n\n")
	for _, p := range patterns {
		fmt.Fprintf(&b, "#%d %s => %s\n", p.ID, p.Pattern, textutil.Truncate(p.Response, 60))
	}
	return b.String()
}

// NameListText ответ на /names
func NameListText(names []*model.PersonalizedName) string {
	if len(names) == 0 {
		return "Имён нет. В группах бот отвечает только на ответы на свои сообщения"
	}
	list := make([]string, 0, len(names))
	for _, n := range names {
		list = append(list, n.Name)
	}
	return "🏷 Бот откликается на: " + strings.Join(list, ", ")
}

// HandleAddPattern обрабатывает /add_pattern <regexp> => <ответ>
func (h *Handlers) HandleAddPattern(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requireGlobalAdmin(ctx, r) {
		return
	}

	pattern, response, ok := service.ParsePatternArgs(textutil.CommandPayload(r.msg.Text))
	if !ok {
		h.reply(ctx, r, patternUsageText)
		return
	}

	p, err := h.patterns.AddPattern(ctx, pattern, response)
	if err != nil {
		h.replyError(ctx, r, err, "add_pattern")
		return
	}
	h.reply(ctx, r, fmt.Sprintf("✅ Автоответ #%d добавлен", p.ID))
}

// HandleDeletePattern обрабатывает /del_pattern <id>
func (h *Handlers) HandleDeletePattern(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requireGlobalAdmin(ctx, r) {
		return
	}

	args := textutil.CommandArgs(r.msg.Text)
	if len(args) != 1 {
		h.reply(ctx, r, "Использование: /del_pattern <id>")
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		h.reply(ctx, r, "❌ Неверный формат ID")
		return
	}

	deleted, err := h.patterns.DeletePattern(ctx, id)
	if err != nil {
		h.replyError(ctx, r, err, "del_pattern")
		return
	}
	if !deleted {
		h.reply(ctx, r, fmt.Sprintf("❌ Автоответ #%d не найден", id))
		return
	}
	h.reply(ctx, r, fmt.Sprintf("✅ Автоответ #%d удалён", id))
}

// HandlePatterns обрабатывает /patterns
func (h *Handlers) HandlePatterns(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requireGlobalAdmin(ctx, r) {
		return
	}

	patterns, err := h.patterns.ListPatterns(ctx)
	if err != nil {
		h.replyError(ctx, r, err, "patterns")
		return
	}
	h.reply(ctx, r, PatternListText(patterns))
}

// HandleAddName обрабатывает /add_name <имя>
func (h *Handlers) HandleAddName(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requireGlobalAdmin(ctx, r) {
		return
	}

	name := textutil.CommandPayload(r.msg.Text)
	if name == "" {
		h.reply(ctx, r, "Использование: /add_name <имя>\nПример: /add_name Поли")
		return
	}

	if _, err := h.patterns.AddName(ctx, name); err != nil {
		if errors.Is(err, repository.ErrAlreadyExists) {
			h.reply(ctx, r, "ℹ️ Имя «"+name+"» уже есть")
			return
		}
		h.replyError(ctx, r, err, "add_name")
		return
	}
	h.reply(ctx, r, "✅ Теперь бот откликается на «"+name+"»")
}

// HandleDeleteName обрабатывает /del_name <имя>
func (h *Handlers) HandleDeleteName(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requireGlobalAdmin(ctx, r) {
		return
	}

	name := textutil.CommandPayload(r.msg.Text)
	if name == "" {
		h.reply(ctx, r, "Использование: /del_name <имя>")
		return
	}

	deleted, err := h.patterns.DeleteName(ctx, name)
	if err != nil {
		h.replyError(ctx, r, err, "del_name")
		return
	}
	if !deleted {
		h.reply(ctx, r, "❌ Имя «"+name+"» не найдено")
		return
	}
	h.reply(ctx, r, "✅ Имя «"+name+"» удалено")
}

// HandleNames обрабатывает /names
func (h *Handlers) HandleNames(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requireGlobalAdmin(ctx, r) {
		return
	}

	names, err := h.patterns.ListNames(ctx)
	if err != nil {
		h.replyError(ctx, r, err, "names")
		return
	}
	h.reply(ctx, r, NameListText(names))
}

// autoReply отвечает по первому подходящему шаблону.
// В группах только когда к боту обратились по имени или ответили на его сообщение
func (h *Handlers) autoReply(ctx context.Context, r request) {
	text := r.text()
	if text == "" {
		return
	}

	if r.group && !h.addressedToBot(ctx, r) {
		return
	}

	response, ok := h.patterns.Match(ctx, text)
	if !ok {
		return
	}
	h.metrics.Command("auto_reply")
	h.messenger.Reply(ctx, r.msg, response)
}

func (h *Handlers) addressedToBot(ctx context.Context, r request) bool {
	if reply := r.msg.ReplyToMessage; reply != nil && reply.From != nil && h.botUsername != "" &&
		strings.EqualFold(reply.From.Username, h.botUsername) {
		return true
	}
	return h.patterns.Mentioned(ctx, r.text())
}
