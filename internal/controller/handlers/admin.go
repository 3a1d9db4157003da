package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/textutil"
)

const (
	defaultBanMinutes = 60

	banUsageText   = "Использование: /ban_user @username|id [минуты]\nПример: /ban_user @username 60"
	unbanUsageText = "Использование: /unban_user @username|id\nПример: /unban_user @username"
	grantUsageText = "Использование: /grant <id> <право>\nПрава: "
	revokeUsage    = "Использование: /revoke <id> [право]\nБез права админ удаляется целиком"
)

var errBadUserID = errors.New("invalid user id")

// banTarget разобранный аргумент @username или числовой id
type banTarget struct {
	username string
	id       int64
}

func (t banTarget) String() string {
	if t.username != "" {
		return "@" + t.username
	}
	return strconv.FormatInt(t.id, 10)
}

func parseTarget(arg string) (banTarget, error) {
	if strings.HasPrefix(arg, "@") {
		name := strings.TrimPrefix(arg, "@")
		if name == "" {
			return banTarget{}, errBadUserID
		}
		return banTarget{username: name}, nil
	}
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return banTarget{}, errBadUserID
	}
	return banTarget{id: id}, nil
}

// resolveTarget находит id пользователя по @username; при ok=false ответ уже отправлен
func (h *Handlers) resolveTarget(ctx context.Context, r request, arg string) (banTarget, bool) {
	t, err := parseTarget(arg)
	if err != nil {
		h.reply(ctx, r, "❌ Неверный формат ID")
		return t, false
	}
	if t.username == "" {
		return t, true
	}

	u, err := h.users.GetUserByUsername(ctx, t.username)
	if err != nil || u == nil {
		h.reply(ctx, r, "❌ Пользователь "+t.String()+" не найден")
		return t, false
	}
	t.id = u.UserID
	return t, true
}

// HandleBanUser обрабатывает /ban_user @username|id [минуты]
func (h *Handlers) HandleBanUser(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requirePermission(ctx, r, model.PermBanUser) {
		return
	}

	args := textutil.CommandArgs(r.msg.Text)
	if len(args) == 0 || len(args) > 2 {
		h.reply(ctx, r, banUsageText)
		return
	}

	minutes := defaultBanMinutes
	if len(args) == 2 {
		m, err := strconv.Atoi(args[1])
		if err != nil || m <= 0 {
			h.reply(ctx, r, banUsageText)
			return
		}
		minutes = m
	}

	target, ok := h.resolveTarget(ctx, r, args[0])
	if !ok {
		return
	}

	if _, err := h.bans.Ban(ctx, target.id, time.Duration(minutes)*time.Minute); err != nil {
		h.replyError(ctx, r, err, "ban_user")
		return
	}
	h.reply(ctx, r, fmt.Sprintf("✅ Пользователь %s забанен на %d %s", target, minutes, formatting.PluralizeMinutes(minutes)))
}

// HandleUnbanUser обрабатывает /unban_user @username|id
func (h *Handlers) HandleUnbanUser(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requirePermission(ctx, r, model.PermUnbanUser) {
		return
	}

	args := textutil.CommandArgs(r.msg.Text)
	if len(args) != 1 {
		h.reply(ctx, r, unbanUsageText)
		return
	}

	target, ok := h.resolveTarget(ctx, r, args[0])
	if !ok {
		return
	}

	removed, err := h.bans.Unban(ctx, target.id)
	if err != nil {
		h.replyError(ctx, r, err, "unban_user")
		return
	}
	if !removed {
		h.reply(ctx, r, "ℹ️ Пользователь "+target.String()+" не был забанен")
		return
	}
	h.reply(ctx, r, "✅ Пользователь "+target.String()+" разбанен")
}

// BanListText ответ на /list_bans
func BanListText(bans []*model.Ban, loc *time.Location) string {
	if len(bans) == 0 {
		return "Активных банов нет"
	}
	var b strings.Builder
	b.WriteString("📋 Активные баны:\n\n")
	for _, ban := range bans {
		fmt.Fprintf(&b, "• ID %d до %s\n", ban.UserID, textutil.FormatDateTime(ban.Until().In(loc)))
	}
	return b.String()
}

// HandleListBans обрабатывает /list_bans
func (h *Handlers) HandleListBans(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requirePermission(ctx, r, model.PermListBans) {
		return
	}

	bans, err := h.bans.ListActive(ctx)
	if err != nil {
		h.replyError(ctx, r, err, "list_bans")
		return
	}
	h.reply(ctx, r, BanListText(bans, h.loc))
}

// HandleStat обрабатывает /stat
func (h *Handlers) HandleStat(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requirePermission(ctx, r, model.PermStatCommand) {
		return
	}

	st, err := h.stats.Collect(ctx)
	if err != nil {
		h.replyError(ctx, r, err, "stat")
		return
	}
	h.reply(ctx, r, st.Text())
}

// HandleListBlocked обрабатывает /list_blocked
func (h *Handlers) HandleListBlocked(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requirePermission(ctx, r, model.PermListBlocked) {
		return
	}

	text, err := h.stats.BlockedText(ctx)
	if err != nil {
		h.replyError(ctx, r, err, "list_blocked")
		return
	}
	h.reply(ctx, r, text)
}

func permissionNames() string {
	names := make([]string, 0, len(model.AllPermissions))
	for _, p := range model.AllPermissions {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}

// HandleGrant обрабатывает /grant <id> <право>
func (h *Handlers) HandleGrant(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requireGlobalAdmin(ctx, r) {
		return
	}

	args := textutil.CommandArgs(r.msg.Text)
	if len(args) != 2 {
		h.reply(ctx, r, grantUsageText+permissionNames())
		return
	}
	perm, ok := model.ParsePermission(args[1])
	if !ok {
		h.reply(ctx, r, "❌ Неизвестное право. Доступны: "+permissionNames())
		return
	}
	target, ok := h.resolveTarget(ctx, r, args[0])
	if !ok {
		return
	}

	username := target.username
	if username == "" {
		if u, err := h.users.GetUser(ctx, target.id); err == nil && u != nil {
			username = u.Username
		}
	}

	if err := h.access.Grant(ctx, r.userID, target.id, username, perm); err != nil {
		h.replyError(ctx, r, err, "grant")
		return
	}
	h.reply(ctx, r, fmt.Sprintf("✅ Право %s выдано пользователю %s", perm, target))
}

// HandleRevoke обрабатывает /revoke <id> [право]
func (h *Handlers) HandleRevoke(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requireGlobalAdmin(ctx, r) {
		return
	}

	args := textutil.CommandArgs(r.msg.Text)
	if len(args) == 0 || len(args) > 2 {
		h.reply(ctx, r, revokeUsage)
		return
	}

	var perm model.Permission
	if len(args) == 2 {
		p, ok := model.ParsePermission(args[1])
		if !ok {
			h.reply(ctx, r, "❌ Неизвестное право. Доступны: "+permissionNames())
			return
		}
		perm = p
	}
	target, ok := h.resolveTarget(ctx, r, args[0])
	if !ok {
		return
	}

	removed, err := h.access.Revoke(ctx, r.userID, target.id, perm)
	if err != nil {
		h.replyError(ctx, r, err, "revoke")
		return
	}
	switch {
	case !removed:
		h.reply(ctx, r, "ℹ️ У пользователя "+target.String()+" нет такого права")
	case perm == "":
		h.reply(ctx, r, "✅ Пользователь "+target.String()+" больше не админ")
	default:
		h.reply(ctx, r, fmt.Sprintf("✅ Право %s отозвано у пользователя %s", perm, target))
	}
}

// AdminsText ответ на /admins
func AdminsText(global []int64, admins []*model.AdminUser) string {
	var b strings.Builder
	b.WriteString("🛡️ Глобальные админы:\n")
	if len(global) == 0 {
		b.WriteString("—\n")
	}
	for _, id := range global {
		fmt.Fprintf(&b, "• ID %d\n", id)
	}

	b.WriteString("\n👮 Делегированные админы:\n")
	if len(admins) == 0 {
		b.WriteString("—\n")
	}
	for _, a := range admins {
		perms := make([]string, 0, len(a.Permissions))
		for _, p := range a.Permissions {
			perms = append(perms, string(p))
		}
		fmt.Fprintf(&b, "• %s: %s\n", textutil.Mention(a.Username, a.UserID), strings.Join(perms, ", "))
	}
	return b.String()
}

// HandleAdmins обрабатывает /admins
func (h *Handlers) HandleAdmins(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	r := newRequest(update.Message)
	if !h.requireGlobalAdmin(ctx, r) {
		return
	}

	admins, err := h.access.ListAdmins(ctx)
	if err != nil {
		h.replyError(ctx, r, err, "admins")
		return
	}
	h.reply(ctx, r, AdminsText(h.access.GlobalAdmins(), admins))
}
