package controller

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/callbacktypes"
	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/handlers"
	"github.com/Freeeeeet/poly_schedule_bot/internal/metrics"
)

// menuCommands команды в меню бота; админские видны только в /help
var menuCommands = []models.BotCommand{
	{Command: "start", Description: "🚀 Начать работу с ботом"},
	{Command: "help", Description: "❓ Справка по командам"},
	{Command: "day", Description: "📅 Расписание на сегодня"},
	{Command: "nextday", Description: "📆 Расписание на завтра"},
	{Command: "cur", Description: "⏱ Текущая пара"},
	{Command: "week", Description: "🗓 Расписание на неделю"},
	{Command: "date", Description: "🔎 Расписание на дату"},
	{Command: "teacher", Description: "👨‍🏫 Пары преподавателя"},
	{Command: "room", Description: "🚪 Занятия в аудитории"},
	{Command: "add", Description: "➕ Установить группу"},
	{Command: "settings", Description: "⚙️ Настройки уведомлений"},
	{Command: "compare_groups", Description: "🔀 Сравнить группы"},
	{Command: "feedback", Description: "💬 Отправить отзыв"},
	{Command: "cancel", Description: "❌ Отменить действие"},
}

type BotController struct {
	bot             *bot.Bot
	handlers        *handlers.Handlers
	callbackHandler *callbacks.Handler
	metrics         *metrics.Metrics
	logger          *zap.Logger

	botUsername string
}

func NewBotController(botInstance *bot.Bot, deps handlers.Deps) *BotController {
	callbackHandler := callbacks.NewHandler(&callbacktypes.Handler{
		UserService:     deps.Users,
		FeedbackService: deps.Feedback,
		AccessService:   deps.Access,
		Keyboards:       deps.Keyboards,
		Messenger:       deps.Messenger,
		StateManager:    deps.States,
		Metrics:         deps.Metrics,
		Clock:           deps.Clock,
		Logger:          deps.Logger,
	})

	return &BotController{
		bot:             botInstance,
		handlers:        handlers.NewHandlers(deps),
		callbackHandler: callbackHandler,
		metrics:         deps.Metrics,
		logger:          deps.Logger,
	}
}

// parseCommand достаёт имя команды из "/cmd", "/cmd@bot args".
// Команды, адресованные другому боту, не распознаются
func parseCommand(text, botUsername string) (string, bool) {
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	word := strings.Fields(text)[0][1:]
	name, target, addressed := strings.Cut(word, "@")
	if addressed && botUsername != "" && !strings.EqualFold(target, botUsername) {
		return "", false
	}
	if name == "" {
		return "", false
	}
	return strings.ToLower(name), true
}

func (c *BotController) commandMatcher(name string) bot.MatchFunc {
	return func(update *models.Update) bool {
		if update.Message == nil {
			return false
		}
		cmd, ok := parseCommand(update.Message.Text, c.botUsername)
		return ok && cmd == name
	}
}

// isDialogMessage сообщение без команды: шаг диалога, фидбек с медиа или текст для автоответа
func (c *BotController) isDialogMessage(update *models.Update) bool {
	if update.Message == nil || update.Message.From == nil {
		return false
	}
	return !strings.HasPrefix(update.Message.Text, "/")
}

func (c *BotController) counted(name string, h bot.HandlerFunc) bot.HandlerFunc {
	return func(ctx context.Context, b *bot.Bot, update *models.Update) {
		c.metrics.Command(name)
		h(ctx, b, update)
	}
}

func (c *BotController) commands() map[string]bot.HandlerFunc {
	h := c.handlers
	return map[string]bot.HandlerFunc{
		"start":          h.HandleStart,
		"help":           h.HandleHelp,
		"cancel":         h.HandleCancel,
		"add":            h.HandleAddGroup,
		"change_group":   h.HandleAddGroup,
		"day":            h.HandleDay,
		"nextday":        h.HandleNextDay,
		"cur":            h.HandleCurrent,
		"date":           h.HandleDate,
		"week":           h.HandleWeek,
		"teacher":        h.HandleTeacher,
		"room":           h.HandleRoom,
		"compare_groups": h.HandleCompareGroups,
		"settings":       h.HandleSettings,
		"feedback":       h.HandleFeedback,

		"asks":          h.HandleAsks,
		"ban_user":      h.HandleBanUser,
		"unban_user":    h.HandleUnbanUser,
		"list_bans":     h.HandleListBans,
		"broadcast":     h.HandleBroadcast,
		"stat":          h.HandleStat,
		"list_blocked":  h.HandleListBlocked,
		"add_holidays":  h.HandleAddHolidays,
		"list_holidays": h.HandleListHolidays,
		"del_holiday":   h.HandleDeleteHoliday,

		"grant":       h.HandleGrant,
		"revoke":      h.HandleRevoke,
		"admins":      h.HandleAdmins,
		"add_pattern": h.HandleAddPattern,
		"del_pattern": h.HandleDeletePattern,
		"patterns":    h.HandlePatterns,
		"add_name":    h.HandleAddName,
		"del_name":    h.HandleDeleteName,
		"names":       h.HandleNames,
	}
}

// RegisterHandlers узнаёт username бота, регистрирует обработчики и меню команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	me, err := c.bot.GetMe(ctx)
	if err != nil {
		return fmt.Errorf("get me: %w", err)
	}
	c.botUsername = me.Username
	c.handlers.SetBotUsername(me.Username)
	c.logger.Info("Bot identity resolved", zap.String("username", me.Username), zap.Int64("id", me.ID))

	for name, handler := range c.commands() {
		c.bot.RegisterHandlerMatchFunc(c.commandMatcher(name), c.counted(name, handler))
	}

	// Сообщения без команды (для диалогов с состояниями и автоответов)
	c.bot.RegisterHandlerMatchFunc(c.isDialogMessage, c.handlers.HandleMessage)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, "", bot.MatchTypePrefix, c.callbackHandler.HandleCallbackQuery)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: menuCommands,
	})

	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены контекста
func (c *BotController) Start(ctx context.Context) error {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	return nil
}
