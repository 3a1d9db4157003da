package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config настройки бота
type Config struct {
	TelegramToken string
	Environment   string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBMaxConns int32

	AdminUserIDs []int64

	LogFile string

	APIBaseURL  string
	APIUsername string
	APIPassword string

	RateLimitMessages      int
	RateLimitWindowSeconds int
	BanDurationMinutes     int

	BroadcastBatchSize       int
	BroadcastIntervalSeconds int

	QueueMaxWorkers int
	QueueRateLimit  int

	InlineKeyboardTTLSeconds int

	MetricsAddr    string
	Timezone       string
	MigrationsAuto bool
}

// Load читает конфиг из .env и переменных окружения
func Load() (*Config, error) {
	// Пытаемся загрузить .env файл (игнорируем ошибку, если файла нет)
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	} else {
		log.Println("✅ Loaded configuration from .env file")
	}

	return FromEnv(os.Getenv)
}

// FromEnv собирает конфиг из функции поиска переменных
func FromEnv(getenv func(string) string) (*Config, error) {
	r := reader{getenv: getenv}

	cfg := &Config{
		TelegramToken: getenv("BOT_TOKEN"),
		Environment:   r.str("ENV", "development"),

		DBHost:     r.str("DB_HOST", "localhost"),
		DBPort:     r.int("DB_PORT", 5432),
		DBUser:     r.str("DB_USER", "postgres"),
		DBPassword: getenv("DB_PASSWORD"),
		DBName:     r.str("DB_NAME", "schedulebot"),
		DBMaxConns: int32(r.int("DB_MAX_CONNS", 10)),

		LogFile: r.str("LOG_FILE", "logs/bot.log"),

		APIBaseURL:  strings.TrimRight(r.str("API_BASE_URL", "https://zefixed.ru/raspyx"), "/"),
		APIUsername: getenv("API_USERNAME"),
		APIPassword: getenv("API_PASSWORD"),

		RateLimitMessages:      r.int("RATE_LIMIT_MESSAGES", 20),
		RateLimitWindowSeconds: r.int("RATE_LIMIT_WINDOW_SECONDS", 60),
		BanDurationMinutes:     r.int("BAN_DURATION_MINUTES", 5),

		BroadcastBatchSize:       r.int("BROADCAST_BATCH_SIZE", 20),
		BroadcastIntervalSeconds: r.int("BROADCAST_INTERVAL_SECONDS", 1),

		QueueMaxWorkers: r.int("MESSAGE_QUEUE_MAX_WORKERS", 5),
		QueueRateLimit:  r.int("MESSAGE_QUEUE_RATE_LIMIT", 30),

		InlineKeyboardTTLSeconds: r.int("INLINE_KEYBOARD_TTL_SECONDS", 3600),

		MetricsAddr:    r.str("METRICS_ADDR", ":8000"),
		Timezone:       r.str("TIMEZONE", "Europe/Moscow"),
		MigrationsAuto: r.bool("MIGRATIONS_AUTO", true),
	}

	ids, err := ParseAdminIDs(getenv("ADMIN_USER_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.AdminUserIDs = ids

	if cfg.MetricsAddr == "off" {
		cfg.MetricsAddr = ""
	}

	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required but not set")
	}

	return cfg, nil
}

// ParseAdminIDs разбирает список id через запятую
func ParseAdminIDs(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_USER_IDS entry %q: %w", part, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// DSN строка подключения к PostgreSQL
func (c *Config) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// Location часовой пояс расписания
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		log.Printf("⚠️  Unknown TIMEZONE %q, falling back to UTC+3", c.Timezone)
		return time.FixedZone("MSK", 3*60*60)
	}
	return loc
}

// IsGlobalAdmin проверяет id по списку ADMIN_USER_IDS
func (c *Config) IsGlobalAdmin(userID int64) bool {
	for _, id := range c.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

type reader struct {
	getenv func(string) string
}

func (r reader) str(key, def string) string {
	if v := strings.TrimSpace(r.getenv(key)); v != "" {
		return v
	}
	return def
}

func (r reader) int(key string, def int) int {
	raw := strings.TrimSpace(r.getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, raw, def)
		return def
	}
	return v
}

func (r reader) bool(key string, def bool) bool {
	raw := strings.TrimSpace(r.getenv(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %t", key, raw, def)
		return def
	}
	return v
}
