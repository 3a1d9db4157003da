package model

import "time"

// Chat групповой чат, в который добавлен бот
type Chat struct {
	ChatID             int64     `json:"chatid"`
	ThreadID           *int64    `json:"thread_id,omitempty"`
	Group              string    `json:"group"`
	DailyNotifyEnabled bool      `json:"daily_notify_enabled"`
	NotificationTime   *string   `json:"notification_time,omitempty"`
	NotifyOnline       bool      `json:"notify_online"`
	CreatedAt          time.Time `json:"created_at"`
}

// Recipient адресат рассылки расписания: пользователь или чат
type Recipient struct {
	ChatID   int64
	ThreadID int
	Group    string
	Subgroup int
	IsChat   bool
}

// NotifySettings настройки уведомлений пользователя или чата
type NotifySettings struct {
	IsChat           bool
	Group            string
	DailyNotify      bool
	NotificationTime *string
	NotifyOnline     bool
	Subgroup         *int
}
