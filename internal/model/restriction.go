package model

import "time"

// Ban временная блокировка пользователя
type Ban struct {
	UserID   int64 `json:"userid"`
	BanUntil int64 `json:"ban_until"` // unix ms
}

// Until время окончания блокировки
func (b *Ban) Until() time.Time {
	return time.UnixMilli(b.BanUntil)
}

// Active проверяет, действует ли блокировка в момент now
func (b *Ban) Active(now time.Time) bool {
	return b.BanUntil > now.UnixMilli()
}

// BlockedUser пользователь, заблокировавший бота
type BlockedUser struct {
	UserID    int64     `json:"userid"`
	Username  string    `json:"username"`
	BlockedAt time.Time `json:"blocked_at"`
}
