package model

import "time"

type Permission string

const (
	PermBanUser       Permission = "ban_user"
	PermUnbanUser     Permission = "unban_user"
	PermListBans      Permission = "list_bans"
	PermAddHolidays   Permission = "add_holidays"
	PermListHolidays  Permission = "list_holidays"
	PermBroadcast     Permission = "broadcast"
	PermFeedbackRead  Permission = "feedback_read"
	PermFeedbackReply Permission = "feedback_reply"
	PermListBlocked   Permission = "list_blocked"
	PermStatCommand   Permission = "stat_command"
)

// AllPermissions все права, которые можно выдать делегированному админу
var AllPermissions = []Permission{
	PermBanUser,
	PermUnbanUser,
	PermListBans,
	PermAddHolidays,
	PermListHolidays,
	PermBroadcast,
	PermFeedbackRead,
	PermFeedbackReply,
	PermListBlocked,
	PermStatCommand,
}

// ParsePermission проверяет, что строка - известное право
func ParsePermission(s string) (Permission, bool) {
	for _, p := range AllPermissions {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

type AdminUser struct {
	UserID      int64        `json:"userid"`
	Username    string       `json:"username"`
	CreatedAt   time.Time    `json:"created_at"`
	Permissions []Permission `json:"permissions,omitempty"`
}
