package model

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

type User struct {
	UserID             int64      `json:"userid"`
	Group              string     `json:"group"`
	Role               *Role      `json:"role,omitempty"`
	DailyNotifyEnabled bool       `json:"daily_notify_enabled"`
	NotificationTime   *string    `json:"notification_time,omitempty"` // "HH:MM"
	NotifyOnline       bool       `json:"notify_online"`
	Username           string     `json:"username"`
	TutorialCompleted  bool       `json:"tutorial_completed"`
	Subgroup           *int       `json:"subgroup,omitempty"` // 1 или 2, nil - все
	CreatedAt          time.Time  `json:"created_at"`
	LastActivity       *time.Time `json:"last_activity,omitempty"`
}

// HasGroup пользователь уже выбрал группу
func (u *User) HasGroup() bool {
	return u != nil && u.Group != ""
}

// SubgroupValue подгруппа или 0, если фильтр не задан
func (u *User) SubgroupValue() int {
	if u == nil || u.Subgroup == nil {
		return 0
	}
	return *u.Subgroup
}
