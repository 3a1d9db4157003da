package state

import "time"

// UserState представляет текущее состояние пользователя в диалоге
type UserState string

const (
	StateNone UserState = "" // Нет активного состояния

	StateChooseRole            UserState = "choose_role"
	StateAwaitingCompareGroups UserState = "awaiting_compare_groups"
	StateAwaitingBroadcast     UserState = "awaiting_broadcast"
	StateAwaitingFeedback      UserState = "awaiting_feedback"
	StateReplyingFeedback      UserState = "replying_feedback"
	StateChangingNotifyTime    UserState = "changing_notify_time"
)

// Ключи временных данных диалога
const (
	DataFeedbackID = "feedback_id"
)

// DefaultTTL время жизни состояния без активности
const DefaultTTL = 60 * time.Second

// Key состояние хранится отдельно для каждого пользователя в каждом чате
type Key struct {
	ChatID int64
	UserID int64
}

// UserData хранит временные данные пользователя во время диалога
type UserData struct {
	State     UserState
	Data      map[string]interface{} // Временные данные для текущего диалога
	ExpiresAt time.Time
}
