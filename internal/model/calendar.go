package model

import "time"

// HolidayAllGroups значение group_name для праздников всех групп
const HolidayAllGroups = "all"

type Holiday struct {
	ID        int64     `json:"id"`
	Group     string    `json:"group"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	Type      string    `json:"type"`
}

// SemesterBoundary границы семестра группы по данным расписания
type SemesterBoundary struct {
	Group     string     `json:"group"`
	FirstDate *time.Time `json:"first_date,omitempty"`
	LastDate  *time.Time `json:"last_date,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Contains проверяет, попадает ли дата в семестр; неизвестные границы не ограничивают
func (s *SemesterBoundary) Contains(date time.Time) bool {
	if s == nil {
		return true
	}
	d := date.Format("2006-01-02")
	if s.FirstDate != nil && d < s.FirstDate.Format("2006-01-02") {
		return false
	}
	if s.LastDate != nil && d > s.LastDate.Format("2006-01-02") {
		return false
	}
	return true
}

// GlobalGroup группа из каталога расписаний
type GlobalGroup struct {
	Name      string    `json:"group_name"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AlertedLesson отметка об отправленном напоминании об онлайн-паре
type AlertedLesson struct {
	ID        int64     `json:"id"`
	ChatID    int64     `json:"chatid"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"start_time"`
	Subject   string    `json:"sbj"`
}
