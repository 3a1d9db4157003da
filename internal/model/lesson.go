package model

import (
	"encoding/json"
	"strings"
)

// Lesson пара из расписания Raspyx
type Lesson struct {
	Subject   string     `json:"subject"`
	Type      string     `json:"type"`
	Teachers  StringList `json:"teachers"`
	Rooms     StringList `json:"rooms"`
	Location  string     `json:"location"`
	Link      string     `json:"link"`
	StartDate string     `json:"start_date"` // "YYYY-MM-DD"
	EndDate   string     `json:"end_date"`
	Subgroup  int        `json:"subgroup,omitempty"`

	// Номер пары, проставляется при разборе дня
	Pair int `json:"-"`
}

// DaySchedule пары дня по номеру пары
type DaySchedule map[string][]Lesson

// WeekSchedule расписание недели по английским названиям дней
type WeekSchedule map[string]DaySchedule

// IsOnline пара проходит по http(s) ссылке
func (l Lesson) IsOnline() bool {
	return strings.Contains(l.Link, "http://") || strings.Contains(l.Link, "https://")
}

// StringList список строк, принимающий в JSON как массив, так и одиночную строку
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*l = nil
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one == "" {
			*l = nil
		} else {
			*l = StringList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*l = many
	return nil
}
