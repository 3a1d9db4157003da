package service

import (
	"fmt"
	"strings"
)

// ScheduleType тип сетки звонков
type ScheduleType int

const (
	ScheduleTypeDefault ScheduleType = 0
	ScheduleTypeEvening ScheduleType = 1
	ScheduleTypeLate    ScheduleType = 2
)

var commonPairs = []string{
	"09:00-10:30",
	"10:40-12:10",
	"12:20-13:50",
	"14:30-16:00",
	"16:10-17:40",
}

var scheduleTimes = map[ScheduleType][]string{
	ScheduleTypeDefault: append(append([]string{}, commonPairs...), "17:50-19:20", "19:30-21:00"),
	ScheduleTypeEvening: append(append([]string{}, commonPairs...), "18:20-19:40", "19:50-21:10"),
	ScheduleTypeLate:    append(append([]string{}, commonPairs...), "18:30-20:00", "20:10-21:40"),
}

// PairSlot время пары вида "09:00-10:30"
func PairSlot(t ScheduleType, pair int) (string, bool) {
	slots, ok := scheduleTimes[t]
	if !ok || pair < 1 || pair > len(slots) {
		return "", false
	}
	return slots[pair-1], true
}

// PairTime начало и конец пары
func PairTime(t ScheduleType, pair int) (start, end string, ok bool) {
	slot, ok := PairSlot(t, pair)
	if !ok {
		return "", "", false
	}
	parts := strings.SplitN(slot, "-", 2)
	return parts[0], parts[1], true
}

func slotOrUnknown(t ScheduleType, pair int) string {
	if slot, ok := PairSlot(t, pair); ok {
		return slot
	}
	return "??:??-??:??"
}

// minutesOf переводит HH:MM в минуты от начала суток
func minutesOf(hhmm string) int {
	var h, m int
	if _, err := fmt.Sscanf(hhmm, "%d:%d", &h, &m); err != nil {
		return 0
	}
	return h*60 + m
}

func clockOf(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
