package service

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/raspyx"
)

var weekdayNames = map[time.Weekday]string{
	time.Monday:    "Понедельник",
	time.Tuesday:   "Вторник",
	time.Wednesday: "Среда",
	time.Thursday:  "Четверг",
	time.Friday:    "Пятница",
	time.Saturday:  "Суббота",
	time.Sunday:    "Воскресенье",
}

// WeekdayName русское название дня недели
func WeekdayName(d time.Weekday) string {
	return weekdayNames[d]
}

func weekdayKey(d time.Weekday) string {
	// time.Weekday начинается с воскресенья, ключи API - с понедельника
	return raspyx.Weekdays[(int(d)+6)%7]
}

// LessonsForDate пары на дату: фильтр по периоду проведения и подгруппе, сортировка по номеру пары
func LessonsForDate(week model.WeekSchedule, date time.Time, subgroup int) []model.Lesson {
	day, ok := week[weekdayKey(date.Weekday())]
	if !ok {
		return nil
	}

	var lessons []model.Lesson
	for num, list := range day {
		pair, err := strconv.Atoi(num)
		if err != nil {
			continue
		}
		for _, l := range list {
			if !lessonOnDate(l, date) {
				continue
			}
			if subgroup != 0 && l.Subgroup != 0 && l.Subgroup != subgroup {
				continue
			}
			l.Pair = pair
			lessons = append(lessons, l)
		}
	}

	sort.SliceStable(lessons, func(i, j int) bool {
		if lessons[i].Pair != lessons[j].Pair {
			return lessons[i].Pair < lessons[j].Pair
		}
		return lessons[i].Subject < lessons[j].Subject
	})
	return lessons
}

func lessonOnDate(l model.Lesson, date time.Time) bool {
	if l.StartDate == "" || l.EndDate == "" {
		return true
	}
	start, err1 := time.Parse("2006-01-02", l.StartDate)
	end, err2 := time.Parse("2006-01-02", l.EndDate)
	if err1 != nil || err2 != nil {
		return true
	}
	d := date.Format("2006-01-02")
	return start.Format("2006-01-02") <= d && d <= end.Format("2006-01-02")
}

// FormatLesson текст одной пары
func FormatLesson(l model.Lesson, t ScheduleType) string {
	var b strings.Builder

	subject := l.Subject
	if subject == "" {
		subject = "Предмет не указан"
	}

	b.WriteString("🕐 " + slotOrUnknown(t, l.Pair) + "\n")
	b.WriteString("📚 " + subject)
	if l.Type != "" {
		b.WriteString(" (" + l.Type + ")")
	}
	b.WriteString("\n")

	if len(l.Teachers) > 0 {
		b.WriteString("👨‍🏫 " + strings.Join(l.Teachers, ", ") + "\n")
	}

	online := l.IsOnline()
	switch {
	case len(l.Rooms) > 0 && online:
		b.WriteString("💻 Онлайн: " + l.Link + "\n")
	case len(l.Rooms) > 0:
		b.WriteString("🏛 " + strings.Join(l.Rooms, ", "))
		if l.Location != "" {
			b.WriteString(" (" + l.Location + ")")
		}
		b.WriteString("\n")
	case l.Location != "":
		b.WriteString("🏛 " + l.Location + "\n")
	}

	if l.Link != "" && !(len(l.Rooms) > 0 && online) {
		b.WriteString("🔗 " + l.Link + "\n")
	}

	return b.String()
}

// lessonPlace локация или первая аудитория для краткого вывода
func lessonPlace(l model.Lesson) string {
	if l.Location != "" {
		return l.Location
	}
	if len(l.Rooms) > 0 {
		return l.Rooms[0]
	}
	return ""
}
