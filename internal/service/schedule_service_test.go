package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/raspyx"
)

type fakeSource struct {
	mu       sync.Mutex
	groups   map[string]model.WeekSchedule
	teachers map[string]model.WeekSchedule
	calls    map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		groups:   map[string]model.WeekSchedule{},
		teachers: map[string]model.WeekSchedule{},
		calls:    map[string]int{},
	}
}

func (f *fakeSource) GroupSchedule(_ context.Context, group string, _ bool) (model.WeekSchedule, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[group]++
	week, ok := f.groups[group]
	if !ok {
		return nil, raspyx.ErrNotFound
	}
	return week, nil
}

func (f *fakeSource) TeacherSchedule(_ context.Context, name string, _ bool) (model.WeekSchedule, error) {
	week, ok := f.teachers[name]
	if !ok {
		return nil, raspyx.ErrNotFound
	}
	return week, nil
}

func (f *fakeSource) RoomSchedule(context.Context, string, bool) (model.WeekSchedule, error) {
	return nil, errors.New("unavailable")
}

func (f *fakeSource) Groups(context.Context) ([]string, error) {
	names := make([]string, 0, len(f.groups))
	for name := range f.groups {
		names = append(names, name)
	}
	return names, nil
}

func (f *fakeSource) Teachers(context.Context) ([]string, error) {
	names := make([]string, 0, len(f.teachers))
	for name := range f.teachers {
		names = append(names, name)
	}
	return names, nil
}

type fakeHolidays map[string]*model.Holiday

func (f fakeHolidays) FindForDate(_ context.Context, group string, date time.Time) (*model.Holiday, error) {
	if h, ok := f[group+"@"+date.Format("2006-01-02")]; ok {
		return h, nil
	}
	return nil, nil
}

// 15.10.2025 - среда
var wednesday = time.Date(2025, 10, 15, 0, 0, 0, 0, time.UTC)

func mathLecture() model.Lesson {
	return model.Lesson{
		Subject:   "Математика",
		Type:      "Лекция",
		Teachers:  model.StringList{"Иванов И.И."},
		Rooms:     model.StringList{"ав4805"},
		Location:  "Автозаводская",
		StartDate: "2025-09-01",
		EndDate:   "2025-12-31",
	}
}

func newTestScheduleService(src *fakeSource, holidays fakeHolidays) *ScheduleService {
	return NewScheduleService(src, holidays, nil, clock.NewManual(wednesday), zap.NewNop())
}

func TestScheduleService_DayResponse(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.groups["241-362"] = model.WeekSchedule{
		"wednesday": {"1": {mathLecture()}},
	}
	holidays := fakeHolidays{
		"241-362@2025-11-04": {Group: "all", Type: "День народного единства"},
	}
	svc := newTestScheduleService(src, holidays)

	t.Run("lessons", func(t *testing.T) {
		text := svc.DayResponse(ctx, "241-362", wednesday, 0)
		expected := "📅 15.10.2025 (Среда)\nГруппа: 241-362\n\n" +
			"🕐 09:00-10:30\n📚 Математика (Лекция)\n👨‍🏫 Иванов И.И.\n🏛 ав4805 (Автозаводская)"
		assert.Equal(t, expected, text)
	})

	t.Run("no lessons", func(t *testing.T) {
		text := svc.DayResponse(ctx, "241-362", wednesday.AddDate(0, 0, 1), 0)
		assert.Equal(t, "📅 16.10.2025 (Четверг)\n\nЗанятий нет 🎉", text)
	})

	t.Run("holiday", func(t *testing.T) {
		text := svc.DayResponse(ctx, "241-362", time.Date(2025, 11, 4, 0, 0, 0, 0, time.UTC), 0)
		assert.Equal(t, "🎉 04.11.2025 - День народного единства!\nЗанятий нет.", text)
	})

	t.Run("unknown group", func(t *testing.T) {
		text := svc.DayResponse(ctx, "999-999", wednesday, 0)
		assert.Equal(t, "❌ Не удалось получить расписание для группы 999-999", text)
	})
}

func TestScheduleService_FetchScheduleUsesCache(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.groups["241-362"] = model.WeekSchedule{}
	svc := newTestScheduleService(src, nil)

	for i := 0; i < 3; i++ {
		_, err := svc.FetchSchedule(ctx, "241-362")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, src.calls["241-362"])

	svc.ClearCache()
	_, err := svc.FetchSchedule(ctx, "241-362")
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls["241-362"])
}

func TestScheduleService_CurrentLesson(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.groups["241-362"] = model.WeekSchedule{
		"wednesday": {"1": {mathLecture()}, "3": {mathLecture()}},
	}
	svc := newTestScheduleService(src, nil)

	at := func(h, m int) time.Time {
		return time.Date(2025, 10, 15, h, m, 0, 0, time.UTC)
	}

	assert.Contains(t, svc.CurrentLesson(ctx, "241-362", at(9, 15), 0), "⏰ Текущее занятие (09:00-10:30):")
	assert.Equal(t, "📚 Сейчас окно между парами", svc.CurrentLesson(ctx, "241-362", at(11, 0), 0))
	assert.Equal(t, "📚 Сейчас занятий нет", svc.CurrentLesson(ctx, "241-362", at(11, 0).AddDate(0, 0, 1), 0))
}

func TestScheduleService_CompareGroups(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.groups["241-362"] = model.WeekSchedule{"wednesday": {"1": {mathLecture()}}}
	src.groups["241-365"] = model.WeekSchedule{"wednesday": {"1": {mathLecture()}}}
	svc := newTestScheduleService(src, nil)

	text := svc.CompareGroups(ctx, []string{"241-362", "241-365"}, wednesday, 30)

	expected := "📊 Сравнение расписаний на 15.10.2025\n" +
		"Группы: 241-362, 241-365\n" +
		"Минимальная длительность окна: 30 мин\n" +
		"📍 Учитываются локации корпусов\n\n" +
		"✅ Общие свободные окна:\n" +
		"🕐 10:30 - 21:00 (630 мин) — обе группы в Автозаводская\n\n" +
		"📚 Расписание по группам:\n\n" +
		"Группа 241-362:\n  09:00-10:30: Математика [Автозаводская]\n\n" +
		"Группа 241-365:\n  09:00-10:30: Математика [Автозаводская]"
	assert.Equal(t, expected, text)

	failed := svc.CompareGroups(ctx, []string{"241-362", "000-000"}, wednesday, 0)
	assert.Equal(t, "❌ Не удалось получить расписание для группы 000-000", failed)
}

func TestScheduleService_CompareGroupsPeriod(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.groups["241-362"] = model.WeekSchedule{}
	src.groups["241-365"] = model.WeekSchedule{}
	svc := newTestScheduleService(src, nil)

	text := svc.CompareGroupsPeriod(ctx, []string{"241-362", "241-365"}, wednesday, wednesday.AddDate(0, 0, 1), 0)

	expected := "📊 Сравнение расписаний на период\n" +
		"с 15.10.2025 по 16.10.2025\n" +
		"Группы: 241-362, 241-365\n" +
		"📍 Учитываются локации корпусов\n\n" +
		"\n📅 15.10.2025 (Среда)\n" +
		"🕐 09:00 - 21:00 (720 мин) — обе группы свободны, можно выбрать любую локацию\n" +
		"\n📅 16.10.2025 (Четверг)\n" +
		"🕐 09:00 - 21:00 (720 мин) — обе группы свободны, можно выбрать любую локацию"
	assert.Equal(t, expected, text)
}

func TestScheduleService_TeacherDay(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.teachers["Иванов Иван Иванович"] = model.WeekSchedule{"wednesday": {"2": {mathLecture()}}}
	src.teachers["Иванова Мария Петровна"] = model.WeekSchedule{}
	svc := newTestScheduleService(src, nil)

	ambiguous := svc.TeacherDay(ctx, "иванов", wednesday)
	assert.Contains(t, ambiguous, "Найдено несколько преподавателей")

	text := svc.TeacherDay(ctx, "Иванов Иван", wednesday)
	assert.Contains(t, text, "Преподаватель: Иванов Иван Иванович")
	assert.Contains(t, text, "🕐 10:40-12:10")

	assert.Equal(t, "❌ Преподаватель «Петров» не найден", svc.TeacherDay(ctx, "Петров", wednesday))

	initials := svc.TeacherDay(ctx, "Иванов И.И.", wednesday)
	assert.Contains(t, initials, "Преподаватель: Иванов Иван Иванович")
}

func TestScheduleService_FindTeachers(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.teachers["Иванов Иван Иванович"] = model.WeekSchedule{}
	src.teachers["Иванова Мария Петровна"] = model.WeekSchedule{}
	src.teachers["Петров Пётр Сергеевич"] = model.WeekSchedule{}
	svc := newTestScheduleService(src, nil)

	tests := []struct {
		query string
		want  []string
	}{
		{"иванов", []string{"Иванов Иван Иванович", "Иванова Мария Петровна"}},
		{"Иванова", []string{"Иванова Мария Петровна"}},
		{"Петров", []string{"Петров Пётр Сергеевич"}},
		{"Петровна", nil},
		{"Мария", nil},
		{"Иванов Иван Иванович", []string{"Иванов Иван Иванович"}},
		{"Иванов М", []string{"Иванова Мария Петровна"}},
		{"  ", nil},
	}

	for _, tt := range tests {
		got, err := svc.FindTeachers(ctx, tt.query)
		require.NoError(t, err, tt.query)
		assert.Equal(t, tt.want, got, tt.query)
	}
}

func TestScheduleService_WeekLessons(t *testing.T) {
	ctx := context.Background()
	src := newFakeSource()
	src.groups["241-362"] = model.WeekSchedule{"wednesday": {"1": {mathLecture()}}}
	svc := newTestScheduleService(src, nil)

	days, err := svc.WeekLessons(ctx, "241-362", wednesday, 0)
	require.NoError(t, err)
	require.Len(t, days, 7)
	assert.Equal(t, time.Monday, days[0].Date.Weekday())
	assert.Equal(t, 13, days[0].Date.Day())
	assert.Len(t, days[2].Lessons, 1)
	assert.Empty(t, days[0].Lessons)
}
