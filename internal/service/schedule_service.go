package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Freeeeeet/poly_schedule_bot/internal/clock"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/raspyx"
)

const (
	scheduleCacheTTL = 24 * time.Hour
	catalogCacheTTL  = 168 * time.Hour

	dateFormat = "02.01.2006"
)

// ScheduleSource источник расписаний (Raspyx API)
type ScheduleSource interface {
	GroupSchedule(ctx context.Context, group string, session bool) (model.WeekSchedule, error)
	TeacherSchedule(ctx context.Context, fullname string, session bool) (model.WeekSchedule, error)
	RoomSchedule(ctx context.Context, room string, session bool) (model.WeekSchedule, error)
	Groups(ctx context.Context) ([]string, error)
	Teachers(ctx context.Context) ([]string, error)
}

// HolidayFinder поиск праздника на дату
type HolidayFinder interface {
	FindForDate(ctx context.Context, group string, date time.Time) (*model.Holiday, error)
}

type ScheduleService struct {
	source    ScheduleSource
	holidays  HolidayFinder
	semesters *SemesterService
	schedules *TTLCache[model.WeekSchedule]
	catalogs  *TTLCache[[]string]
	clock     clock.Clock
	times     ScheduleType
	logger    *zap.Logger
}

func NewScheduleService(
	source ScheduleSource,
	holidays HolidayFinder,
	semesters *SemesterService,
	c clock.Clock,
	logger *zap.Logger,
) *ScheduleService {
	return &ScheduleService{
		source:    source,
		holidays:  holidays,
		semesters: semesters,
		schedules: NewTTLCache[model.WeekSchedule](c),
		catalogs:  NewTTLCache[[]string](c),
		clock:     c,
		times:     ScheduleTypeDefault,
		logger:    logger,
	}
}

// ScheduleType сетка звонков, по которой считаются пары
func (s *ScheduleService) ScheduleType() ScheduleType {
	return s.times
}

// FetchSchedule расписание группы с кэшированием на сутки
func (s *ScheduleService) FetchSchedule(ctx context.Context, group string) (model.WeekSchedule, error) {
	key := "group:" + group
	if week, ok := s.schedules.Get(key); ok {
		return week, nil
	}

	week, err := s.source.GroupSchedule(ctx, group, false)
	if err != nil {
		s.logger.Warn("Failed to fetch schedule",
			zap.String("group", group),
			zap.Error(err),
		)
		return nil, fmt.Errorf("fetch schedule %s: %w", group, err)
	}

	s.schedules.Set(key, week, scheduleCacheTTL)
	s.logger.Debug("Schedule cached", zap.String("group", group))

	if s.semesters != nil {
		s.semesters.Refresh(ctx, group, week)
	}
	return week, nil
}

// ClearCache сбрасывает закэшированные расписания и справочники
func (s *ScheduleService) ClearCache() {
	s.schedules.Clear()
	s.catalogs.Clear()
	s.logger.Info("Schedule cache cleared")
}

// CacheStats попадания и промахи кэша расписаний
func (s *ScheduleService) CacheStats() (hits, misses uint64) {
	return s.schedules.Stats()
}

// LessonsOn пары группы на дату
func (s *ScheduleService) LessonsOn(ctx context.Context, group string, date time.Time, subgroup int) ([]model.Lesson, error) {
	week, err := s.FetchSchedule(ctx, group)
	if err != nil {
		return nil, err
	}
	return LessonsForDate(week, date, subgroup), nil
}

func (s *ScheduleService) holiday(ctx context.Context, group string, date time.Time) *model.Holiday {
	if s.holidays == nil {
		return nil
	}
	h, err := s.holidays.FindForDate(ctx, group, date)
	if err != nil {
		s.logger.Error("Failed to check holiday",
			zap.String("group", group),
			zap.Time("date", date),
			zap.Error(err),
		)
		return nil
	}
	return h
}

// IsHoliday дата попадает в каникулы группы
func (s *ScheduleService) IsHoliday(ctx context.Context, group string, date time.Time) bool {
	return s.holiday(ctx, group, date) != nil
}

func dayHeader(date time.Time) string {
	return fmt.Sprintf("📅 %s (%s)", date.Format(dateFormat), WeekdayName(date.Weekday()))
}

// ScheduleFailedText текст ошибки загрузки расписания группы
func ScheduleFailedText(group string) string {
	return "❌ Не удалось получить расписание для группы " + group
}

// DayResponse текст расписания группы на дату
func (s *ScheduleService) DayResponse(ctx context.Context, group string, date time.Time, subgroup int) string {
	if h := s.holiday(ctx, group, date); h != nil {
		return fmt.Sprintf("🎉 %s - %s!\nЗанятий нет.", date.Format(dateFormat), h.Type)
	}

	week, err := s.FetchSchedule(ctx, group)
	if err != nil {
		return ScheduleFailedText(group)
	}

	lessons := LessonsForDate(week, date, subgroup)
	if len(lessons) == 0 {
		text := dayHeader(date) + "\n\nЗанятий нет 🎉"
		if hint := s.semesterHint(ctx, group, date); hint != "" {
			text += "\n\n" + hint
		}
		return text
	}

	return dayText(dayHeader(date)+"\nГруппа: "+group, lessons, s.times)
}

func dayText(header string, lessons []model.Lesson, t ScheduleType) string {
	var b strings.Builder
	b.WriteString(header + "\n\n")
	for _, l := range lessons {
		b.WriteString(FormatLesson(l, t) + "\n")
	}
	return strings.TrimSpace(b.String())
}

func (s *ScheduleService) semesterHint(ctx context.Context, group string, date time.Time) string {
	if s.semesters == nil {
		return ""
	}
	bounds := s.semesters.Get(ctx, group)
	if bounds == nil || bounds.Contains(date) {
		return ""
	}
	if bounds.FirstDate != nil && date.Format("2006-01-02") < bounds.FirstDate.Format("2006-01-02") {
		return "ℹ️ Занятия начнутся " + bounds.FirstDate.Format(dateFormat)
	}
	if bounds.LastDate != nil {
		return "ℹ️ Занятия закончились " + bounds.LastDate.Format(dateFormat)
	}
	return ""
}

// CurrentLesson текст о текущей паре группы на момент now
func (s *ScheduleService) CurrentLesson(ctx context.Context, group string, now time.Time, subgroup int) string {
	week, err := s.FetchSchedule(ctx, group)
	if err != nil {
		return ScheduleFailedText(group)
	}

	lessons := LessonsForDate(week, now, subgroup)
	if len(lessons) == 0 {
		return "📚 Сейчас занятий нет"
	}

	current := now.Format("15:04")
	for _, l := range lessons {
		start, end, ok := PairTime(s.times, l.Pair)
		if !ok {
			continue
		}
		if start <= current && current <= end {
			return fmt.Sprintf("⏰ Текущее занятие (%s-%s):\n\n", start, end) + FormatLesson(l, s.times)
		}
	}
	return "📚 Сейчас окно между парами"
}

// DayLessons пары одного дня недели
type DayLessons struct {
	Date    time.Time
	Lessons []model.Lesson
}

// WeekLessons пары группы на неделю, содержащую date, с понедельника по воскресенье
func (s *ScheduleService) WeekLessons(ctx context.Context, group string, date time.Time, subgroup int) ([]DayLessons, error) {
	week, err := s.FetchSchedule(ctx, group)
	if err != nil {
		return nil, err
	}

	monday := startOfDay(date).AddDate(0, 0, -((int(date.Weekday()) + 6) % 7))
	days := make([]DayLessons, 0, 7)
	for i := 0; i < 7; i++ {
		d := monday.AddDate(0, 0, i)
		var lessons []model.Lesson
		if s.holiday(ctx, group, d) == nil {
			lessons = LessonsForDate(week, d, subgroup)
		}
		days = append(days, DayLessons{Date: d, Lessons: lessons})
	}
	return days, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ErrAmbiguousTeacher запросу соответствует несколько преподавателей
var ErrAmbiguousTeacher = errors.New("ambiguous teacher name")

// FindTeachers преподаватели, чьё ФИО совпадает с query по началам слов: фамилия, имя, отчество по порядку
func (s *ScheduleService) FindTeachers(ctx context.Context, query string) ([]string, error) {
	teachers, err := s.cachedList(ctx, "teachers", s.source.Teachers)
	if err != nil {
		return nil, err
	}

	q := nameTokens(query)
	if len(q) == 0 {
		return nil, nil
	}

	full := strings.Join(q, " ")
	var matches []string
	for _, t := range teachers {
		tokens := nameTokens(t)
		if strings.Join(tokens, " ") == full {
			return []string{t}, nil
		}
		if matchesName(tokens, q) {
			matches = append(matches, t)
		}
	}
	sort.Strings(matches)
	return matches, nil
}

// nameTokens слова ФИО в нижнем регистре; инициалы "И.И." дают отдельные слова
func nameTokens(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return r == '.' || unicode.IsSpace(r)
	})
}

// matchesName каждое слово запроса - начало слова ФИО на той же позиции
func matchesName(name, query []string) bool {
	if len(query) > len(name) {
		return false
	}
	for i, q := range query {
		if !strings.HasPrefix(name[i], q) {
			return false
		}
	}
	return true
}

// Groups список групп из API с кэшированием на неделю
func (s *ScheduleService) Groups(ctx context.Context) ([]string, error) {
	return s.cachedList(ctx, "groups", s.source.Groups)
}

func (s *ScheduleService) cachedList(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	if list, ok := s.catalogs.Get(key); ok {
		return list, nil
	}
	list, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}
	s.catalogs.Set(key, list, catalogCacheTTL)
	return list, nil
}

// TeacherDay расписание преподавателя на дату; query может быть частью ФИО
func (s *ScheduleService) TeacherDay(ctx context.Context, query string, date time.Time) string {
	name := strings.TrimSpace(query)
	matches, err := s.FindTeachers(ctx, name)
	if err != nil {
		s.logger.Warn("Failed to load teachers", zap.Error(err))
	} else {
		switch len(matches) {
		case 0:
			return "❌ Преподаватель «" + name + "» не найден"
		case 1:
			name = matches[0]
		default:
			if len(matches) > 10 {
				matches = matches[:10]
			}
			return "🔎 Найдено несколько преподавателей, уточни ФИО:\n• " + strings.Join(matches, "\n• ")
		}
	}

	key := "teacher:" + name
	week, ok := s.schedules.Get(key)
	if !ok {
		week, err = s.source.TeacherSchedule(ctx, name, false)
		if err != nil {
			if errors.Is(err, raspyx.ErrNotFound) {
				return "❌ Преподаватель «" + name + "» не найден"
			}
			s.logger.Warn("Failed to fetch teacher schedule", zap.String("teacher", name), zap.Error(err))
			return "❌ Не удалось получить расписание преподавателя " + name
		}
		s.schedules.Set(key, week, scheduleCacheTTL)
	}

	lessons := LessonsForDate(week, date, 0)
	if len(lessons) == 0 {
		return dayHeader(date) + "\nПреподаватель: " + name + "\n\nЗанятий нет 🎉"
	}
	return dayText(dayHeader(date)+"\nПреподаватель: "+name, lessons, s.times)
}

// RoomDay расписание аудитории на дату
func (s *ScheduleService) RoomDay(ctx context.Context, room string, date time.Time) string {
	room = strings.TrimSpace(room)
	key := "room:" + strings.ToLower(room)
	week, ok := s.schedules.Get(key)
	if !ok {
		var err error
		week, err = s.source.RoomSchedule(ctx, room, false)
		if err != nil {
			if errors.Is(err, raspyx.ErrNotFound) {
				return "❌ Аудитория " + room + " не найдена"
			}
			s.logger.Warn("Failed to fetch room schedule", zap.String("room", room), zap.Error(err))
			return "❌ Не удалось получить расписание аудитории " + room
		}
		s.schedules.Set(key, week, scheduleCacheTTL)
	}

	lessons := LessonsForDate(week, date, 0)
	if len(lessons) == 0 {
		return dayHeader(date) + "\nАудитория: " + room + "\n\nЗанятий нет 🎉"
	}
	return dayText(dayHeader(date)+"\nАудитория: "+room, lessons, s.times)
}

// fetchAll загружает расписания групп параллельно; при ошибке возвращает первую в порядке groups группу
func (s *ScheduleService) fetchAll(ctx context.Context, groups []string) ([]model.WeekSchedule, string) {
	weeks := make([]model.WeekSchedule, len(groups))
	failed := make([]bool, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, group := range groups {
		g.Go(func() error {
			week, err := s.FetchSchedule(gctx, group)
			if err != nil {
				failed[i] = true
				return nil
			}
			weeks[i] = week
			return nil
		})
	}
	_ = g.Wait()

	for i, f := range failed {
		if f {
			return nil, groups[i]
		}
	}
	return weeks, ""
}

func compareHeader(b *strings.Builder, groups []string, minDuration int) {
	b.WriteString("Группы: " + strings.Join(groups, ", ") + "\n")
	if minDuration > 0 {
		fmt.Fprintf(b, "Минимальная длительность окна: %d мин\n", minDuration)
	}
	b.WriteString("📍 Учитываются локации корпусов\n")
}

// CompareGroups общие свободные окна групп на дату и их расписания
func (s *ScheduleService) CompareGroups(ctx context.Context, groups []string, date time.Time, minDuration int) string {
	if len(groups) < 2 {
		return "❌ Для сравнения нужно указать минимум 2 группы"
	}

	weeks, failed := s.fetchAll(ctx, groups)
	if failed != "" {
		return ScheduleFailedText(failed)
	}

	lessons := make([][]model.Lesson, len(groups))
	for i, week := range weeks {
		lessons[i] = LessonsForDate(week, date, 0)
	}
	windows := FreeWindows(lessons, s.times, minDuration)

	var b strings.Builder
	b.WriteString("📊 Сравнение расписаний на " + date.Format(dateFormat) + "\n")
	compareHeader(&b, groups, minDuration)
	b.WriteString("\n")

	switch {
	case len(windows) > 0:
		b.WriteString("✅ Общие свободные окна:\n")
		for _, w := range windows {
			b.WriteString(formatWindow(w))
		}
	case minDuration > 0:
		fmt.Fprintf(&b, "❌ Нет общих свободных окон длительностью от %d минут\n", minDuration)
	default:
		b.WriteString("❌ Нет общих свободных окон\n")
	}

	b.WriteString("\n📚 Расписание по группам:\n\n")
	for i, group := range groups {
		b.WriteString("Группа " + group + ":\n")
		if len(lessons[i]) == 0 {
			b.WriteString("  Занятий нет\n")
		}
		for _, l := range lessons[i] {
			subject := l.Subject
			if subject == "" {
				subject = "Предмет не указан"
			}
			place := ""
			if p := lessonPlace(l); p != "" {
				place = " [" + p + "]"
			}
			fmt.Fprintf(&b, "  %s: %s%s\n", slotOrUnknown(s.times, l.Pair), subject, place)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// CompareGroupsPeriod общие окна по дням периода; дни без окон не выводятся
func (s *ScheduleService) CompareGroupsPeriod(ctx context.Context, groups []string, from, to time.Time, minDuration int) string {
	if len(groups) < 2 {
		return "❌ Для сравнения нужно указать минимум 2 группы"
	}

	weeks, failed := s.fetchAll(ctx, groups)
	if failed != "" {
		return ScheduleFailedText(failed)
	}

	var b strings.Builder
	b.WriteString("📊 Сравнение расписаний на период\n")
	fmt.Fprintf(&b, "с %s по %s\n", from.Format(dateFormat), to.Format(dateFormat))
	compareHeader(&b, groups, minDuration)
	b.WriteString("\n")

	days := 0
	for d := startOfDay(from); !d.After(startOfDay(to)); d = d.AddDate(0, 0, 1) {
		days++
		lessons := make([][]model.Lesson, len(groups))
		for i, week := range weeks {
			lessons[i] = LessonsForDate(week, d, 0)
		}
		windows := FreeWindows(lessons, s.times, minDuration)
		if len(windows) == 0 {
			continue
		}
		b.WriteString("\n" + dayHeader(d) + "\n")
		for _, w := range windows {
			b.WriteString(formatWindow(w))
		}
	}
	if days == 0 {
		b.WriteString("\n❌ Нет дней для анализа\n")
	}
	return strings.TrimSpace(b.String())
}

// Compare выполняет разобранный запрос сравнения
func (s *ScheduleService) Compare(ctx context.Context, req *CompareRequest) string {
	if req.Period {
		return s.CompareGroupsPeriod(ctx, req.Groups, req.From, req.To, req.MinDuration)
	}
	return s.CompareGroups(ctx, req.Groups, req.From, req.MinDuration)
}
