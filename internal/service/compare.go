package service

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

const (
	workDayStart = 9 * 60
	workDayEnd   = 21 * 60

	// MaxComparePeriodDays максимальная длина периода сравнения
	MaxComparePeriodDays = 10

	anyLocationLabel = "Любая"
)

var (
	ErrNotEnoughGroups = errors.New("at least two groups required")
	ErrPeriodTooLong   = errors.New("compare period too long")
	ErrPeriodReversed  = errors.New("period start after end")
)

type locationKind int

const (
	locNamed locationKind = iota
	locAny                // у группы нет пар, подходит любая локация
	locUnknown            // у пар нет локации
	locTransit            // переезд между корпусами
)

type busyInterval struct {
	start, end int
	location   string
}

type timelineEntry struct {
	start, end int
	kind       locationKind
	location   string
}

// FreeWindow общее свободное окно в минутах от начала суток
type FreeWindow struct {
	Start    int
	End      int
	Location string
	Any      bool
}

func (w FreeWindow) Duration() int { return w.End - w.Start }

func busyIntervals(lessons []model.Lesson, t ScheduleType) []busyInterval {
	var intervals []busyInterval
	for _, l := range lessons {
		start, end, ok := PairTime(t, l.Pair)
		if !ok {
			continue
		}
		intervals = append(intervals, busyInterval{
			start:    minutesOf(start),
			end:      minutesOf(end),
			location: l.Location,
		})
	}
	if len(intervals) == 0 {
		return nil
	}

	sort.Slice(intervals, func(i, j int) bool {
		a, b := intervals[i], intervals[j]
		if a.start != b.start {
			return a.start < b.start
		}
		if a.end != b.end {
			return a.end < b.end
		}
		return a.location < b.location
	})

	merged := []busyInterval{intervals[0]}
	for _, cur := range intervals[1:] {
		last := &merged[len(merged)-1]
		if cur.start <= last.end && cur.location == last.location {
			if cur.end > last.end {
				last.end = cur.end
			}
			continue
		}
		merged = append(merged, cur)
	}
	return merged
}

func locationTimeline(busy []busyInterval, dayStart, dayEnd int) []timelineEntry {
	if len(busy) == 0 {
		return []timelineEntry{{start: dayStart, end: dayEnd, kind: locAny}}
	}

	hasLocation := false
	for _, b := range busy {
		if b.location != "" {
			hasLocation = true
			break
		}
	}
	if !hasLocation {
		return []timelineEntry{{start: dayStart, end: dayEnd, kind: locUnknown}}
	}

	named := func(start, end int, loc string) timelineEntry {
		kind := locNamed
		if loc == "" {
			kind = locUnknown
		}
		return timelineEntry{start: start, end: end, kind: kind, location: loc}
	}

	var timeline []timelineEntry
	current := dayStart
	for i, b := range busy {
		if current < b.start {
			timeline = append(timeline, named(current, b.start, b.location))
		}
		timeline = append(timeline, named(b.start, b.end, b.location))
		current = b.end

		if i < len(busy)-1 {
			next := busy[i+1]
			if next.location != b.location {
				timeline = append(timeline, timelineEntry{start: b.end, end: next.start, kind: locTransit})
			} else {
				timeline = append(timeline, named(b.end, next.start, b.location))
			}
		} else if current < dayEnd {
			timeline = append(timeline, named(current, dayEnd, b.location))
		}
	}
	return timeline
}

// findFreeWindows ищет окна, когда все группы свободны и находятся в одной локации
func findFreeWindows(all [][]busyInterval, minDuration int) []FreeWindow {
	timelines := make([][]timelineEntry, len(all))
	points := map[int]struct{}{workDayStart: {}, workDayEnd: {}}
	for i, busy := range all {
		timelines[i] = locationTimeline(busy, workDayStart, workDayEnd)
		for _, e := range timelines[i] {
			points[e.start] = struct{}{}
			points[e.end] = struct{}{}
		}
	}

	sorted := make([]int, 0, len(points))
	for p := range points {
		sorted = append(sorted, p)
	}
	sort.Ints(sorted)

	var windows []FreeWindow
	for i := 0; i+1 < len(sorted); i++ {
		start, end := sorted[i], sorted[i+1]
		if end-start < minDuration {
			continue
		}

		entries := make([]timelineEntry, 0, len(timelines))
		for _, tl := range timelines {
			for _, e := range tl {
				if e.start <= start && e.end >= end {
					entries = append(entries, e)
					break
				}
			}
		}
		if len(entries) != len(timelines) {
			continue
		}

		transit := false
		for _, e := range entries {
			if e.kind == locTransit {
				transit = true
				break
			}
		}
		if transit || anyBusy(all, start, end) {
			continue
		}

		if w, ok := commonLocation(entries); ok {
			w.Start, w.End = start, end
			windows = append(windows, w)
		}
	}
	return windows
}

func anyBusy(all [][]busyInterval, start, end int) bool {
	for _, busy := range all {
		for _, b := range busy {
			if b.start < end && b.end > start {
				return true
			}
		}
	}
	return false
}

func commonLocation(entries []timelineEntry) (FreeWindow, bool) {
	allAny := true
	for _, e := range entries {
		if e.kind != locAny {
			allAny = false
			break
		}
	}
	if allAny {
		return FreeWindow{Location: anyLocationLabel, Any: true}, true
	}

	first := entries[0]
	if first.kind != locNamed {
		return FreeWindow{}, false
	}
	for _, e := range entries[1:] {
		if e.kind != locNamed || e.location != first.location {
			return FreeWindow{}, false
		}
	}
	return FreeWindow{Location: first.location}, true
}

// FreeWindows общие свободные окна для списков пар нескольких групп
func FreeWindows(lessonsByGroup [][]model.Lesson, t ScheduleType, minDuration int) []FreeWindow {
	all := make([][]busyInterval, len(lessonsByGroup))
	for i, lessons := range lessonsByGroup {
		all[i] = busyIntervals(lessons, t)
	}
	return findFreeWindows(all, minDuration)
}

func formatWindow(w FreeWindow) string {
	place := "обе группы в " + w.Location
	if w.Any {
		place = "обе группы свободны, можно выбрать любую локацию"
	}
	return fmt.Sprintf("🕐 %s - %s (%d мин) — %s\n", clockOf(w.Start), clockOf(w.End), w.Duration(), place)
}

// CompareRequest разобранные аргументы сравнения групп
type CompareRequest struct {
	Groups      []string
	MinDuration int
	From        time.Time
	To          time.Time
	Period      bool
}

var (
	compareGroupRe  = regexp.MustCompile(`^[` + groupChars + `]{3}-[` + groupChars + `]{3,4}$`)
	comparePeriodRe = regexp.MustCompile(`(\d{1,2}\.\d{1,2}\.\d{4})\s*-\s*(\d{1,2}\.\d{1,2}\.\d{4})`)
	compareDateRe   = regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{4}$`)
	compareMinRe    = regexp.MustCompile(`^\d{1,3}$`)
)

const groupChars = `0-9A-Za-zА-Яа-яЁё`

// ParseCompareArgs разбирает "241-362 241-365 [минуты] [дата | дата-дата]"; today - дата по умолчанию
func ParseCompareArgs(text string, today time.Time) (*CompareRequest, error) {
	req := &CompareRequest{From: today, To: today}

	if m := comparePeriodRe.FindStringSubmatch(text); m != nil {
		from, err1 := parseLooseDate(m[1], today.Location())
		to, err2 := parseLooseDate(m[2], today.Location())
		if err1 == nil && err2 == nil {
			days := int(to.Sub(from).Hours() / 24)
			if days < 0 {
				return nil, ErrPeriodReversed
			}
			if days > MaxComparePeriodDays-1 {
				return nil, ErrPeriodTooLong
			}
			req.From, req.To, req.Period = from, to, true
		}
		text = strings.Replace(text, m[0], " ", 1)
	}

	minSet := false
	for _, tok := range strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == ',' || r == '\n' || r == '\t' }) {
		switch {
		case compareGroupRe.MatchString(tok):
			req.Groups = append(req.Groups, tok)
		case compareDateRe.MatchString(tok):
			if req.Period {
				continue
			}
			if d, err := parseLooseDate(tok, today.Location()); err == nil {
				req.From, req.To = d, d
			}
		case compareMinRe.MatchString(tok) && !minSet:
			req.MinDuration, _ = strconv.Atoi(tok)
			minSet = true
		}
	}

	if len(req.Groups) < 2 {
		return nil, ErrNotEnoughGroups
	}
	return req, nil
}

func parseLooseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2.1.2006", s, loc)
}
