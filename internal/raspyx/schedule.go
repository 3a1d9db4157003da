package raspyx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
)

// Weekdays английские ключи дней недели в ответе API, с понедельника
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func sessionParams(session bool) url.Values {
	if !session {
		return nil
	}
	return url.Values{"session": []string{"1"}}
}

// GroupSchedule расписание группы на неделю
func (c *Client) GroupSchedule(ctx context.Context, group string, session bool) (model.WeekSchedule, error) {
	raw, err := c.Get(ctx, "/api/v1/schedules/group/number/"+url.PathEscape(group), sessionParams(session))
	if err != nil {
		return nil, err
	}
	return ParseWeek(raw)
}

// TeacherSchedule расписание преподавателя по ФИО
func (c *Client) TeacherSchedule(ctx context.Context, fullname string, session bool) (model.WeekSchedule, error) {
	raw, err := c.Get(ctx, "/api/v1/schedules/teacher/fn/"+url.PathEscape(fullname), sessionParams(session))
	if err != nil {
		return nil, err
	}
	return ParseWeek(raw)
}

// RoomSchedule расписание аудитории
func (c *Client) RoomSchedule(ctx context.Context, room string, session bool) (model.WeekSchedule, error) {
	raw, err := c.Get(ctx, "/api/v1/schedules/room/number/"+url.PathEscape(room), sessionParams(session))
	if err != nil {
		return nil, err
	}
	return ParseWeek(raw)
}

// Groups список номеров групп
func (c *Client) Groups(ctx context.Context) ([]string, error) {
	raw, err := c.Get(ctx, "/api/v1/groups/", nil)
	if err != nil {
		return nil, err
	}
	return parseNamedList(raw, "groups", "number", "group", "name")
}

// Teachers список ФИО преподавателей
func (c *Client) Teachers(ctx context.Context) ([]string, error) {
	raw, err := c.Get(ctx, "/api/v1/teachers/", nil)
	if err != nil {
		return nil, err
	}
	return parseNamedList(raw, "teachers", "fn", "fullname", "full_name", "name")
}

// ParseWeek разбирает расписание недели; неизвестные или битые дни пропускаются
func ParseWeek(raw json.RawMessage) (model.WeekSchedule, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(raw, &top); err != nil {
		return nil, fmt.Errorf("parse week: %w", ErrBadResponse)
	}

	if inner, ok := top["schedule"]; ok && !hasWeekday(top) {
		return ParseWeek(inner)
	}

	week := make(model.WeekSchedule)
	for _, day := range Weekdays {
		dayRaw, ok := top[day]
		if !ok {
			continue
		}
		var pairs map[string]json.RawMessage
		if err := json.Unmarshal(dayRaw, &pairs); err != nil {
			continue
		}

		ds := make(model.DaySchedule)
		for num, pairRaw := range pairs {
			if _, err := strconv.Atoi(num); err != nil {
				continue
			}
			var lessons []model.Lesson
			if err := json.Unmarshal(pairRaw, &lessons); err != nil {
				continue
			}
			if len(lessons) > 0 {
				ds[num] = lessons
			}
		}
		week[day] = ds
	}
	return week, nil
}

func hasWeekday(m map[string]json.RawMessage) bool {
	for _, d := range Weekdays {
		if _, ok := m[d]; ok {
			return true
		}
	}
	return false
}

func parseNamedList(raw json.RawMessage, listKey string, fields ...string) ([]string, error) {
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("parse %s: %w", listKey, ErrBadResponse)
	}
	listRaw, ok := wrapper[listKey]
	if !ok {
		return nil, fmt.Errorf("parse %s: %w", listKey, ErrBadResponse)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(listRaw, &items); err != nil {
		return nil, fmt.Errorf("parse %s: %w", listKey, ErrBadResponse)
	}

	names := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			if s != "" {
				names = append(names, s)
			}
			continue
		}
		var obj map[string]interface{}
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		for _, f := range fields {
			if v, ok := obj[f].(string); ok && v != "" {
				names = append(names, v)
				break
			}
		}
	}
	return names, nil
}
