package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
)

func main() {
	group := flag.String("group", "241-362", "группа для подписи")
	out := flag.String("out", "week.png", "файл для сохранения")
	flag.Parse()

	now := time.Now()
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	// Начинаем с понедельника текущей недели
	for monday.Weekday() != time.Monday {
		monday = monday.AddDate(0, 0, -1)
	}

	days := sampleWeek(monday)

	imageData, err := common.GenerateWeekImage(*group, days, service.ScheduleTypeDefault, now)
	if err != nil {
		fmt.Printf("Ошибка генерации изображения: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*out, imageData, 0644); err != nil {
		fmt.Printf("Ошибка сохранения файла: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Изображение успешно сохранено в %s\n", *out)
	fmt.Println(common.WeekCaption(*group, days))
}

// sampleWeek неделя с очными и онлайн парами в разных частях дня
func sampleWeek(monday time.Time) []service.DayLessons {
	days := make([]service.DayLessons, 7)
	for i := range days {
		days[i].Date = monday.AddDate(0, 0, i)
	}

	days[0].Lessons = []model.Lesson{
		{Subject: "Математический анализ", Type: "Лекция", Teachers: model.StringList{"Иванов И.И."}, Rooms: model.StringList{"Пр2402"}, Pair: 1},
		{Subject: "Математический анализ", Type: "Практика", Rooms: model.StringList{"Пр2402"}, Pair: 2},
	}
	days[1].Lessons = []model.Lesson{
		{Subject: "Программирование на Python", Type: "Лабораторная", Rooms: model.StringList{"Webinar"}, Link: "https://online.example.com/python", Pair: 3},
		{Subject: "Физическая культура", Location: "Спортзал", Pair: 4},
	}
	days[3].Lessons = []model.Lesson{
		{Subject: "Базы данных", Type: "Лекция", Rooms: model.StringList{"Ав4805"}, Pair: 5},
		{Subject: "Английский язык", Type: "Практика", Rooms: model.StringList{"Webinar"}, Link: "https://online.example.com/english", Pair: 7},
	}
	days[4].Lessons = []model.Lesson{
		{Subject: "Инженерная графика", Type: "Практика", Rooms: model.StringList{"Пк312"}, Location: "Павла Корчагина", Pair: 2},
	}
	return days
}
