package common

import (
	"bytes"
	"image/color"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/Freeeeeet/poly_schedule_bot/internal/controller/callbacks/common/formatting"
	"github.com/Freeeeeet/poly_schedule_bot/internal/model"
	"github.com/Freeeeeet/poly_schedule_bot/internal/service"
	"github.com/Freeeeeet/poly_schedule_bot/internal/textutil"
)

// FontStyle определяет стиль шрифта
type FontStyle string

const (
	FontStyleDefault FontStyle = "" // Regular
	FontStyleBold    FontStyle = "bold"
)

// Константы размеров и отступов
const (
	imageWidth       = 1400
	imageHeight      = 900
	headerHeight     = 100
	leftLabelsWidth  = 80
	legendWidth      = 120
	dayPaddingX      = 6
	minBlockHeight   = 8.0
	blockRadius      = 6.0
	shadowOffset     = 3.0
	totalDaysInWeek  = 7
	hourPaddingTop   = 1
	hourPaddingBot   = 1
	defaultMinHour   = 9
	defaultMaxHour   = 18
	subjectMaxRunes  = 22
	subjectLineLimit = 2
)

// Константы шрифтов
const (
	titleFontSize      = 25.0
	dayFontSize        = 24.0
	hourLabelFontSize  = 18.0
	blockTimeFontSize  = 15.0
	blockTextFontSize  = 13.0
	legendItemFontSize = 12.0
)

// Цветовая схема
var (
	bgColor          = color.RGBA{245, 246, 248, 255}
	textColor        = color.RGBA{80, 85, 90, 220}
	hourLabelColor   = color.RGBA{110, 115, 120, 200}
	hourLineColor    = color.NRGBA{150, 150, 150, 255}
	todayBgColor     = color.NRGBA{255, 99, 71, 90}
	evenDayColor     = color.NRGBA{240, 240, 240, 255}
	oddDayColor      = color.NRGBA{220, 220, 220, 255}
	currentTimeColor = color.NRGBA{255, 80, 80, 200}

	offlineColor     = color.RGBA{133, 193, 85, 220}
	onlineColor      = color.RGBA{120, 170, 235, 230}
	blockTextColor   = color.RGBA{20, 24, 28, 230}
	blockShadowColor = color.RGBA{0, 0, 0, 20}

	legendTextColor = color.RGBA{90, 95, 100, 220}
	legendItemColor = color.RGBA{70, 74, 78, 220}
)

// weekBounds содержит границы недели
type weekBounds struct {
	start time.Time
	end   time.Time
}

// hourRange содержит диапазон часов для отображения
type hourRange struct {
	start int
	end   int
	total int
}

// lessonBlock пара, привязанная ко времени звонков
type lessonBlock struct {
	lesson model.Lesson
	start  float64 // часы от начала суток
	end    float64
}

var (
	fontsMu     sync.Mutex
	cachedFonts = make(map[FontStyle]*opentype.Font)
)

// loadFont загружает шрифт указанного стиля или использует basicfont как fallback
func loadFont(dc *gg.Context, size float64, style ...FontStyle) {
	fontStyle := FontStyleDefault
	if len(style) > 0 {
		fontStyle = style[0]
	}

	fontData := goregular.TTF
	if fontStyle == FontStyleBold {
		fontData = gobold.TTF
	}

	fontsMu.Lock()
	parsed, ok := cachedFonts[fontStyle]
	if !ok {
		var err error
		parsed, err = opentype.Parse(fontData)
		if err != nil {
			fontsMu.Unlock()
			dc.SetFontFace(basicfont.Face7x13)
			return
		}
		cachedFonts[fontStyle] = parsed
	}
	fontsMu.Unlock()

	face, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		dc.SetFontFace(basicfont.Face7x13)
		return
	}
	dc.SetFontFace(face)
}

// GenerateWeekImage рисует расписание группы на неделю
// days - семь дней с понедельника, как их возвращает ScheduleService.WeekLessons
func GenerateWeekImage(group string, days []service.DayLessons, t service.ScheduleType, now time.Time) ([]byte, error) {
	var weekStart time.Time
	if len(days) > 0 {
		weekStart = days[0].Date
	} else {
		weekStart = now
	}
	week := normalizeToWeekBounds(weekStart)
	today := normalizeToDay(now)
	highlightToday := isTodayInWeek(today, week)

	blocksByDay := groupBlocksByDay(days, t)
	hours := calculateHourRange(blocksByDay)

	dc := createCanvas()
	dayWidth := (imageWidth - leftLabelsWidth - legendWidth) / totalDaysInWeek
	dayHeight := imageHeight - headerHeight
	cellHeight := float64(dayHeight) / float64(hours.total)

	drawHeader(dc, group, week)
	drawHourLabels(dc, hours, cellHeight)
	drawDays(dc, week, today, highlightToday, blocksByDay, hours, dayWidth, dayHeight, cellHeight)
	drawCurrentTimeLine(dc, highlightToday, now, hours, cellHeight, dayWidth)
	drawLegend(dc, dayWidth)

	return encodeImage(dc)
}

// WeekCaption подпись к картинке недели
func WeekCaption(group string, days []service.DayLessons) string {
	total := 0
	for _, d := range days {
		total += len(d.Lessons)
	}
	if len(days) == 0 {
		return "📅 " + group
	}
	week := normalizeToWeekBounds(days[0].Date)
	return "📅 " + group + ": " + formatting.FormatDayMonth(week.start) + " - " + formatting.FormatDayMonth(week.end) +
		", " + strconv.Itoa(total) + " " + formatting.PluralizeLessons(total)
}

// normalizeToWeekBounds нормализует дату к границам недели (Пн-Вс)
func normalizeToWeekBounds(date time.Time) weekBounds {
	normalized := normalizeToDay(date)
	daysSinceMonday := (int(normalized.Weekday()) + 6) % 7

	start := normalized.AddDate(0, 0, -daysSinceMonday)
	return weekBounds{start: start, end: start.AddDate(0, 0, 6)}
}

// normalizeToDay нормализует время к началу дня
func normalizeToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// isTodayInWeek проверяет, попадает ли сегодня в отображаемую неделю
func isTodayInWeek(today time.Time, week weekBounds) bool {
	return !today.Before(week.start) && !today.After(week.end)
}

func hoursOf(hhmm string) float64 {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return float64(h) + float64(m)/60.0
}

// groupBlocksByDay раскладывает пары по дням, пары с неизвестным номером пропускаются
func groupBlocksByDay(days []service.DayLessons, t service.ScheduleType) map[string][]lessonBlock {
	blocks := make(map[string][]lessonBlock)
	for _, d := range days {
		key := d.Date.Format("2006-01-02")
		for _, l := range d.Lessons {
			start, end, ok := service.PairTime(t, l.Pair)
			if !ok {
				continue
			}
			blocks[key] = append(blocks[key], lessonBlock{lesson: l, start: hoursOf(start), end: hoursOf(end)})
		}
	}
	return blocks
}

// calculateHourRange определяет диапазон часов для отображения
func calculateHourRange(blocksByDay map[string][]lessonBlock) hourRange {
	minHour := 24
	maxHour := 0

	for _, blocks := range blocksByDay {
		for _, b := range blocks {
			startH := int(b.start)
			endH := int(b.end)
			if b.end > float64(endH) {
				endH++
			}
			if startH < minHour {
				minHour = startH
			}
			if endH > maxHour {
				maxHour = endH
			}
		}
	}

	if minHour == 24 {
		minHour = defaultMinHour
		maxHour = defaultMaxHour
	}

	startHour := minHour - hourPaddingTop
	endHour := maxHour + hourPaddingBot
	if startHour < 0 {
		startHour = 0
	}
	if endHour > 23 {
		endHour = 23
	}

	return hourRange{
		start: startHour,
		end:   endHour,
		total: endHour - startHour + 1,
	}
}

// createCanvas создает новый контекст рисования с фоном
func createCanvas() *gg.Context {
	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetColor(bgColor)
	dc.Clear()
	return dc
}

// drawHeader рисует заголовок с группой и месяцем
func drawHeader(dc *gg.Context, group string, week weekBounds) {
	month := formatting.MonthName(week.start.Month())
	if week.start.Month() != week.end.Month() {
		month += " - " + formatting.MonthName(week.end.Month())
	}
	title := group + " · " + month

	loadFont(dc, titleFontSize, FontStyleBold)
	dc.SetColor(textColor)
	_, h := dc.MeasureString(title)
	dc.DrawStringAnchored(title, float64(leftLabelsWidth), float64(headerHeight)/8+h/2, 0, 0)
}

// drawHourLabels рисует колонку с часами слева
func drawHourLabels(dc *gg.Context, hours hourRange, cellHeight float64) {
	loadFont(dc, hourLabelFontSize)
	dc.SetColor(hourLabelColor)

	for hIdx := 0; hIdx < hours.total; hIdx++ {
		y := float64(headerHeight) + float64(hIdx)*cellHeight
		dc.DrawStringAnchored(formatHourLabel(hours.start+hIdx), float64(leftLabelsWidth)-10, y, 1, 0.5)
	}
}

// drawDays рисует все дни недели с парами
func drawDays(dc *gg.Context, week weekBounds, today time.Time, highlightToday bool,
	blocksByDay map[string][]lessonBlock, hours hourRange, dayWidth, dayHeight int, cellHeight float64) {

	currentDate := week.start
	for dayIndex := 0; dayIndex < totalDaysInWeek; dayIndex++ {
		x := float64(leftLabelsWidth + dayIndex*dayWidth)
		y := float64(headerHeight)

		isToday := highlightToday && isSameDay(currentDate, today)

		drawDayBackground(dc, x, y, dayWidth, dayHeight, dayIndex, isToday)
		drawDayHeader(dc, currentDate, x, y, dayWidth)
		drawHourLines(dc, x, y, dayWidth, hours, cellHeight)
		for _, b := range blocksByDay[currentDate.Format("2006-01-02")] {
			drawLessonBlock(dc, b, x, y, dayWidth, hours, cellHeight)
		}

		currentDate = currentDate.AddDate(0, 0, 1)
	}
}

// isSameDay проверяет, являются ли две даты одним днем
func isSameDay(date1, date2 time.Time) bool {
	return date1.Year() == date2.Year() &&
		date1.Month() == date2.Month() &&
		date1.Day() == date2.Day()
}

// drawDayBackground рисует фон дня
func drawDayBackground(dc *gg.Context, x, y float64, dayWidth, dayHeight, dayIndex int, isToday bool) {
	switch {
	case isToday:
		dc.SetColor(todayBgColor)
	case dayIndex%2 == 0:
		dc.SetColor(evenDayColor)
	default:
		dc.SetColor(oddDayColor)
	}
	dc.DrawRectangle(x, y, float64(dayWidth), float64(dayHeight))
	dc.Fill()
}

// drawDayHeader рисует название дня недели и дату
func drawDayHeader(dc *gg.Context, date time.Time, x, y float64, dayWidth int) {
	loadFont(dc, dayFontSize, FontStyleBold)
	dc.SetColor(textColor)
	dc.DrawStringAnchored(formatting.FormatDayMonth(date), x+float64(dayWidth)/2, y, 0.5, -1)
	dc.DrawStringAnchored(formatting.WeekdayShort(date.Weekday()), x+float64(dayWidth)/2, y, 0.5, -0.2)
}

// drawHourLines рисует горизонтальные линии часов
func drawHourLines(dc *gg.Context, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	dc.SetLineWidth(0.3)
	dc.SetColor(hourLineColor)

	for hIdx := 0; hIdx <= hours.total; hIdx++ {
		hy := y + float64(hIdx)*cellHeight
		dc.DrawLine(x, hy, x+float64(dayWidth), hy)
		dc.Stroke()
	}
}

// drawLessonBlock рисует одну пару
func drawLessonBlock(dc *gg.Context, b lessonBlock, x, y float64, dayWidth int, hours hourRange, cellHeight float64) {
	blockY := y + (b.start-float64(hours.start))*cellHeight
	blockHeight := (b.end - b.start) * cellHeight
	if blockHeight < minBlockHeight {
		blockHeight = minBlockHeight
	}

	fillColor := lessonColor(b.lesson)
	blockWidth := float64(dayWidth) - float64(dayPaddingX*2)

	// Тень
	dc.SetColor(blockShadowColor)
	dc.DrawRoundedRectangle(x+dayPaddingX+shadowOffset, blockY+2+shadowOffset, blockWidth, blockHeight-4, blockRadius)
	dc.Fill()

	dc.SetColor(fillColor)
	dc.DrawRoundedRectangle(x+dayPaddingX, blockY+2, blockWidth, blockHeight-4, blockRadius)
	dc.Fill()

	dc.SetColor(darkenColor(fillColor, 0.8))
	dc.SetLineWidth(1)
	dc.DrawRoundedRectangle(x+dayPaddingX, blockY+2, blockWidth, blockHeight-4, blockRadius)
	dc.Stroke()

	txtX := x + dayPaddingX + 6
	txtY := blockY + 18

	loadFont(dc, blockTimeFontSize, FontStyleBold)
	dc.SetColor(blockTextColor)
	dc.DrawStringAnchored(formatHourMinute(b.start), txtX, txtY, 0, 0)

	loadFont(dc, blockTextFontSize)
	lineY := txtY + 16
	bottom := blockY + blockHeight - 6
	for _, line := range blockLines(b.lesson) {
		if lineY > bottom {
			break
		}
		dc.DrawStringAnchored(line, txtX, lineY, 0, 0)
		lineY += 15
	}
}

// blockLines текст внутри блока пары: предмет в две строки и место
func blockLines(l model.Lesson) []string {
	subject := l.Subject
	if subject == "" {
		subject = "Предмет не указан"
	}

	var lines []string
	runes := []rune(subject)
	for i := 0; i < subjectLineLimit && len(runes) > 0; i++ {
		if len(runes) <= subjectMaxRunes || i == subjectLineLimit-1 {
			lines = append(lines, textutil.Truncate(string(runes), subjectMaxRunes))
			break
		}
		cut := subjectMaxRunes
		for j := subjectMaxRunes; j > subjectMaxRunes/2; j-- {
			if runes[j] == ' ' {
				cut = j
				break
			}
		}
		lines = append(lines, string(runes[:cut]))
		runes = []rune(strings.TrimSpace(string(runes[cut:])))
	}

	switch {
	case l.IsOnline():
		lines = append(lines, "Онлайн")
	case len(l.Rooms) > 0:
		lines = append(lines, textutil.Truncate(strings.Join(l.Rooms, ", "), subjectMaxRunes))
	case l.Location != "":
		lines = append(lines, textutil.Truncate(l.Location, subjectMaxRunes))
	}
	return lines
}

// lessonColor цвет блока: онлайн-пары выделяются отдельно
func lessonColor(l model.Lesson) color.RGBA {
	if l.IsOnline() {
		return onlineColor
	}
	return offlineColor
}

// darkenColor затемняет цвет на указанный множитель
func darkenColor(c color.RGBA, factor float64) color.RGBA {
	return color.RGBA{
		R: uint8(float64(c.R) * factor),
		G: uint8(float64(c.G) * factor),
		B: uint8(float64(c.B) * factor),
		A: c.A,
	}
}

// drawCurrentTimeLine рисует красную линию текущего времени
func drawCurrentTimeLine(dc *gg.Context, highlight bool, now time.Time, hours hourRange, cellHeight float64, dayWidth int) {
	if !highlight {
		return
	}

	currentHour := float64(now.Hour()) + float64(now.Minute())/60.0
	if currentHour < float64(hours.start) || currentHour > float64(hours.end) {
		return
	}

	currentTimeY := float64(headerHeight) + (currentHour-float64(hours.start))*cellHeight
	dc.SetColor(currentTimeColor)
	dc.SetLineWidth(2.0)
	dc.DrawLine(float64(leftLabelsWidth), currentTimeY, float64(leftLabelsWidth+totalDaysInWeek*dayWidth), currentTimeY)
	dc.Stroke()
}

// drawLegend рисует легенду справа
func drawLegend(dc *gg.Context, dayWidth int) {
	legendX := float64(leftLabelsWidth + totalDaysInWeek*dayWidth + 10)
	legendY := float64(imageHeight) - 100.0

	dc.SetColor(legendTextColor)

	legendItems := []struct {
		Label string
		Clr   color.Color
	}{
		{"Очно", offlineColor},
		{"Онлайн", onlineColor},
	}

	boxW := 20.0
	boxH := 14.0
	liY := legendY + 22

	for _, item := range legendItems {
		dc.SetColor(item.Clr)
		dc.DrawRoundedRectangle(legendX, liY, boxW, boxH, 3)
		dc.Fill()

		loadFont(dc, legendItemFontSize)
		dc.SetColor(legendItemColor)
		dc.DrawStringAnchored(item.Label, legendX+boxW+8, liY+boxH/2+1, 0, 0.2)
		liY += boxH + 14
	}
}

// encodeImage кодирует изображение в PNG
func encodeImage(dc *gg.Context) ([]byte, error) {
	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// формат числа с двумя цифрами
func formatTwoDigits(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

func formatHourLabel(h int) string {
	return formatTwoDigits(h) + ":00"
}

func formatHourMinute(hours float64) string {
	total := int(hours*60 + 0.5)
	return formatTwoDigits(total/60) + ":" + formatTwoDigits(total%60)
}
