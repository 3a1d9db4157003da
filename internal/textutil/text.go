// Package textutil утилиты для работы с текстом сообщений
package textutil

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const groupChars = `0-9A-Za-zА-Яа-яЁё`

var (
	groupRe = regexp.MustCompile(`(?:^|[^` + groupChars + `])([` + groupChars + `]{3}-[` + groupChars + `]{3,4})(?:$|[^` + groupChars + `])`)
	timeRe  = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)
	dateRe  = regexp.MustCompile(`^(0[1-9]|[12][0-9]|3[01])\.(0[1-9]|1[0-2])\.\d{4}$`)
	spaceRe = regexp.MustCompile(` +`)
	blankRe = regexp.MustCompile(`\n\n+`)

	htmlReplacer = strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
)

// EscapeHTML экранирует текст для ParseModeHTML
func EscapeHTML(text string) string {
	return htmlReplacer.Replace(text)
}

// SplitPreservingLines разбивает текст на страницы не длиннее maxLen символов, не разрывая строки
func SplitPreservingLines(text string, maxLen int) []string {
	if maxLen <= 0 {
		maxLen = 3000
	}

	var (
		pages   []string
		current string
	)

	for _, line := range strings.Split(text, "\n") {
		lineLen := utf8.RuneCountInString(line)
		if utf8.RuneCountInString(current)+lineLen+1 > maxLen {
			if current != "" {
				pages = append(pages, current)
			}
			if lineLen > maxLen {
				runes := []rune(line)
				for i := 0; i < len(runes); i += maxLen {
					end := i + maxLen
					if end > len(runes) {
						end = len(runes)
					}
					pages = append(pages, string(runes[i:end]))
				}
				current = ""
			} else {
				current = line
			}
			continue
		}

		if current != "" {
			current += "\n"
		}
		current += line
	}

	if current != "" {
		pages = append(pages, current)
	}
	return pages
}

// ExtractGroup находит номер группы вида 241-362 в тексте
func ExtractGroup(text string) string {
	m := groupRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return m[1]
}

// FormatDateTime форматирует время как DD.MM.YYYY HH:MM
func FormatDateTime(t time.Time) string {
	return t.Format("02.01.2006 15:04")
}

// Truncate обрезает текст до maxLen символов с многоточием
func Truncate(text string, maxLen int) string {
	const suffix = "..."
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen <= len(suffix) {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-len(suffix)]) + suffix
}

// CleanWhitespace схлопывает повторяющиеся пробелы и пустые строки
func CleanWhitespace(text string) string {
	text = spaceRe.ReplaceAllString(text, " ")
	text = blankRe.ReplaceAllString(text, "\n\n")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ValidTime проверяет формат HH:MM
func ValidTime(s string) bool {
	return timeRe.MatchString(s)
}

// ValidDate проверяет формат DD.MM.YYYY
func ValidDate(s string) bool {
	return dateRe.MatchString(s)
}

// Mention упоминание пользователя: @username или ID
func Mention(username string, userID int64) string {
	if username != "" {
		return "@" + username
	}
	return fmt.Sprintf("ID %d", userID)
}

// CommandArgs возвращает аргументы команды без самой команды
func CommandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return nil
	}
	return fields[1:]
}

// CommandPayload возвращает всё, что идёт после команды, как одну строку
func CommandPayload(text string) string {
	text = strings.TrimSpace(text)
	idx := strings.IndexAny(text, " \n\t")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(text[idx+1:])
}

// ContainsAny проверяет вхождение любого слова без учёта регистра
func ContainsAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if w == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
