package formatting

// Pluralize выбирает форму слова для числа: одна пара, две пары, пять пар
func Pluralize(count int, one, few, many string) string {
	if count < 0 {
		count = -count
	}
	if count%10 == 1 && count%100 != 11 {
		return one
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return few
	}
	return many
}

// PluralizeLessons возвращает правильное склонение слова "пара"
func PluralizeLessons(count int) string {
	return Pluralize(count, "пара", "пары", "пар")
}

// PluralizeMinutes возвращает правильное склонение слова "минута"
func PluralizeMinutes(count int) string {
	return Pluralize(count, "минуту", "минуты", "минут")
}

// PluralizeRecipients возвращает правильное склонение слова "получатель"
func PluralizeRecipients(count int) string {
	return Pluralize(count, "получатель", "получателя", "получателей")
}
