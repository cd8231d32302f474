// Package dates превращает свободный текст ("next Monday", "in 2 weeks",
// "2025-10-15") в конкретную календарную дату или диапазон дат.
//
// Разбор идёт каскадом правил, побеждает первое совпавшее:
//
//  1. недельные фразы ("next week", "end of week", ...)
//  2. счёт недель ("in N weeks")
//  3. фразы с днём недели ("next friday", "this mon")
//  4. общий парсер форматов дат
//  5. поиск даты внутри длинного текста
//
// Порядок менять нельзя: пересекающиеся фразы ("next week" против того,
// что о ней думает общий парсер) иначе разъедутся.
package dates

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ResolutionError всегда несёт исходный текст: слой выше обязан показать
// пользователю, какую именно дату не удалось понять.
type ResolutionError struct {
	Input string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("не удалось распознать дату: %q", e.Input)
}

var nl = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// Resolve разрешает текст в календарную дату (полночь UTC) относительно
// опорного момента ref. Пустой текст — это "нет даты", не ошибка; за это
// отвечает вызывающая сторона, сюда пустая строка приходить не должна.
func Resolve(text string, ref time.Time) (time.Time, error) {
	return resolve(text, ref, ref)
}

// ResolveRange разрешает диапазон. Пустой endText схлопывает диапазон в один
// день. Фразовые правила (1-3) для конца считаются от ref, а общий парсер —
// от уже разрешённого начала: "2025-10-20" + "next week" даёт неделю после
// начала, а не после сегодняшнего дня. Границы при необходимости меняются
// местами, итоговый диапазон всегда упорядочен по возрастанию.
func ResolveRange(startText, endText string, ref time.Time) (time.Time, time.Time, error) {
	start, err := resolve(startText, ref, ref)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if strings.TrimSpace(endText) == "" {
		return start, start, nil
	}

	end, err := resolve(endText, ref, start)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	if start.After(end) {
		start, end = end, start
	}
	return start, end, nil
}

// RangeDays — длина диапазона в днях, обе границы включительно.
func RangeDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}

// base — опорный момент для шагов 4-5 (у одиночной даты совпадает с ref,
// у конца диапазона — это разрешённое начало).
func resolve(text string, ref, base time.Time) (time.Time, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return time.Time{}, &ResolutionError{Input: text}
	}
	lower := strings.ToLower(trimmed)

	// 1. недельные фразы
	for _, wp := range weekPhrases {
		if strings.Contains(lower, wp.phrase) {
			return wp.resolve(ref), nil
		}
	}

	// 2. "in N weeks"
	if m := weekCountRe.FindStringSubmatch(lower); m != nil {
		n, err := strconv.Atoi(m[1])
		if err == nil {
			return dateOf(ref).AddDate(0, 0, 7*n), nil
		}
	}

	// 3. "next <weekday>" / "this <weekday>"
	if d, ok := resolveWeekdayPhrase(lower, ref); ok {
		return d, nil
	}

	// 4. общий парсер: явные форматы дат
	if t, err := dateparse.ParseIn(trimmed, time.UTC); err == nil {
		return dateOf(t), nil
	}

	// 5. поиск даты внутри текста: сперва явная дата ("by 2025-11-03"),
	// затем относительные обороты ("by tomorrow") — от base
	if d, ok := scanEmbeddedDate(trimmed); ok {
		return d, nil
	}
	if r, err := nl.Parse(trimmed, base); err == nil && r != nil {
		return dateOf(r.Time), nil
	}

	return time.Time{}, &ResolutionError{Input: text}
}

// scanEmbeddedDate ищет первую подстроку текста, которую общий парсер
// принимает за дату: n-граммы слов слева направо, длинные раньше коротких.
// Кандидаты без цифр не пробуются, результаты без внятного года
// (пустой год по умолчанию) отбрасываются. Неоднозначные slash-даты
// читаются месяцем вперёд, как в en-локали.
func scanEmbeddedDate(text string) (time.Time, bool) {
	words := strings.Fields(text)
	if len(words) < 2 {
		// одиночное слово уже пробовал шаг 4 целиком
		return time.Time{}, false
	}

	for i := range words {
		max := i + 3
		if max > len(words) {
			max = len(words)
		}
		for j := max; j > i; j-- {
			candidate := strings.Trim(strings.Join(words[i:j], " "), ",.;:!?()")
			if !strings.ContainsAny(candidate, "0123456789") {
				continue
			}
			t, err := dateparse.ParseIn(candidate, time.UTC)
			if err != nil || t.Year() < 1000 {
				continue
			}
			return dateOf(t), true
		}
	}
	return time.Time{}, false
}

// Порядок важен: более длинные фразы идут раньше своих подстрок
// ("end of next week" содержит "next week").
var weekPhrases = []struct {
	phrase  string
	resolve func(ref time.Time) time.Time
}{
	{"end of next week", endOfNextWeek},
	{"beginning of next week", nextWeekMonday},
	{"start of next week", nextWeekMonday},
	{"next week", nextWeekMonday},
	{"end of this week", endOfWeek},
	{"end of week", endOfWeek},
	{"beginning of this week", thisWeekMonday},
	{"start of this week", thisWeekMonday},
	{"this week", thisWeekMonday},
}

var weekCountRe = regexp.MustCompile(`in\s+(\d+)\s+weeks?`)

var weekdayPhraseRe = regexp.MustCompile(`\b(next|this)\s+([a-z]+)`)

var weekdayNames = map[string]time.Weekday{
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tues": time.Tuesday, "tue": time.Tuesday,
	"wednesday": time.Wednesday, "weds": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thurs": time.Thursday, "thur": time.Thursday, "thu": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
	"sunday": time.Sunday, "sun": time.Sunday,
}

func resolveWeekdayPhrase(lower string, ref time.Time) (time.Time, bool) {
	m := weekdayPhraseRe.FindStringSubmatch(lower)
	if m == nil {
		return time.Time{}, false
	}
	target, ok := weekdayNames[m[2]]
	if !ok {
		return time.Time{}, false
	}

	today := dateOf(ref)
	delta := (int(target) - int(today.Weekday()) + 7) % 7

	// "next monday", сказанное в понедельник, — это через неделю,
	// на сегодня "next" не разрешается никогда. "this monday" в понедельник —
	// сегодня, а уже прошедший в эту неделю день заворачивается вперёд.
	if m[1] == "next" && delta == 0 {
		delta = 7
	}
	return today.AddDate(0, 0, delta), true
}

// dateOf отбрасывает время суток: все успешные разрешения нормализуются
// до календарного дня.
func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// isoWeekday: понедельник = 1 ... воскресенье = 7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		wd = 7
	}
	return wd
}

// Понедельник текущей недели; для самого понедельника — он сам.
func thisWeekMonday(ref time.Time) time.Time {
	return dateOf(ref).AddDate(0, 0, -(isoWeekday(ref) - 1))
}

// Понедельник следующей недели; от понедельника — всегда плюс 7 дней,
// в "сегодня" фраза не разрешается.
func nextWeekMonday(ref time.Time) time.Time {
	return thisWeekMonday(ref).AddDate(0, 0, 7)
}

func endOfNextWeek(ref time.Time) time.Time {
	return nextWeekMonday(ref).AddDate(0, 0, 4)
}

// Пятница текущей недели; в субботу и воскресенье — пятница следующей,
// в прошлое "end of week" не разрешается.
func endOfWeek(ref time.Time) time.Time {
	if isoWeekday(ref) >= 6 {
		return nextWeekMonday(ref).AddDate(0, 0, 4)
	}
	return thisWeekMonday(ref).AddDate(0, 0, 4)
}
