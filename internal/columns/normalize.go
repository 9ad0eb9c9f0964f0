package columns

import (
	"regexp"
	"sort"
	"strings"
)

// Латиница→кириллица (визуальные двойники)
var lookalikes = map[rune]rune{
	'A': 'А', 'B': 'В', 'C': 'С', 'E': 'Е', 'H': 'Н', 'K': 'К', 'M': 'М', 'O': 'О', 'P': 'Р', 'T': 'Т', 'X': 'Х', 'Y': 'У',
	'a': 'а', 'c': 'с', 'e': 'е', 'o': 'о', 'p': 'р', 'x': 'х',
}

var (
	punct    = regexp.MustCompile(`[^\p{L}\p{N}]+`)
	hasCyr   = regexp.MustCompile(`\p{Cyrillic}`)
	nbspRepl = strings.NewReplacer("\u00a0", " ", "\u202f", " ")
)

// normalize приводит имя колонки для сравнения: ё→е, двойники, нижний регистр,
// пунктуация → пробел, схлопнутые пробелы.
func normalize(s string) string {
	s = nbspRepl.Replace(strings.TrimSpace(s))
	// двойники трогаем, только если в строке уже есть кириллица:
	// "name" должно остаться латиницей
	if hasCyr.MatchString(s) {
		s = unifyLookalikes(s)
	}
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "ё", "е")
	return collapseSpaces(punct.ReplaceAllString(s, " "))
}

func unifyLookalikes(s string) string {
	b := make([]rune, 0, len(s))
	for _, r := range s {
		if rr, ok := lookalikes[r]; ok {
			r = rr
		}
		b = append(b, r)
	}
	return string(b)
}

// Лексикографическая сортировка токенов
func tokenSort(s string) string {
	f := strings.Fields(s)
	sort.Strings(f)
	return strings.Join(f, " ")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
