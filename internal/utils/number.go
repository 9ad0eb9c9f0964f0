package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	rxKeepNums = regexp.MustCompile(`[^\d\.\-]`)
	rxNumeric  = regexp.MustCompile(`^[ \t\n\r\v\f]*[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?[ \t\n\r\v\f]*$`)
	rxDigits   = regexp.MustCompile(`\d`)
)

// IsNumeric: строгая проверка числа в "машинной" записи ("12", "-1.5", ".5", "1e3").
// Пробелы по краям допускаются, разделители тысяч и запятая нет.
func IsNumeric(s string) bool {
	return rxNumeric.MatchString(s)
}

// ParseNumber парсит "1 234,50", "197 ,00", "2 345,6" (NBSP/NNBSP), "(12,5)" и т.п.
func ParseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" || !rxDigits.MatchString(s) {
		return 0, false
	}
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	// убрать неразрывные/узкие пробелы и обычные пробелы
	repl := strings.NewReplacer("\u00A0", "", "\u202F", "", "\u2009", "", " ", "", "\t", "", ",", ".")
	s = repl.Replace(s)
	// всё, что кроме цифр/точки/минуса, значит это не число
	if rxKeepNums.MatchString(s) {
		return 0, false
	}
	if s == "" || s == "-" || s == "." {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if neg {
		f = -f
	}
	return f, true
}
