package dialect

import "strings"

// Split режет одну физическую строку на поля.
//
// Поле, начинающееся с кавычки (после пробелов), считается закавыченным:
// удвоенная кавычка внутри означает одну, текст между закрывающей кавычкой и
// следующим разделителем остаётся как есть. Незакрытая кавычка тянется до
// конца строки. При пустом разделителе вся строка будет одним полем.
func Split(line, separator, delimiter string) []string {
	var (
		fields []string
		buf    strings.Builder
		i      int
	)
	for {
		if delimiter != "" {
			j := i
			for j < len(line) && (line[j] == ' ' || line[j] == '\t') && !hasAt(line, j, separator) {
				j++
			}
			if hasAt(line, j, delimiter) {
				i = j + len(delimiter)
				for i < len(line) {
					if hasAt(line, i, delimiter) {
						if hasAt(line, i+len(delimiter), delimiter) {
							buf.WriteString(delimiter)
							i += 2 * len(delimiter)
							continue
						}
						i += len(delimiter)
						break
					}
					buf.WriteByte(line[i])
					i++
				}
			}
		}

		for i < len(line) && !hasAt(line, i, separator) {
			buf.WriteByte(line[i])
			i++
		}
		fields = append(fields, buf.String())
		buf.Reset()

		if i >= len(line) {
			return fields
		}
		i += len(separator)
	}
}

func hasAt(s string, i int, sub string) bool {
	return sub != "" && i <= len(s) && strings.HasPrefix(s[i:], sub)
}

// IsSkippable: в строке нет данных, все поля пустые или из пробелов.
// Пустая физическая строка даёт одно пустое поле.
func IsSkippable(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
