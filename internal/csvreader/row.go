package csvreader

// Row: строка данных с ключами из заголовка, а без заголовка по позиции.
// Keys общий для строк, менять его нельзя.
type Row struct {
	Line   int
	Keys   []string
	Values []string
}

func (r Row) Len() int { return len(r.Values) }

func (r Row) Get(key string) (string, bool) {
	for i, k := range r.Keys {
		if k == key && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return "", false
}

func (r Row) Map() map[string]string {
	m := make(map[string]string, len(r.Values))
	for i, v := range r.Values {
		if i < len(r.Keys) {
			m[r.Keys[i]] = v
		}
	}
	return m
}
