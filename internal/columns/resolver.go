// Package columns ищет запрошенные колонки среди реальных имён заголовка.
// Одну и ту же колонку в разных выгрузках пишут по-разному, поэтому идём от
// точного совпадения через нормализацию и вхождение к нечёткому сравнению.
package columns

import (
	"errors"
	"fmt"
	"strings"

	"csv-sniffer/internal/csvreader"
)

type Method string

const (
	Exact      Method = "exact"
	Normalized Method = "normalized"
	Contains   Method = "contains"
	Fuzzy      Method = "fuzzy"
)

const DefaultThreshold = 0.8

var ErrUnresolved = errors.New("column not found")

type UnresolvedError struct {
	Wants []string
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%v: %s", ErrUnresolved, strings.Join(e.Wants, ", "))
}

func (e *UnresolvedError) Is(target error) bool { return target == ErrUnresolved }

// Match: найденная колонка. Want хранит запрос как есть (с альтернативами).
type Match struct {
	Want   string  `json:"want"`
	Key    string  `json:"key"`
	Method Method  `json:"method"`
	Score  float64 `json:"score"`
}

type Resolver struct {
	keys      []string
	norms     []string
	byNorm    map[string]string
	idx       *index
	threshold float64
}

type Option func(*Resolver)

func WithThreshold(t float64) Option {
	return func(r *Resolver) {
		if t > 0 && t <= 1 {
			r.threshold = t
		}
	}
}

func NewResolver(keys []string, opts ...Option) *Resolver {
	r := &Resolver{
		keys:      keys,
		norms:     make([]string, len(keys)),
		byNorm:    make(map[string]string, len(keys)),
		threshold: DefaultThreshold,
	}
	for _, o := range opts {
		o(r)
	}
	for i, k := range keys {
		n := normalize(k)
		r.norms[i] = n
		// при дублях побеждает первая колонка
		if _, ok := r.byNorm[n]; !ok && n != "" {
			r.byNorm[n] = k
		}
	}
	r.idx = buildIndex(r.norms)
	return r
}

// Resolve ищет реальный ключ по желаемому имени.
// Поддерживает варианты через "|" (например: "Наименование|Номенклатура").
func (r *Resolver) Resolve(want string) (Match, bool) {
	q := strings.TrimSpace(want)
	if q == "" {
		return Match{}, false
	}
	alts := make([]string, 0, 2)
	for _, a := range strings.Split(q, "|") {
		if a = strings.TrimSpace(a); a != "" {
			alts = append(alts, a)
		}
	}

	// 1) точное совпадение (как есть)
	for _, a := range alts {
		for _, k := range r.keys {
			if k == a {
				return Match{Want: want, Key: k, Method: Exact, Score: 1}, true
			}
		}
	}

	// 2) по нормализованному имени
	nalts := make([]string, 0, len(alts))
	for _, a := range alts {
		if n := normalize(a); n != "" {
			nalts = append(nalts, n)
		}
	}
	for _, n := range nalts {
		if k, ok := r.byNorm[n]; ok {
			return Match{Want: want, Key: k, Method: Normalized, Score: 1}, true
		}
	}

	// 3) составные заголовки: "сальдо на конец периода количество" содержит
	//    "количество". Сравниваем целые слова, иначе "a" найдётся везде.
	bestKey, bestScore := "", 0.0
	for i, nk := range r.norms {
		if nk == "" {
			continue
		}
		for _, n := range nalts {
			if !containsWords(nk, n) && !containsWords(n, nk) {
				continue
			}
			if s := lengthRatio(nk, n); s > bestScore {
				bestKey, bestScore = r.keys[i], s
			}
		}
	}
	if bestKey != "" {
		return Match{Want: want, Key: bestKey, Method: Contains, Score: bestScore}, true
	}

	// 4) опечатки: кандидаты по триграммам, затем Дамерау-Левенштейн
	bestNorm := ""
	for _, n := range nalts {
		for _, cand := range r.idx.candidates(n) {
			if s := bestSimilarity(n, cand); s > bestScore {
				bestNorm, bestScore = cand, s
			}
		}
	}
	if bestNorm != "" && bestScore >= r.threshold {
		return Match{Want: want, Key: r.byNorm[bestNorm], Method: Fuzzy, Score: bestScore}, true
	}
	return Match{}, false
}

// ResolveAll ищет все имена и сообщает обо всех промахах сразу.
func (r *Resolver) ResolveAll(wants []string) ([]Match, error) {
	out := make([]Match, 0, len(wants))
	var missing []string
	for _, w := range wants {
		m, ok := r.Resolve(w)
		if !ok {
			missing = append(missing, w)
			continue
		}
		out = append(out, m)
	}
	if len(missing) > 0 {
		return nil, &UnresolvedError{Wants: missing}
	}
	return out, nil
}

// Project оставляет только найденные колонки в запрошенном порядке.
func Project(row csvreader.Row, matches []Match) csvreader.Row {
	out := csvreader.Row{
		Line:   row.Line,
		Keys:   make([]string, len(matches)),
		Values: make([]string, len(matches)),
	}
	for i, m := range matches {
		out.Keys[i] = m.Key
		out.Values[i], _ = row.Get(m.Key)
	}
	return out
}

func containsWords(s, sub string) bool {
	return strings.Contains(" "+s+" ", " "+sub+" ")
}

func lengthRatio(a, b string) float64 {
	la, lb := len([]rune(a)), len([]rune(b))
	return float64(min(la, lb)) / float64(max(la, lb))
}
