package model

// Options: параметры чтения; пустые значения берутся из конфигурации.
type Options struct {
	Encoding    string   // объявленная кодировка CSV
	ForceHeader bool     // без заголовка ошибка, а не позиционные ключи
	Separator   string   // "" определить, "none" одна колонка
	Delimiter   string   // кавычка
	SampleSize  int      // строк в выборке для определения
	Separators  []string // кандидаты в разделители
	PreviewRows int      // сколько строк вернуть в отчёте
}

type Kind string

const (
	KindNumber Kind = "number"
	KindText   Kind = "text"
	KindEmpty  Kind = "empty"
)

type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Problem: строка, которую не удалось прочитать (число колонок, перекодировка).
type Problem struct {
	Line  int    `json:"line"`
	Error string `json:"error"`
}

type Report struct {
	Source           string     `json:"source"`
	Format           string     `json:"format"`             // csv | xlsx | xls
	Encoding         string     `json:"encoding,omitempty"` // объявленная
	DetectedEncoding string     `json:"detectedEncoding,omitempty"`
	Separator        string     `json:"separator"`
	Delimiter        string     `json:"delimiter,omitempty"`
	HasHeader        bool       `json:"hasHeader"`
	Columns          []Column   `json:"columns"`
	Rows             int        `json:"rows"`
	BadRows          int        `json:"badRows"`
	Problems         []Problem  `json:"problems,omitempty"`
	Preview          [][]string `json:"preview"`
}
