package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"csv-sniffer/internal/convert"
)

type Config struct {
	Host         string
	Port         int
	AllowOrigins []string
	LogLevel     string
	MaxUploadMB  int
	LogFile      string

	// умолчания для чтения CSV, форма запроса и флаги CLI их перекрывают
	Encoding    string
	ForceHeader bool
	SampleSize  int
	Separators  []string
	PreviewRows int
}

func Load() Config {
	port, _ := strconv.Atoi(getenv("PORT", "8082"))
	mb, _ := strconv.Atoi(getenv("MAX_UPLOAD_MB", "256"))
	sample, _ := strconv.Atoi(getenv("CSV_SAMPLE_SIZE", "20"))
	preview, _ := strconv.Atoi(getenv("CSV_PREVIEW_ROWS", "10"))
	force, _ := strconv.ParseBool(getenv("CSV_FORCE_HEADER", "false"))
	origins := strings.Split(getenv("ALLOW_ORIGINS", "*"), ",")
	return Config{
		Host:         getenv("HOST", "127.0.0.1"),
		Port:         port,
		AllowOrigins: origins,
		LogLevel:     getenv("LOG_LEVEL", "info"),
		MaxUploadMB:  mb,
		LogFile:      getenv("LOG_FILE", "logs/csv-sniffer.log"),
		Encoding:     getenv("CSV_ENCODING", "UTF-8"),
		ForceHeader:  force,
		SampleSize:   sample,
		Separators:   ParseSeparators(getenv("CSV_SEPARATORS", `,;\t|^`)),
		PreviewRows:  preview,
	}
}

func (c Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }

// Validate собирает все ошибки конфигурации сразу.
func (c Config) Validate() error {
	var errs []error
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: %d out of range", c.Port))
	}
	if c.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("MAX_UPLOAD_MB: must be positive, got %d", c.MaxUploadMB))
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if !convert.New().CanConvert(c.Encoding) {
		errs = append(errs, fmt.Errorf("CSV_ENCODING: unknown charset %q", c.Encoding))
	}
	if c.SampleSize < 2 {
		errs = append(errs, fmt.Errorf("CSV_SAMPLE_SIZE: need at least 2 lines, got %d", c.SampleSize))
	}
	if c.PreviewRows < 0 {
		errs = append(errs, fmt.Errorf("CSV_PREVIEW_ROWS: negative %d", c.PreviewRows))
	}
	if len(c.Separators) == 0 {
		errs = append(errs, errors.New("CSV_SEPARATORS: empty"))
	}
	for _, s := range c.Separators {
		if utf8.RuneCountInString(s) != 1 {
			errs = append(errs, fmt.Errorf("CSV_SEPARATORS: %q is not a single character", s))
		}
	}
	return errors.Join(errs...)
}

// ParseSeparators: каждый символ строки отдельный кандидат, `\t` означает табуляцию.
func ParseSeparators(s string) []string {
	s = strings.ReplaceAll(s, `\t`, "\t")
	out := make([]string, 0, len(s))
	seen := make(map[rune]bool)
	for _, r := range s {
		if seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, string(r))
	}
	return out
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
