package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"csv-sniffer/internal/config"
	"csv-sniffer/internal/csvreader"
	"csv-sniffer/internal/lines"
	"csv-sniffer/internal/sniff/model"
	"csv-sniffer/internal/sniff/service"
)

var version = "dev"

type flags struct {
	encoding    string
	separator   string
	delimiter   string
	forceHeader bool
	sampleSize  int
	previewRows int
	logLevel    string
	columns     []string
}

func (f *flags) options(cfg config.Config) model.Options {
	sep := f.separator
	if sep == `\t` || strings.EqualFold(sep, "tab") {
		sep = "\t"
	}
	return model.Options{
		Encoding:    f.encoding,
		ForceHeader: f.forceHeader,
		Separator:   sep,
		Delimiter:   f.delimiter,
		SampleSize:  f.sampleSize,
		Separators:  cfg.Separators,
		PreviewRows: f.previewRows,
	}
}

func (f *flags) logger(w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(f.logLevel)
	if err != nil {
		lvl = zerolog.WarnLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}).
		Level(lvl).With().Timestamp().Logger()
}

// source: "-" означает stdin, копируем во временный файл, чтобы его можно было
// открывать повторно (выборка, заголовок, подсчёт).
func source(arg string, stdin io.Reader) (lines.Source, func(), error) {
	if arg != "-" {
		if _, err := os.Stat(arg); err != nil {
			return nil, nil, err
		}
		return lines.File(arg), func() {}, nil
	}
	tmp, err := os.CreateTemp("", "csvsniff-*")
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = os.Remove(tmp.Name()) }
	_, err = io.Copy(tmp, stdin)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("spool stdin: %w", err)
	}
	return lines.File(tmp.Name()), cleanup, nil
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	cfg := config.Load()
	f := &flags{}

	root := &cobra.Command{
		Use:   "csvsniff",
		Short: "Detect charset, separator and header of CSV and spreadsheet files",
		Long: `csvsniff reads a CSV (or XLS/XLSX) file, detects its separator and header,
checks the declared charset and streams the rows.

Example:
  csvsniff sniff prices.csv --encoding windows-1251
  csvsniff rows stock.csv --columns "Артикул,Количество|Кол-во"
  cat data.csv | csvsniff count -`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.StringVar(&f.encoding, "encoding", cfg.Encoding, "Declared charset of the CSV file")
	pf.StringVar(&f.separator, "separator", "", `Column separator; empty to detect, "none" for a single column, "tab" for \t`)
	pf.StringVar(&f.delimiter, "delimiter", "", `Quote character (default ")`)
	pf.BoolVar(&f.forceHeader, "force-header", cfg.ForceHeader, "Fail when the first line is not a header")
	pf.IntVar(&f.sampleSize, "sample-size", cfg.SampleSize, "Lines read to detect the dialect")
	pf.StringVar(&f.logLevel, "log-level", "warn", "Log level (trace, debug, info, warn, error)")

	run := func(fn func(ctx context.Context, svc *service.Service, src lines.Source, name string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			src, cleanup, err := source(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer cleanup()
			svc := service.New(nil, f.logger(cmd.ErrOrStderr()))
			return fn(cmd.Context(), svc, src, args[0])
		}
	}

	sniffCmd := &cobra.Command{
		Use:   "sniff FILE",
		Short: "Print a JSON report about the file",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, svc *service.Service, src lines.Source, name string) error {
			rep, err := svc.Sniff(ctx, src, name, f.options(cfg))
			if err != nil {
				return err
			}
			enc := json.NewEncoder(stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}),
	}
	sniffCmd.Flags().IntVar(&f.previewRows, "preview", cfg.PreviewRows, "Rows to include in the report")

	rowsCmd := &cobra.Command{
		Use:   "rows FILE",
		Short: "Stream rows as NDJSON",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, svc *service.Service, src lines.Source, name string) error {
			enc := json.NewEncoder(stdout)
			log := f.logger(stderr)
			st, err := svc.Stream(ctx, src, name, f.options(cfg), f.columns, func(row csvreader.Row, rowErr error) error {
				if rowErr != nil {
					log.Warn().Err(rowErr).Msg("row skipped")
					return nil
				}
				return enc.Encode(row.Map())
			})
			if err != nil {
				return err
			}
			if st.BadRows > 0 {
				log.Warn().Int("bad_rows", st.BadRows).Msg("some rows were skipped")
			}
			return nil
		}),
	}
	rowsCmd.Flags().StringSliceVar(&f.columns, "columns", nil, `Columns to keep, in order; alternatives with "|"`)

	countCmd := &cobra.Command{
		Use:   "count FILE",
		Short: "Print the number of data rows",
		Args:  cobra.ExactArgs(1),
		RunE: run(func(ctx context.Context, svc *service.Service, src lines.Source, name string) error {
			n, err := svc.Count(ctx, src, name, f.options(cfg))
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(stdout, n)
			return err
		}),
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(stdout, "csvsniff %s\n", version)
			fmt.Fprintf(stdout, "Go version: %s\n", runtime.Version())
			fmt.Fprintf(stdout, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}

	root.AddCommand(sniffCmd, rowsCmd, countCmd, versionCmd)
	return root
}

func main() {
	_ = godotenv.Load() // .env может и не быть

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
