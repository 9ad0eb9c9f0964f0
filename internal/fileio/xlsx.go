package fileio

import (
	"bytes"

	excelize "github.com/xuri/excelize/v2"

	"csv-sniffer/internal/dialect"
	"csv-sniffer/internal/lines"
)

func readXLSX(src lines.Source, det *dialect.Detector) (*sheet, error) {
	b, err := readAllSource(src)
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := f.GetSheetName(0)
	rows, err := f.GetRows(name)
	if err != nil {
		return nil, err
	}
	return newSheet(src.Name()+":"+name, rows, det), nil
}
