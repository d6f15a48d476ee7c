package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/KaramelBytes/treedash-cli/internal/table"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

type csvReader struct{}

func (csvReader) CanRead(f Format) bool { return f == FormatCSV }

func (csvReader) Read(data []byte, opt readOptions) ([][]table.Cell, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, errors.New("csv: input is not valid UTF-8")
	}
	r := csv.NewReader(bytes.NewReader(data))
	if opt.Delimiter != 0 {
		r.Comma = opt.Delimiter
	}
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var rows [][]table.Cell
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv: %w", err)
		}
		row := make([]table.Cell, len(rec))
		for i, v := range rec {
			row[i] = table.ParseCell(v, opt.Numbers)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
