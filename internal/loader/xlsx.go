package loader

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"

	"github.com/KaramelBytes/treedash-cli/internal/table"
)

type xlsxReader struct{}

func (xlsxReader) CanRead(f Format) bool { return f == FormatXLSX }

func (xlsxReader) Sheets(data []byte) ([]string, error) {
	wb, err := openWorkbook(data)
	if err != nil {
		return nil, err
	}
	return wb.names(), nil
}

func (xlsxReader) Read(data []byte, opt readOptions) ([][]table.Cell, error) {
	wb, err := openWorkbook(data)
	if err != nil {
		return nil, err
	}
	target, err := wb.target(opt.Sheet)
	if err != nil {
		return nil, err
	}
	sheetXML, ok := readZipFile(wb.zr, target)
	if !ok {
		return nil, fmt.Errorf("xlsx: worksheet %s missing from archive", target)
	}
	rr := newSheetRowReader(sheetXML, wb.shared)
	var rows [][]table.Cell
	for {
		row, ok := rr.Next()
		if !ok {
			break
		}
		rows = append(rows, row)
	}
	if rr.err != nil {
		return nil, fmt.Errorf("xlsx: %s: %w", target, rr.err)
	}
	return rows, nil
}

type workbook struct {
	zr     *zip.Reader
	sheets []wbSheet
	rels   map[string]string
	shared []string
}

type wbSheet struct {
	Name    string
	SheetID int
	RID     string
}

func openWorkbook(data []byte) (*workbook, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("xlsx: open archive: %w", err)
	}
	workbookXML, ok := readZipFile(zr, "xl/workbook.xml")
	if !ok {
		return nil, errors.New("xlsx: xl/workbook.xml missing")
	}
	relsXML, _ := readZipFile(zr, "xl/_rels/workbook.xml.rels")
	sharedXML, _ := readZipFile(zr, "xl/sharedStrings.xml")
	shared, err := parseSharedStrings(sharedXML)
	if err != nil {
		return nil, fmt.Errorf("xlsx: shared strings: %w", err)
	}
	return &workbook{
		zr:     zr,
		sheets: parseWorkbook(workbookXML),
		rels:   parseRelationships(relsXML),
		shared: shared,
	}, nil
}

func (wb *workbook) names() []string {
	out := make([]string, len(wb.sheets))
	for i, s := range wb.sheets {
		out[i] = s.Name
	}
	return out
}

// target resolves a selector to the worksheet's path inside the archive.
func (wb *workbook) target(sel SheetSelector) (string, error) {
	pos := -1
	switch {
	case sel.Name != "":
		for i, s := range wb.sheets {
			if strings.EqualFold(s.Name, sel.Name) {
				pos = i
				break
			}
		}
	case sel.Index >= 0 && sel.Index < len(wb.sheets):
		pos = sel.Index
	case sel.Index == 0 && len(wb.sheets) == 0:
		// workbook.xml without a sheet list; try the conventional first sheet
		return "xl/worksheets/sheet1.xml", nil
	}
	if pos < 0 {
		return "", fmt.Errorf("%w: %s (available: %s)", ErrSheetNotFound, sel, strings.Join(wb.names(), ", "))
	}
	s := wb.sheets[pos]
	if rel, ok := wb.rels[s.RID]; ok {
		return normalizeRelPath(rel), nil
	}
	return fmt.Sprintf("xl/worksheets/sheet%d.xml", pos+1), nil
}

// parseWorkbook extracts sheet entries with names and relationship ids.
func parseWorkbook(data []byte) []wbSheet {
	if len(data) == 0 {
		return nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var sheets []wbSheet
	for {
		tok, err := dec.Token()
		if err != nil {
			return sheets
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "sheet" {
			continue
		}
		var s wbSheet
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "name":
				s.Name = a.Value
			case "sheetId":
				s.SheetID, _ = strconv.Atoi(a.Value)
			case "id":
				s.RID = a.Value // r: namespace
			}
		}
		sheets = append(sheets, s)
	}
}

// parseRelationships returns r:id -> Target.
func parseRelationships(data []byte) map[string]string {
	out := map[string]string{}
	if len(data) == 0 {
		return out
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			return out
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "Relationship" {
			continue
		}
		var id, target string
		for _, a := range se.Attr {
			switch a.Name.Local {
			case "Id":
				id = a.Value
			case "Target":
				target = a.Value
			}
		}
		if id != "" && target != "" {
			out[id] = target
		}
	}
}

func readZipFile(zr *zip.Reader, name string) ([]byte, bool) {
	for _, f := range zr.File {
		if f.Name != name {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, false
		}
		defer rc.Close()
		b, err := io.ReadAll(rc)
		if err != nil {
			return nil, false
		}
		return b, true
	}
	return nil, false
}

// richText covers both <si> entries and inline <is> strings: a plain <t>
// or a sequence of formatted runs.
type richText struct {
	T string `xml:"t"`
	R []struct {
		T string `xml:"t"`
	} `xml:"r"`
}

func (rt richText) String() string {
	if len(rt.R) == 0 {
		return rt.T
	}
	var b strings.Builder
	b.WriteString(rt.T)
	for _, r := range rt.R {
		b.WriteString(r.T)
	}
	return b.String()
}

func parseSharedStrings(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	var out []string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "si" {
			continue
		}
		var si richText
		if err := dec.DecodeElement(&si, &se); err != nil {
			return nil, err
		}
		out = append(out, si.String())
	}
}

type xlsxCell struct {
	Ref    string    `xml:"r,attr"`
	Type   string    `xml:"t,attr"`
	Value  *string   `xml:"v"`
	Inline *richText `xml:"is"`
}

// sheetRowReader streams <row> elements of a worksheet as typed cells.
type sheetRowReader struct {
	dec    *xml.Decoder
	shared []string
	err    error
}

func newSheetRowReader(data []byte, shared []string) *sheetRowReader {
	return &sheetRowReader{dec: xml.NewDecoder(bytes.NewReader(data)), shared: shared}
}

func (r *sheetRowReader) Next() ([]table.Cell, bool) {
	var (
		row   []table.Cell
		inRow bool
		next  int
	)
	for {
		tok, err := r.dec.Token()
		if err != nil {
			if err != io.EOF {
				r.err = err
			}
			return nil, false
		}
		switch se := tok.(type) {
		case xml.StartElement:
			switch {
			case se.Name.Local == "row":
				inRow, row, next = true, nil, 0
			case inRow && se.Name.Local == "c":
				var c xlsxCell
				if err := r.dec.DecodeElement(&c, &se); err != nil {
					r.err = err
					return nil, false
				}
				idx := colIndexFromRef(c.Ref)
				if idx >= maxColumns {
					r.err = fmt.Errorf("xlsx: cell ref %q out of range", c.Ref)
					return nil, false
				}
				if idx < 0 {
					idx = next
				}
				next = idx + 1
				if len(row) <= idx {
					tmp := make([]table.Cell, idx+1)
					copy(tmp, row)
					row = tmp
				}
				row[idx] = r.cellValue(c)
			}
		case xml.EndElement:
			if se.Name.Local == "row" && inRow {
				return row, true
			}
		}
	}
}

func (r *sheetRowReader) cellValue(c xlsxCell) table.Cell {
	var v string
	if c.Value != nil {
		v = *c.Value
	}
	switch c.Type {
	case "s":
		idx, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || idx < 0 || idx >= len(r.shared) {
			return table.Missing()
		}
		return textCell(r.shared[idx])
	case "inlineStr":
		if c.Inline == nil {
			return table.Missing()
		}
		return textCell(c.Inline.String())
	case "str":
		return textCell(v)
	case "b":
		if strings.TrimSpace(v) == "1" {
			return table.Text("TRUE")
		}
		return table.Text("FALSE")
	case "e":
		return table.Missing()
	}
	v = strings.TrimSpace(v)
	if v == "" {
		return table.Missing()
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return table.Number(f)
	}
	return textCell(v)
}

func textCell(s string) table.Cell {
	if table.IsNull(s) {
		return table.Missing()
	}
	return table.Text(strings.TrimSpace(s))
}

// maxColumns is the worksheet column limit (XFD).
const maxColumns = 16384

// colIndexFromRef maps refs like "C12" to 0-based column 2. It returns -1
// when the ref carries no column letters and maxColumns when it names a
// column past XFD.
func colIndexFromRef(ref string) int {
	idx := 0
	n := 0
	for n < len(ref) {
		if n == 3 {
			if c := ref[n]; (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') {
				return maxColumns
			}
		}
		c := ref[n]
		switch {
		case c >= 'A' && c <= 'Z':
			idx = idx*26 + int(c-'A'+1)
		case c >= 'a' && c <= 'z':
			idx = idx*26 + int(c-'a'+1)
		default:
			return idx - 1
		}
		n++
	}
	return idx - 1
}

// normalizeRelPath converts relationship Target paths to ZIP entry names.
// Targets may be absolute ("/xl/worksheets/sheet1.xml") or relative to xl/.
func normalizeRelPath(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if strings.HasPrefix(rel, "xl/") {
		return rel
	}
	return path.Join("xl", rel)
}
