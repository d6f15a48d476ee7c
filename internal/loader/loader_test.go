package loader

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/treedash-cli/internal/table"
)

const plantingCSV = "Site Code,Species,Yr Planted,No Trees Planted,No. Live Trees\n" +
	"A,Quercus rubra,2018,100,50\n" +
	"A,Acer rubrum,2019,40,30\n" +
	"B,Quercus rubra,2018,20,0\n"

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

type testSheet struct {
	name string
	rows [][]string
	// raw replaces the generated <sheetData> body when set.
	raw string
}

// buildXLSX assembles a minimal workbook in memory. Workbook order follows
// the argument order while sheetIds run backwards, so tests catch any
// reliance on sheetId.
func buildXLSX(t *testing.T, sheets ...testSheet) []byte {
	t.Helper()
	var shared []string
	sharedIdx := map[string]int{}
	str := func(s string) int {
		if i, ok := sharedIdx[s]; ok {
			return i
		}
		sharedIdx[s] = len(shared)
		shared = append(shared, s)
		return len(shared) - 1
	}

	var wb, rels strings.Builder
	wb.WriteString(`<?xml version="1.0" encoding="UTF-8"?><workbook xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships"><sheets>`)
	rels.WriteString(`<?xml version="1.0" encoding="UTF-8"?><Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`)
	files := map[string]string{}
	for i, s := range sheets {
		fmt.Fprintf(&wb, `<sheet name="%s" sheetId="%d" r:id="rId%d"/>`, s.name, len(sheets)-i, i+1)
		target := fmt.Sprintf("worksheets/sheet%d.xml", i+1)
		if i%2 == 1 {
			target = "/xl/" + target
		}
		fmt.Fprintf(&rels, `<Relationship Id="rId%d" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/worksheet" Target="%s"/>`, i+1, target)

		body := s.raw
		if body == "" {
			var sb strings.Builder
			for r, row := range s.rows {
				fmt.Fprintf(&sb, `<row r="%d">`, r+1)
				for c, v := range row {
					if v == "" {
						continue
					}
					ref := fmt.Sprintf("%c%d", 'A'+c, r+1)
					if _, err := strconv.ParseFloat(v, 64); err == nil {
						fmt.Fprintf(&sb, `<c r="%s"><v>%s</v></c>`, ref, v)
					} else {
						fmt.Fprintf(&sb, `<c r="%s" t="s"><v>%d</v></c>`, ref, str(v))
					}
				}
				sb.WriteString(`</row>`)
			}
			body = sb.String()
		}
		files[fmt.Sprintf("xl/worksheets/sheet%d.xml", i+1)] = `<?xml version="1.0" encoding="UTF-8"?><worksheet xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main"><sheetData>` + body + `</sheetData></worksheet>`
	}
	wb.WriteString(`</sheets></workbook>`)
	rels.WriteString(`</Relationships>`)

	var ss strings.Builder
	fmt.Fprintf(&ss, `<?xml version="1.0" encoding="UTF-8"?><sst xmlns="http://schemas.openxmlformats.org/spreadsheetml/2006/main" count="%d" uniqueCount="%d">`, len(shared), len(shared))
	for _, s := range shared {
		fmt.Fprintf(&ss, `<si><t>%s</t></si>`, s)
	}
	ss.WriteString(`</sst>`)

	files["xl/workbook.xml"] = wb.String()
	files["xl/_rels/workbook.xml.rels"] = rels.String()
	files["xl/sharedStrings.xml"] = ss.String()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func workbookFixture(t *testing.T) []byte {
	return buildXLSX(t,
		testSheet{name: "Summary", rows: [][]string{
			{"Site", "Native (%)"},
			{"A", "60"},
		}},
		testSheet{name: "Planting", rows: [][]string{
			{"Tree planting report"},
			{"Site Code", "Species", "No Trees Planted", "No Live Trees"},
			{"A", "Quercus rubra", "100", "50"},
			{"B", "Acer rubrum", "10", "9"},
		}},
	)
}

func TestLoadDefaultCSV(t *testing.T) {
	p := writeFile(t, "planting.csv", plantingCSV)
	ds, err := New().Load(Request{Name: "planting", DefaultPath: p})
	require.NoError(t, err)
	assert.Equal(t, "planting", ds.Name)
	assert.Equal(t, 3, ds.NumRows())
	assert.Equal(t, []string{"Site Code", "Species", "Yr Planted", "No Trees Planted", "No. Live Trees"}, ds.Names())

	col, ok := ds.Column("No Trees Planted")
	require.True(t, ok)
	assert.Equal(t, table.Number(100), col.Cells[0])
}

func TestLoadOverrideWins(t *testing.T) {
	p := writeFile(t, "planting.csv", plantingCSV)
	ov := Override("upload.csv", []byte("site,alive\nZ,1\n"), "")
	ds, err := New().Load(Request{Name: "planting", DefaultPath: p, Override: &ov})
	require.NoError(t, err)
	assert.Equal(t, 1, ds.NumRows())
	assert.Equal(t, []string{"site", "alive"}, ds.Names())
}

func TestLoadEmptyOverrideIsAbsent(t *testing.T) {
	p := writeFile(t, "planting.csv", plantingCSV)
	ov := Override("upload.csv", nil, FormatCSV)
	ds, err := New().Load(Request{Name: "planting", DefaultPath: p, Override: &ov})
	require.NoError(t, err)
	assert.Equal(t, 3, ds.NumRows())
}

func TestLoadCorruptOverride(t *testing.T) {
	p := writeFile(t, "planting.csv", plantingCSV)
	tests := []struct {
		msg string
		src Source
	}{
		{"garbage xlsx", Override("upload.xlsx", []byte("definitely not a zip"), "")},
		{"invalid utf8 csv", Override("upload.csv", []byte{0xff, 0xfe, 0x00, ','}, FormatCSV)},
		{"bare quote csv", Override("upload.csv", []byte("a,b\n1,\"x\"y\n"), FormatCSV)},
		{"header only blank", Override("upload.csv", []byte(",,\n"), FormatCSV)},
		{"cell ref past last column", Override("upload.xlsx", buildXLSX(t, testSheet{
			name: "Data",
			raw:  `<row r="1"><c r="ZZZZZZZZZ1"><v>1</v></c></row>`,
		}), "")},
		{"cell ref past XFD", Override("upload.xlsx", buildXLSX(t, testSheet{
			name: "Data",
			raw:  `<row r="1"><c r="XFE1"><v>1</v></c></row>`,
		}), "")},
	}
	for _, v := range tests {
		t.Run(v.msg, func(t *testing.T) {
			src := v.src
			ds, err := New().Load(Request{Name: "planting", DefaultPath: p, Override: &src})
			require.Error(t, err)
			kind, ok := KindOf(err)
			require.True(t, ok)
			assert.Equal(t, OverrideParseFailed, kind)
			require.NotNil(t, ds)
			assert.Equal(t, 0, ds.NumRows())
			assert.Equal(t, 0, ds.NumCols())
			assert.Contains(t, err.Error(), "override:upload")
		})
	}
}

func TestLoadDefaultFailure(t *testing.T) {
	ds, err := New().Load(Request{Name: "planting", DefaultPath: filepath.Join(t.TempDir(), "missing.csv")})
	require.Error(t, err)
	kind, _ := KindOf(err)
	assert.Equal(t, DefaultParseFailed, kind)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	require.NotNil(t, ds)
	assert.True(t, ds.IsEmpty())
}

func TestLoadUnsupportedFormat(t *testing.T) {
	p := writeFile(t, "planting.json", "{}")
	_, err := New().Load(Request{Name: "planting", DefaultPath: p})
	kind, _ := KindOf(err)
	assert.Equal(t, UnsupportedFormat, kind)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	ov := Override("notes.txt", []byte("hello"), "")
	ds, err := New().Load(Request{Name: "planting", Override: &ov})
	kind, _ = KindOf(err)
	assert.Equal(t, UnsupportedFormat, kind)
	assert.NotNil(t, ds)
}

func TestFormat(t *testing.T) {
	f, err := ParseFormat(".XLSX")
	require.NoError(t, err)
	assert.Equal(t, FormatXLSX, f)

	f, err = FormatFromName("data/trees.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)

	_, err = FormatFromName("trees")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	_, err = ParseFormat("parquet")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestSheetsAndSelection(t *testing.T) {
	data := workbookFixture(t)
	src := Override("inventory.xlsx", data, "")
	ld := New()

	names, err := ld.Sheets(src)
	require.NoError(t, err)
	assert.Equal(t, []string{"Summary", "Planting"}, names)

	t.Run("zero selector is the first sheet", func(t *testing.T) {
		ds, err := ld.Load(Request{Name: "summary", Override: &src})
		require.NoError(t, err)
		assert.Equal(t, []string{"Site", "Native (%)"}, ds.Names())
	})
	t.Run("by name", func(t *testing.T) {
		ds, err := ld.Load(Request{Name: "planting", Override: &src, Sheet: SheetSelector{Name: "planting"}, SkipRows: 1})
		require.NoError(t, err)
		assert.Equal(t, []string{"Site Code", "Species", "No Trees Planted", "No Live Trees"}, ds.Names())
		assert.Equal(t, 2, ds.NumRows())
	})
	t.Run("by index", func(t *testing.T) {
		ds, err := ld.Load(Request{Name: "planting", Override: &src, Sheet: SheetSelector{Index: 1}, SkipRows: AutoHeader})
		require.NoError(t, err)
		assert.Equal(t, "Site Code", ds.Names()[0])
		col, _ := ds.Column("No Live Trees")
		assert.Equal(t, table.Number(50), col.Cells[0])
	})
	t.Run("missing sheet", func(t *testing.T) {
		_, err := ld.Load(Request{Name: "x", Override: &src, Sheet: SheetSelector{Name: "Greenbush"}})
		assert.ErrorIs(t, err, ErrSheetNotFound)
		assert.Contains(t, err.Error(), "Summary, Planting")

		_, err = ld.Load(Request{Name: "x", Override: &src, Sheet: SheetSelector{Index: 5}})
		assert.ErrorIs(t, err, ErrSheetNotFound)
	})

	_, err = ld.Sheets(Override("a.csv", []byte("a\n1\n"), ""))
	assert.ErrorIs(t, err, ErrNotWorkbook)
}

func TestLoadSheets(t *testing.T) {
	src := Override("inventory.xlsx", workbookFixture(t), "")
	got, err := New().LoadSheets(src, []SheetBinding{
		{Name: "planting", Sheet: SheetSelector{Name: "Planting"}, SkipRows: 1},
		{Name: "summary", Sheet: SheetSelector{Name: "Summary"}},
		{Name: "greenbush", Sheet: SheetSelector{Name: "Greenbush"}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSheetNotFound)
	require.Len(t, got, 3)
	assert.Equal(t, 2, got["planting"].NumRows())
	assert.Equal(t, 1, got["summary"].NumRows())
	assert.True(t, got["greenbush"].IsEmpty())
}

func TestXLSXCellTypes(t *testing.T) {
	raw := `<row r="1"><c r="A1" t="inlineStr"><is><t>Species</t></is></c><c r="B1" t="inlineStr"><is><r><t>Na</t></r><r><t>tive</t></r></is></c><c r="C1" t="str"><v>Ratio</v></c><c r="D1" t="inlineStr"><is><t>Err</t></is></c></row>` +
		`<row r="2"><c t="inlineStr"><is><t>Oak</t></is></c><c t="b"><v>1</v></c><c><f>1/4</f><v>0.25</v></c><c t="e"><v>#DIV/0!</v></c></row>` +
		`<row r="3"><c r="A3" t="inlineStr"><is><t>Elm</t></is></c><c r="C3"><v>3</v></c></row>`
	src := Override("types.xlsx", buildXLSX(t, testSheet{name: "Data", raw: raw}), "")
	ds, err := New().Load(Request{Name: "types", Override: &src})
	require.NoError(t, err)
	assert.Equal(t, []string{"Species", "Native", "Ratio", "Err"}, ds.Names())
	assert.Equal(t, []table.Cell{table.Text("Oak"), table.Text("TRUE"), table.Number(0.25), table.Missing()}, ds.Row(0))
	assert.Equal(t, []table.Cell{table.Text("Elm"), table.Missing(), table.Number(3), table.Missing()}, ds.Row(1))
}

func TestSkipRowsAndAutoHeader(t *testing.T) {
	content := "Tree Survival Summary,,\n" +
		",,\n" +
		"Site Code,No Trees Planted,No Live Trees\n" +
		"A,100,50\n" +
		"B,10,9\n"
	p := writeFile(t, "summary.csv", content)
	ld := New()

	for _, skip := range []int{1, AutoHeader} {
		ds, err := ld.Load(Request{Name: "summary", DefaultPath: p, SkipRows: skip})
		require.NoError(t, err)
		assert.Equal(t, []string{"Site Code", "No Trees Planted", "No Live Trees"}, ds.Names())
		assert.Equal(t, 2, ds.NumRows())
	}

	ds, err := ld.Load(Request{Name: "summary", DefaultPath: p})
	require.NoError(t, err)
	assert.Equal(t, []string{"Tree Survival Summary"}, ds.Names())

	_, err = ld.Load(Request{Name: "summary", DefaultPath: p, SkipRows: 10})
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestHeaderGapsAndDuplicates(t *testing.T) {
	content := "site,,alive\nA,x,1\nA,x,1\nB,y,2\n"
	p := writeFile(t, "dups.csv", content)
	ds, err := New().Load(Request{Name: "dups", DefaultPath: p, DropDuplicates: true})
	require.NoError(t, err)
	assert.Equal(t, []string{"site", "unnamed_1", "alive"}, ds.Names())
	assert.Equal(t, 2, ds.NumRows())
}

func TestDelimiterAndNumberFormat(t *testing.T) {
	p := writeFile(t, "eu.csv", "site;rate\nA;1.250,5\n")
	ds, err := New(WithDelimiter(';'), WithNumberFormat(table.NumberFormat{Decimal: ',', Thousands: '.'})).
		Load(Request{Name: "eu", DefaultPath: p})
	require.NoError(t, err)
	col, _ := ds.Column("rate")
	assert.Equal(t, table.Number(1250.5), col.Cells[0])
}

func TestCacheKeyedByContent(t *testing.T) {
	a := writeFile(t, "a.csv", plantingCSV)
	b := writeFile(t, "b.csv", plantingCSV)
	ld := New(WithCache())

	first, err := ld.Load(Request{Name: "planting", DefaultPath: a})
	require.NoError(t, err)
	second, err := ld.Load(Request{Name: "copy", DefaultPath: b})
	require.NoError(t, err)
	assert.Equal(t, "copy", second.Name)
	assert.Equal(t, first.NumRows(), second.NumRows())
	assert.Equal(t, CacheStats{Entries: 1, Hits: 1, Misses: 1}, ld.Stats())

	// mutating a returned dataset never leaks into the cache
	second.Columns[0].Cells[0] = table.Text("mutated")
	third, err := ld.Load(Request{Name: "planting", DefaultPath: a})
	require.NoError(t, err)
	assert.Equal(t, table.Text("A"), third.Columns[0].Cells[0])

	// same logical name, new content: no stale data
	ov := Override("new.csv", []byte("site\nQ\n"), "")
	fresh, err := ld.Load(Request{Name: "planting", DefaultPath: a, Override: &ov})
	require.NoError(t, err)
	assert.Equal(t, 1, fresh.NumRows())

	// failures are never cached
	bad := Override("bad.xlsx", []byte("nope"), "")
	_, err = ld.Load(Request{Name: "planting", Override: &bad})
	require.Error(t, err)
	assert.Equal(t, 2, ld.Stats().Entries)
}

func TestOverrideFile(t *testing.T) {
	p := writeFile(t, "upload.csv", "site\nA\n")
	src, err := OverrideFile(p)
	require.NoError(t, err)
	assert.True(t, src.IsOverride())
	assert.Equal(t, "override:upload.csv", src.String())

	_, err = OverrideFile(filepath.Join(t.TempDir(), "nope.csv"))
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestXLSXRefHelpers(t *testing.T) {
	t.Run("normalizeRelPath", func(t *testing.T) {
		tests := []struct{ in, want string }{
			{"/xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
			{"xl/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
			{"/worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
			{"worksheets/sheet1.xml", "xl/worksheets/sheet1.xml"},
		}
		for _, v := range tests {
			assert.Equal(t, v.want, normalizeRelPath(v.in), v.in)
		}
	})
	t.Run("colIndexFromRef", func(t *testing.T) {
		assert.Equal(t, 0, colIndexFromRef("A1"))
		assert.Equal(t, 2, colIndexFromRef("c12"))
		assert.Equal(t, 27, colIndexFromRef("AB3"))
		assert.Equal(t, -1, colIndexFromRef(""))
		assert.Equal(t, maxColumns-1, colIndexFromRef("XFD1"))
		assert.Equal(t, maxColumns, colIndexFromRef("ABCD1"))
	})
}
