package catalogimport

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func parseCSVString(t *testing.T, p Policy, s string) ([]Row, error) {
	t.Helper()
	return NewParser(p).Parse(strings.NewReader(s), KindCSV)
}

func TestParseCSV_HeadersAndLineNumbers(t *testing.T) {
	in := "\ufeff Name ,CATEGORY,Price,Description\n" +
		"Tusker,Beer,250,Kenyan lager\n" +
		"Guinness,Beer,300\n"

	rows, err := parseCSVString(t, DefaultPolicy(), in)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, 2, rows[0].Index)
	assert.Equal(t, "Tusker", rows[0].Get(FieldName))
	assert.Equal(t, "Kenyan lager", rows[0].Get(FieldDescription))

	assert.Equal(t, 3, rows[1].Index)
	assert.Equal(t, "", rows[1].Get(FieldDescription))
}

func TestParseCSV_DropsIncompleteAndDuplicateRows(t *testing.T) {
	in := "name,category,price\n" +
		"Tusker,Beer,250\n" +
		",Beer,100\n" +
		"Pilsner,,100\n" +
		"Whitecap,Beer,\n" +
		"Tusker,Beer,999\n" +
		"tusker,Beer,1\n" +
		"  ,Beer,5\n" +
		" Tusker ,Beer,7\n" +
		"\tWhitecap\t,Beer,300\n"

	rows, err := parseCSVString(t, DefaultPolicy(), in)
	require.NoError(t, err)

	var names []string
	for _, r := range rows {
		names = append(names, r.Get(FieldName))
	}
	// Dedupe ignores surrounding whitespace but not case; whitespace-only names reach the normalizer.
	assert.Equal(t, []string{"Tusker", "tusker", "  ", "\tWhitecap\t"}, names)
	assert.Equal(t, "250", rows[0].Get(FieldPrice))
	assert.Equal(t, 8, rows[2].Index)
}

func TestParseCSV_SkipsLinesWithTooManyFields(t *testing.T) {
	in := "name,category,price\n" +
		"Tusker,Beer,250,extra\n" +
		"Guinness,Beer,300\n"

	rows, err := parseCSVString(t, DefaultPolicy(), in)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Guinness", rows[0].Get(FieldName))
	assert.Equal(t, 3, rows[0].Index)
}

func TestParseCSV_QuotedFields(t *testing.T) {
	in := "name,category,price\n" +
		"\"Gin, Tonic\",Classics,\"1,200\"\n"

	rows, err := parseCSVString(t, DefaultPolicy(), in)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Gin, Tonic", rows[0].Get(FieldName))
	assert.Equal(t, "1,200", rows[0].Get(FieldPrice))
}

func TestParseCSV_CapsRows(t *testing.T) {
	var b strings.Builder
	b.WriteString("name,category,price\n")
	for i := 0; i < 2200; i++ {
		fmt.Fprintf(&b, "P%d,Beer,10\n", i)
	}

	rows, err := parseCSVString(t, DefaultPolicy(), b.String())
	require.NoError(t, err)
	assert.Len(t, rows, 2100)
	assert.Equal(t, "P2099", rows[2099].Get(FieldName))
}

func TestParseCSV_MissingHeadersIsSchemaError(t *testing.T) {
	_, err := parseCSVString(t, DefaultPolicy(), "name,cost\nTusker,250\n")

	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"category", "price"}, schemaErr.Missing)
}

func TestParseCSV_DecodeErrors(t *testing.T) {
	cases := map[string]string{
		"empty":        "",
		"only bom":     "\ufeff",
		"invalid utf8": "name,category,price\n\xff\xfe,Beer,1\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := parseCSVString(t, DefaultPolicy(), in)
			var decErr *DecodeError
			assert.True(t, errors.As(err, &decErr), "got %v", err)
		})
	}
}

func TestParse_UnknownKind(t *testing.T) {
	_, err := NewParser(DefaultPolicy()).Parse(strings.NewReader("x"), FileKind("ods"))
	assert.ErrorIs(t, err, ErrUnsupportedFileType)
}

// ── XLSX ────────────────────────────────────────────────────────────────────

func buildWorkbook(t *testing.T, grid [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, cells := range grid {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &cells))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestParseXLSX_FirstSheet(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{
		{"Name", "Category", "Price"},
		{"Mojito", "Classics", 850},
		{"Negroni", "Classics", "1,100"},
	})

	rows, err := NewParser(DefaultPolicy()).Parse(buf, KindXLSX)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].Index)
	assert.Equal(t, "Mojito", rows[0].Get(FieldName))
	assert.Equal(t, "850", rows[0].Get(FieldPrice))
	assert.Equal(t, 3, rows[1].Index)
}

func TestParseXLSX_MissingHeaders(t *testing.T) {
	buf := buildWorkbook(t, [][]interface{}{{"Name", "Price"}, {"Mojito", 850}})

	_, err := NewParser(DefaultPolicy()).Parse(buf, KindXLSX)
	var schemaErr *SchemaError
	require.True(t, errors.As(err, &schemaErr))
	assert.Equal(t, []string{"category"}, schemaErr.Missing)
}

func TestParseXLSX_NotAWorkbook(t *testing.T) {
	_, err := NewParser(DefaultPolicy()).Parse(strings.NewReader("name,category,price\n"), KindXLSX)
	var decErr *DecodeError
	assert.True(t, errors.As(err, &decErr))
}

func TestPolicyKindFor(t *testing.T) {
	p := DefaultPolicy()

	k, err := p.KindFor("menu.CSV")
	require.NoError(t, err)
	assert.Equal(t, KindCSV, k)

	k, err = p.KindFor("menu.xlsx")
	require.NoError(t, err)
	assert.Equal(t, KindXLSX, k)

	for _, name := range []string{"menu.xls", "menu.json", "menu"} {
		_, err := p.KindFor(name)
		assert.ErrorIs(t, err, ErrUnsupportedFileType, name)
	}
}
