package catalogimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

const (
	FieldName        = "name"
	FieldCategory    = "category"
	FieldPrice       = "price"
	FieldDescription = "description"
)

// RequiredFields must all be present in the header row.
var RequiredFields = []string{FieldName, FieldCategory, FieldPrice}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one data line keyed by lower-cased header. Index is the 1-based line
// number in the file; the header is line 1.
type Row struct {
	Index  int
	Fields map[string]string
}

func (r Row) Get(field string) string { return r.Fields[field] }

type Parser struct {
	maxRows int
}

func NewParser(p Policy) *Parser {
	return &Parser{maxRows: p.withDefaults().MaxRows}
}

// Parse decodes the whole stream, checks the header and returns the rows to import:
// rows missing a required value are dropped, duplicate names keep their first
// occurrence, and the result is capped at the policy's MaxRows.
func (p *Parser) Parse(r io.Reader, kind FileKind) ([]Row, error) {
	var (
		rows []Row
		err  error
	)
	switch kind {
	case KindCSV:
		rows, err = parseCSV(r)
	case KindXLSX:
		rows, err = parseXLSX(r)
	default:
		return nil, ErrUnsupportedFileType
	}
	if err != nil {
		return nil, err
	}
	return p.prepare(rows), nil
}

func (p *Parser) prepare(rows []Row) []Row {
	out := make([]Row, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		if row.Get(FieldName) == "" || row.Get(FieldCategory) == "" || row.Get(FieldPrice) == "" {
			continue
		}
		name := strings.TrimSpace(row.Get(FieldName))
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, row)
		if len(out) == p.maxRows {
			break
		}
	}
	return out
}

// ── CSV ─────────────────────────────────────────────────────────────────────

func parseCSV(r io.Reader) ([]Row, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &DecodeError{Kind: KindCSV, Err: err}
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &DecodeError{Kind: KindCSV, Err: errors.New("file is empty")}
	}
	if !utf8.Valid(data) {
		return nil, &DecodeError{Kind: KindCSV, Err: errors.New("file is not valid UTF-8")}
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil, &DecodeError{Kind: KindCSV, Err: err}
	}
	headers := normalizeHeaders(header)
	if err := checkSchema(headers); err != nil {
		return nil, err
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				continue
			}
			return nil, &DecodeError{Kind: KindCSV, Err: err}
		}
		if len(record) > len(headers) {
			continue
		}
		line, _ := reader.FieldPos(0)
		rows = append(rows, Row{Index: line, Fields: zipFields(headers, record)})
	}
	return rows, nil
}

// ── XLSX ────────────────────────────────────────────────────────────────────

func parseXLSX(r io.Reader) ([]Row, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &DecodeError{Kind: KindXLSX, Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &DecodeError{Kind: KindXLSX, Err: errors.New("workbook has no sheets")}
	}
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &DecodeError{Kind: KindXLSX, Err: err}
	}
	if len(grid) == 0 {
		return nil, &DecodeError{Kind: KindXLSX, Err: errors.New("first sheet is empty")}
	}

	headers := normalizeHeaders(grid[0])
	if err := checkSchema(headers); err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(grid)-1)
	for i := 1; i < len(grid); i++ {
		cells := grid[i]
		if len(cells) > len(headers) {
			cells = cells[:len(headers)]
		}
		rows = append(rows, Row{Index: i + 1, Fields: zipFields(headers, cells)})
	}
	return rows, nil
}

// ── helpers ─────────────────────────────────────────────────────────────────

func normalizeHeaders(raw []string) []string {
	out := make([]string, len(raw))
	for i, h := range raw {
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

func checkSchema(headers []string) error {
	present := make(map[string]bool, len(headers))
	for _, h := range headers {
		present[h] = true
	}
	var missing []string
	for _, f := range RequiredFields {
		if !present[f] {
			missing = append(missing, f)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// zipFields pairs cells with headers. Missing trailing cells read as "".
func zipFields(headers, cells []string) map[string]string {
	fields := make(map[string]string, len(headers))
	for i, h := range headers {
		if h == "" {
			continue
		}
		if i < len(cells) {
			fields[h] = cells[i]
		} else {
			fields[h] = ""
		}
	}
	return fields
}
