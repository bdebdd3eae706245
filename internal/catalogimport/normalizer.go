package catalogimport

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	maxNameLen        = 100
	maxCategoryLen    = 50
	maxDescriptionLen = 2000
)

// maxPrice is the first value that does not fit decimal(10,2).
var maxPrice = decimal.NewFromInt(100_000_000)

// UpsertCommand is a validated row ready to be written.
type UpsertCommand struct {
	Row         int
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
}

// Normalizer validates rows. Price parsing is strict: a price that cannot be
// read is a row error rather than a silent zero.
type Normalizer struct{}

// Normalize returns the command for row, or a *RowError.
func (Normalizer) Normalize(row Row) (UpsertCommand, error) {
	name := strings.TrimSpace(row.Get(FieldName))
	if name == "" {
		return UpsertCommand{}, rowErrorf(row.Index, "name is empty")
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		return UpsertCommand{}, rowErrorf(row.Index, "name exceeds %d characters", maxNameLen)
	}

	category := strings.TrimSpace(row.Get(FieldCategory))
	if category == "" {
		return UpsertCommand{}, rowErrorf(row.Index, "category is empty")
	}
	if utf8.RuneCountInString(category) > maxCategoryLen {
		return UpsertCommand{}, rowErrorf(row.Index, "category exceeds %d characters", maxCategoryLen)
	}

	price, err := parsePrice(row.Get(FieldPrice))
	if err != nil {
		return UpsertCommand{}, rowErrorf(row.Index, "invalid price %q", row.Get(FieldPrice))
	}
	if price.GreaterThanOrEqual(maxPrice) {
		return UpsertCommand{}, rowErrorf(row.Index, "price %s is out of range", price.String())
	}

	return UpsertCommand{
		Row:         row.Index,
		Name:        name,
		Description: truncateRunes(strings.TrimSpace(row.Get(FieldDescription)), maxDescriptionLen),
		Price:       price,
		Category:    category,
	}, nil
}

var priceSeparators = strings.NewReplacer(",", "", "_", "", " ", "")

// parsePrice strips thousands separators, clamps at zero and rounds to cents.
func parsePrice(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(priceSeparators.Replace(strings.TrimSpace(raw)))
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		d = decimal.Zero
	}
	return d.Round(2), nil
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
