package pricecsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	enc "github.com/mgoncalv/quotedesk/internal/encoding"
	"github.com/mgoncalv/quotedesk/internal/pricebook"
	"github.com/mgoncalv/quotedesk/internal/quote"
)

// Parser reads vendor/distributor price list CSVs and produces price-book
// entries. Exports differ per vendor, so the header row is located by
// landmark matching against known column aliases and the delimiter is
// sniffed from the content.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

var (
	descCols  = []string{"description", "item", "name", "part", "part description"}
	typeCols  = []string{"type", "category", "item type"}
	priceCols = []string{"unit price", "price", "cost", "rate", "list price"}
)

func (p *Parser) Parse(r io.Reader) ([]pricebook.Entry, error) {
	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read price list: %w", err)
	}

	reader := csv.NewReader(strings.NewReader(string(data)))
	reader.Comma = sniffDelimiter(string(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}

	descIdx, typeIdx, priceIdx, headerIdx := findHeader(rows)
	if headerIdx < 0 {
		return nil, fmt.Errorf("no price list header found: expected description and price columns")
	}

	var entries []pricebook.Entry

	for _, row := range rows[headerIdx+1:] {
		desc := cellValue(row, descIdx)
		if desc == "" {
			continue
		}

		price, err := parsePrice(cellValue(row, priceIdx))
		if err != nil {
			// Footers and section dividers land here.
			continue
		}

		entries = append(entries, pricebook.Entry{
			Description: desc,
			Type:        mapItemType(cellValue(row, typeIdx)),
			UnitPrice:   price,
		})
	}

	return entries, nil
}

// sniffDelimiter picks the delimiter from the first line that carries one.
// Preamble lines without any delimiter are skipped.
func sniffDelimiter(data string) rune {
	for _, line := range strings.Split(data, "\n") {
		semis := strings.Count(line, ";")
		commas := strings.Count(line, ",")

		if semis == 0 && commas == 0 {
			continue
		}

		if semis > commas {
			return ';'
		}

		return ','
	}

	return ','
}

// findHeader scans for the first row carrying a description column and a
// price column. Returns the column indices and the header row index, or -1
// when no row matches.
func findHeader(rows [][]string) (descIdx, typeIdx, priceIdx, headerIdx int) {
	for rowIdx, row := range rows {
		descIdx, typeIdx, priceIdx = -1, -1, -1

		for i, cell := range row {
			name := strings.ToLower(strings.TrimSpace(cell))

			switch {
			case descIdx < 0 && contains(descCols, name):
				descIdx = i
			case typeIdx < 0 && contains(typeCols, name):
				typeIdx = i
			case priceIdx < 0 && contains(priceCols, name):
				priceIdx = i
			}
		}

		if descIdx >= 0 && priceIdx >= 0 {
			return descIdx, typeIdx, priceIdx, rowIdx
		}
	}

	return -1, -1, -1, -1
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}

	return false
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}

// parsePrice accepts both "1,234.56" and "1.234,56" style amounts, with or
// without a currency symbol.
func parsePrice(s string) (decimal.Decimal, error) {
	clean := strings.TrimSpace(s)
	clean = strings.Trim(clean, "$€£ ")

	hasComma := strings.Contains(clean, ",")
	hasDot := strings.Contains(clean, ".")

	switch {
	case hasComma && hasDot:
		if strings.LastIndex(clean, ",") > strings.LastIndex(clean, ".") {
			// European style: dot thousands, comma decimal.
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.ReplaceAll(clean, ",", ".")
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case hasComma:
		clean = strings.ReplaceAll(clean, ",", ".")
	}

	return decimal.NewFromString(clean)
}

var typeKeywords = []struct {
	keyword string
	t       quote.ItemType
}{
	{"equipment", quote.ItemEquipment},
	{"unit", quote.ItemEquipment},
	{"system", quote.ItemEquipment},
	{"labor", quote.ItemLabor},
	{"labour", quote.ItemLabor},
	{"install", quote.ItemLabor},
	{"material", quote.ItemMaterials},
	{"part", quote.ItemMaterials},
	{"supp", quote.ItemMaterials},
}

// mapItemType folds free-form vendor categories onto the closed item type
// set. Anything unrecognized lands in "other".
func mapItemType(category string) quote.ItemType {
	category = strings.ToLower(strings.TrimSpace(category))

	for _, kw := range typeKeywords {
		if strings.Contains(category, kw.keyword) {
			return kw.t
		}
	}

	return quote.ItemOther
}
