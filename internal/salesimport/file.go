package salesimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"github.com/flashledger/flashledger/internal/salesimport/parser"
	"github.com/flashledger/flashledger/internal/salesimport/waterfall"
)

// ErrParse indicates the file is unreadable or no rows carry the minimum
// required columns. The discovered headers ride along for operator diagnosis.
var ErrParse = errors.New("salesimport: cannot parse file")

var headerJunk = regexp.MustCompile(`[^a-z0-9]+`)

// NormalizeHeader folds a raw header cell into canonical snake_case:
// NFKC-normalized (POS exports love full-width characters), lowercased,
// non-alphanumerics collapsed to underscores.
func NormalizeHeader(raw string) string {
	folded := strings.ToLower(strings.TrimSpace(norm.NFKC.String(raw)))
	return strings.Trim(headerJunk.ReplaceAllString(folded, "_"), "_")
}

// ReadTable extracts the raw cell grid from a CSV or XLSX upload.
func ReadTable(r io.Reader, fileName string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv", "":
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		records, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		return records, nil
	case ".xlsx":
		book, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		defer book.Close()
		rows, err := book.GetRows(book.GetSheetName(0))
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrParse, err)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("%w: unsupported file type %q", ErrParse, filepath.Ext(fileName))
	}
}

// tableFile is a parsed upload with normalized headers.
type tableFile struct {
	Headers []string
	Rows    []map[string]string
}

func newTableFile(records [][]string) (tableFile, error) {
	if len(records) == 0 {
		return tableFile{}, fmt.Errorf("%w: empty file", ErrParse)
	}
	headers := make([]string, len(records[0]))
	for i, raw := range records[0] {
		headers[i] = NormalizeHeader(raw)
	}
	file := tableFile{Headers: headers}
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		empty := true
		for i, cell := range record {
			if i >= len(headers) || headers[i] == "" {
				continue
			}
			cell = strings.TrimSpace(cell)
			if cell != "" {
				empty = false
			}
			row[headers[i]] = cell
		}
		if !empty {
			file.Rows = append(file.Rows, row)
		}
	}
	return file, nil
}

func (f tableFile) has(columns ...string) bool {
	index := make(map[string]bool, len(f.Headers))
	for _, h := range f.Headers {
		index[h] = true
	}
	for _, c := range columns {
		if !index[c] {
			return false
		}
	}
	return true
}

// MapRows converts the raw table into canonical waterfall rows for the
// channel. importDate backfills rows whose timestamp cell cannot be parsed.
func MapRows(records [][]string, channel Channel, importDate time.Time) ([]waterfall.Row, []string, error) {
	file, err := newTableFile(records)
	if err != nil {
		return nil, nil, err
	}
	switch channel {
	case ChannelTalabat:
		if !file.has("order_items", "subtotal") {
			return nil, file.Headers, fmt.Errorf("%w: talabat export requires order_items and subtotal, got %v", ErrParse, file.Headers)
		}
		return mapTalabatRows(file, importDate), file.Headers, nil
	default:
		if !file.has("receipt", "items_breakdown") {
			return nil, file.Headers, fmt.Errorf("%w: export requires receipt and items_breakdown, got %v", ErrParse, file.Headers)
		}
		return mapTabSenseRows(file, importDate), file.Headers, nil
	}
}

func mapTabSenseRows(file tableFile, importDate time.Time) []waterfall.Row {
	var rows []waterfall.Row
	for _, raw := range file.Rows {
		reference := raw["receipt"]
		if reference == "" {
			continue
		}
		row := waterfall.Row{
			Reference: reference,
			SoldAt:    parseTime(raw["created_at"], importDate),
			Tax:       parseAmount(raw["taxes"]),
			Tips:      parseAmount(firstNonEmpty(raw["tips"], raw["tip"])),
			Payments: map[string]decimal.Decimal{
				waterfall.MethodCash:    parseAmount(raw["cash"]),
				waterfall.MethodVisa:    parseAmount(raw["visa"]),
				waterfall.MethodTalabat: parseAmount(raw["talabat"]),
				waterfall.MethodCareem:  parseAmount(raw["careem"]),
			},
		}
		if total, ok := raw["total"]; ok && strings.TrimSpace(total) != "" {
			row.Total = parseAmount(total)
			row.HasTotal = true
		} else {
			// reconstructed downstream as gross + tax
			row.Gross = parseAmount(raw["gross_sales"])
		}
		row.Items = parseItemsCell(raw["items_breakdown"])
		rows = append(rows, row)
	}
	return rows
}

func mapTalabatRows(file tableFile, importDate time.Time) []waterfall.Row {
	var rows []waterfall.Row
	for i, raw := range file.Rows {
		subtotal := parseAmount(raw["subtotal"])
		soldAt := parseTime(raw["order_received_at"], importDate)
		reference := raw["order_id"]
		if reference == "" {
			// aggregator exports omit a stable id; synthesize one per row
			reference = fmt.Sprintf("TLB-%s-%d", soldAt.Format("20060102"), i+1)
		}
		rows = append(rows, waterfall.Row{
			Reference: reference,
			SoldAt:    soldAt,
			Total:     subtotal,
			HasTotal:  true,
			Items:     parseItemsCell(raw["order_items"]),
			Payments: map[string]decimal.Decimal{
				waterfall.MethodTalabat: subtotal,
			},
		})
	}
	return rows
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02/01/2006 15:04",
	"02/01/2006",
}

func parseTime(cell string, fallback time.Time) time.Time {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return fallback
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, cell); err == nil {
			return ts
		}
	}
	return fallback
}

var amountJunk = regexp.MustCompile(`[^0-9.\-]`)

// parseAmount is lenient: thousands separators and currency symbols are
// stripped, anything unparseable counts as zero.
func parseAmount(cell string) decimal.Decimal {
	cleaned := amountJunk.ReplaceAllString(strings.TrimSpace(cell), "")
	if cleaned == "" || cleaned == "-" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return amount
}

// parseItemsCell runs the grammar sniffer over an items cell and drops
// zero-length names (note-only lines resolve to empty items).
func parseItemsCell(cell string) []parser.Item {
	var out []parser.Item
	for _, item := range parser.Parse(cell) {
		if item.Name == "" {
			continue
		}
		var mods []parser.Modifier
		for _, mod := range item.Modifiers {
			if mod.Name != "" {
				mods = append(mods, mod)
			}
		}
		item.Modifiers = mods
		out = append(out, item)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
