// Package spreadsheet converts payment rows to and from .xlsx workbooks.
package spreadsheet

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"paytrack/internal/services"
)

// SheetName is the sheet written by Write.
const SheetName = "Payments"

// ContentType is the MIME type of an .xlsx workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrNoHeader is returned when a workbook has no Name column.
var ErrNoHeader = errors.New("spreadsheet: header row with a Name column not found")

type column struct {
	header string
	get    func(r services.ImportRow) interface{}
	set    func(r *services.ImportRow, v string) error
}

var columns = []column{
	{"ID", func(r services.ImportRow) interface{} { return r.ID }, func(r *services.ImportRow, v string) error { r.ID = v; return nil }},
	{"Name", func(r services.ImportRow) interface{} { return r.Name }, func(r *services.ImportRow, v string) error { r.Name = v; return nil }},
	{"Type", func(r services.ImportRow) interface{} { return r.Type }, func(r *services.ImportRow, v string) error { r.Type = v; return nil }},
	{"Amount", func(r services.ImportRow) interface{} { return r.Amount }, func(r *services.ImportRow, v string) error {
		f, err := parseNumber(v)
		if err != nil || f == nil {
			return err
		}
		r.Amount = *f
		return nil
	}},
	{"Minimum Payment", func(r services.ImportRow) interface{} { return optional(r.MinimumPaymentAmount) }, func(r *services.ImportRow, v string) (err error) {
		r.MinimumPaymentAmount, err = parseNumber(v)
		return err
	}},
	{"Date", func(r services.ImportRow) interface{} { return string(r.Date) }, func(r *services.ImportRow, v string) error { r.Date = services.FlexString(v); return nil }},
	{"End Date", func(r services.ImportRow) interface{} { return string(r.EndDate) }, func(r *services.ImportRow, v string) error { r.EndDate = services.FlexString(v); return nil }},
	{"Period", func(r services.ImportRow) interface{} { return r.Period }, func(r *services.ImportRow, v string) error { r.Period = v; return nil }},
	{"Tag", func(r services.ImportRow) interface{} { return r.CustomTag }, func(r *services.ImportRow, v string) error { r.CustomTag = v; return nil }},
	{"Commitment End", func(r services.ImportRow) interface{} { return string(r.CommitmentEndDate) }, func(r *services.ImportRow, v string) error {
		r.CommitmentEndDate = services.FlexString(v)
		return nil
	}},
	{"Auto Payment", func(r services.ImportRow) interface{} { return string(r.AutoPayment) }, func(r *services.ImportRow, v string) error { r.AutoPayment = services.FlexString(v); return nil }},
	{"Bank", func(r services.ImportRow) interface{} { return r.AutoPaymentBank }, func(r *services.ImportRow, v string) error { r.AutoPaymentBank = v; return nil }},
	{"Notes", func(r services.ImportRow) interface{} { return r.Notes }, func(r *services.ImportRow, v string) error { r.Notes = v; return nil }},
	{"Status", func(r services.ImportRow) interface{} { return r.Status }, func(r *services.ImportRow, v string) error { r.Status = v; return nil }},
	{"Paid Amount", func(r services.ImportRow) interface{} { return optional(r.PaidAmount) }, func(r *services.ImportRow, v string) (err error) {
		r.PaidAmount, err = parseNumber(v)
		return err
	}},
}

// aliases maps alternative header spellings to a column header.
var aliases = map[string]string{
	"minimumpaymentamount": "Minimum Payment",
	"enddate":              "End Date",
	"customtag":            "Tag",
	"commitmentenddate":    "Commitment End",
	"autopayment":          "Auto Payment",
	"autopaymentbank":      "Bank",
	"paidamount":           "Paid Amount",
	"ad":                   "Name",
	"tür":                  "Type",
	"tutar":                "Amount",
	"tarih":                "Date",
	"bitiştarihi":          "End Date",
	"periyot":              "Period",
	"etiket":               "Tag",
	"banka":                "Bank",
	"notlar":               "Notes",
	"durum":                "Status",
}

func normalize(header string) string {
	h := strings.ToLower(strings.TrimSpace(header))
	return strings.NewReplacer(" ", "", "_", "", "-", "").Replace(h)
}

func lookup(header string) (column, bool) {
	key := normalize(header)
	if alias, ok := aliases[key]; ok {
		key = normalize(alias)
	}
	for _, c := range columns {
		if normalize(c.header) == key {
			return c, true
		}
	}
	return column{}, false
}

// Read parses the first sheet of an .xlsx workbook into import rows. The
// first non-empty row is the header; columns are matched by name in any
// order and unknown columns are ignored.
func Read(r io.Reader) ([]services.ImportRow, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	// Raw values keep date cells as serial numbers.
	cells, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("spreadsheet: read rows: %w", err)
	}

	var header []*column
	var rows []services.ImportRow
	for i, line := range cells {
		if blank(line) {
			continue
		}
		if header == nil {
			header = make([]*column, len(line))
			named := false
			for j, h := range line {
				if c, ok := lookup(h); ok {
					c := c
					header[j] = &c
					named = named || c.header == "Name"
				}
			}
			if !named {
				return nil, ErrNoHeader
			}
			continue
		}

		var row services.ImportRow
		for j, v := range line {
			if j >= len(header) || header[j] == nil {
				continue
			}
			if err := header[j].set(&row, strings.TrimSpace(v)); err != nil {
				return nil, fmt.Errorf("spreadsheet: row %d, %s: %w", i+1, header[j].header, err)
			}
		}
		rows = append(rows, row)
	}
	if header == nil {
		return nil, ErrNoHeader
	}
	return rows, nil
}

// Write renders rows as a single-sheet .xlsx workbook.
func Write(w io.Writer, rows []services.ImportRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	for i, c := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, c.header); err != nil {
			return err
		}
	}
	for i, r := range rows {
		values := make([]interface{}, len(columns))
		for j, c := range columns {
			values[j] = c.get(r)
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func parseNumber(v string) (*float64, error) {
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid number %q", v)
	}
	return &f, nil
}

func optional(v *float64) interface{} {
	if v == nil {
		return ""
	}
	return *v
}

func blank(line []string) bool {
	for _, v := range line {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
