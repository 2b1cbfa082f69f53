// Package sheetx reads uploaded spreadsheets and writes xlsx exports.
package sheetx

import (
	"bytes"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Abraxas-365/hireline/pkg/errx"
	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReadRows returns the cells of the first worksheet. Files named .xls go through
// the legacy reader, everything else is opened as xlsx.
func ReadRows(data []byte, filename string, maxRows int) ([][]string, error) {
	if maxRows <= 0 {
		maxRows = 100000
	}

	var rows [][]string
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
		if err != nil {
			return nil, ErrUnreadable(err)
		}
		sheet := workbook.GetSheet(0)
		if sheet == nil {
			return nil, ErrEmpty()
		}
		if rows, err = legacyRows(xlsSheet{sheet}, maxRows); err != nil {
			return nil, err
		}
	default:
		file, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, ErrUnreadable(err)
		}
		defer func() { _ = file.Close() }()

		sheetName := file.GetSheetName(0)
		if sheetName == "" {
			return nil, ErrEmpty()
		}
		rows, err = file.GetRows(sheetName)
		if err != nil {
			return nil, ErrUnreadable(err)
		}
	}

	if len(rows) == 0 {
		return nil, ErrEmpty()
	}
	if len(rows)-1 > maxRows {
		return nil, ErrTooManyRows(maxRows)
	}
	return rows, nil
}

// rowSource is one worksheet of a legacy workbook
type rowSource interface {
	// lastRow is the index of the last row, header included
	lastRow() int
	// row is nil for indexes without a row record
	row(i int) []string
}

// legacyRows checks the size of the sheet before reading any cell
func legacyRows(src rowSource, maxRows int) ([][]string, error) {
	last := src.lastRow()
	if last > maxRows {
		return nil, ErrTooManyRows(maxRows)
	}
	rows := make([][]string, 0, last+1)
	for i := 0; i <= last; i++ {
		rows = append(rows, src.row(i))
	}
	for len(rows) > 0 && IsBlank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return rows, nil
}

type xlsSheet struct {
	sheet *xls.WorkSheet
}

func (s xlsSheet) lastRow() int { return int(s.sheet.MaxRow) }

// row pads cells before the row's first column so indexes line up with the header.
// xls.WorkSheet.Row panics on a missing row record.
func (s xlsSheet) row(i int) (cells []string) {
	defer func() {
		if recover() != nil {
			cells = nil
		}
	}()
	r := s.sheet.Row(i)
	if r == nil {
		return nil
	}
	cells = make([]string, r.LastCol())
	for c := r.FirstCol(); c < r.LastCol(); c++ {
		cells[c] = r.Col(c)
	}
	return cells
}

// NormalizeHeader lowercases a header and drops spaces, underscores and dots
func NormalizeHeader(header string) string {
	r := strings.NewReplacer(" ", "", "_", "", ".", "", "-", "")
	return r.Replace(strings.ToLower(strings.TrimSpace(header)))
}

// HeaderIndex maps each field to the column of the first header matching one of its aliases.
// Fields without a matching header are absent.
func HeaderIndex(header []string, aliases map[string][]string) map[string]int {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		key := NormalizeHeader(h)
		if _, dup := byName[key]; !dup && key != "" {
			byName[key] = i
		}
	}

	out := make(map[string]int, len(aliases))
	for field, names := range aliases {
		for _, name := range names {
			if idx, ok := byName[NormalizeHeader(name)]; ok {
				out[field] = idx
				break
			}
		}
	}
	return out
}

// Cell returns the trimmed value at idx, empty when the row is short
func Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// IsBlank reports whether every cell of row is empty
func IsBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"2006/01/02",
	"02/01/06",
}

// ParseDate accepts ISO dates, day-first dates and Excel serial numbers
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	if serial, err := strconv.ParseFloat(value, 64); err == nil {
		if serial >= 20000 && serial <= 80000 {
			if parsed, err := excelize.ExcelDateToTime(serial, false); err == nil {
				y, m, d := parsed.Date()
				return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
			}
		}
	}

	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// ============================================================================
// Writer
// ============================================================================

// Sheet builds a single worksheet workbook row by row
type Sheet struct {
	file *excelize.File
	name string
	row  int
	bold int
}

func NewSheet(name string) (*Sheet, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}
	return &Sheet{file: f, name: name, bold: bold}, nil
}

// Header appends a bold row
func (s *Sheet) Header(values ...any) error {
	if err := s.Append(values...); err != nil {
		return err
	}
	return s.file.SetRowStyle(s.name, s.row, s.row, s.bold)
}

func (s *Sheet) Append(values ...any) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	return s.file.SetSheetRow(s.name, cell, &values)
}

// Bytes closes the workbook and returns its xlsx encoding
func (s *Sheet) Bytes() ([]byte, error) {
	defer func() { _ = s.file.Close() }()
	buf, err := s.file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ============================================================================
// Error Registry
// ============================================================================

var ErrRegistry = errx.NewRegistry("SHEET")

var (
	CodeUnreadable  = ErrRegistry.Register("UNREADABLE", errx.TypeValidation, http.StatusBadRequest, "Spreadsheet could not be read")
	CodeEmpty       = ErrRegistry.Register("EMPTY", errx.TypeValidation, http.StatusBadRequest, "Spreadsheet has no rows")
	CodeTooManyRows = ErrRegistry.Register("TOO_MANY_ROWS", errx.TypeValidation, http.StatusBadRequest, "Spreadsheet has too many rows")
)

func ErrUnreadable(err error) *errx.Error {
	return ErrRegistry.New(CodeUnreadable).WithDetail("error", err.Error())
}

func ErrEmpty() *errx.Error {
	return ErrRegistry.New(CodeEmpty)
}

func ErrTooManyRows(limit int) *errx.Error {
	return ErrRegistry.New(CodeTooManyRows).WithDetail("max_rows", limit)
}
