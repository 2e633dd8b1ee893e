// Package importer turns uploaded timetable and leave sheets into domain values.
package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/bps-routine/internal/models"
)

const maxXLSRows = 100000

// ErrUnsupportedFormat rejects files whose extension is not csv, xlsx or xls.
var ErrUnsupportedFormat = errors.New("unsupported file format; expected .csv, .xlsx or .xls")

// Sheet is one worksheet's raw cell grid. CSV input yields a single unnamed sheet.
type Sheet struct {
	Name string
	Rows [][]string
}

// ReadSheets reads every non-empty worksheet from r, picking the decoder from filename.
func ReadSheets(r io.Reader, filename string) ([]Sheet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	var sheets []Sheet
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		sheets, err = readCSV(data)
	case ".xlsx", ".xlsm":
		sheets, err = readXLSX(data)
	case ".xls":
		sheets, err = readXLS(data)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	out := sheets[:0]
	for _, sheet := range sheets {
		if len(trimTrailingBlank(sheet.Rows)) > 0 {
			out = append(out, sheet)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("worksheet is empty")
	}
	return out, nil
}

func readCSV(data []byte) ([]Sheet, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return []Sheet{{Rows: rows}}, nil
}

func readXLSX(data []byte) ([]Sheet, error) {
	file, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer func() { _ = file.Close() }()

	names := file.GetSheetList()
	if len(names) == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	sheets := make([]Sheet, 0, len(names))
	for _, name := range names {
		rows, err := file.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Rows: rows})
	}
	return sheets, nil
}

func readXLS(data []byte) ([]Sheet, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("open xls: %w", err)
	}
	if workbook.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	sheets := make([]Sheet, 0, workbook.NumSheets())
	for i := 0; i < workbook.NumSheets(); i++ {
		ws := workbook.GetSheet(i)
		if ws == nil {
			continue
		}
		rows := make([][]string, 0, int(ws.MaxRow)+1)
		for r := 0; r <= int(ws.MaxRow) && r < maxXLSRows; r++ {
			row := ws.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]string, 0, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells = append(cells, row.Col(c))
			}
			rows = append(rows, cells)
		}
		sheets = append(sheets, Sheet{Name: ws.Name, Rows: rows})
	}
	return sheets, nil
}

func trimTrailingBlank(rows [][]string) [][]string {
	end := len(rows)
	for end > 0 && blankRow(rows[end-1]) {
		end--
	}
	return rows[:end]
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// header maps normalised column names to their index.
type header map[string]int

func newHeader(row []string) header {
	h := make(header, len(row))
	for i, cell := range row {
		key := normalizeHeader(cell)
		if key == "" {
			continue
		}
		if _, dup := h[key]; !dup {
			h[key] = i
		}
	}
	return h
}

// find returns the index of the first alias present.
func (h header) find(aliases ...string) int {
	for _, alias := range aliases {
		if idx, ok := h[alias]; ok {
			return idx
		}
	}
	return -1
}

func normalizeHeader(raw string) string {
	value := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\ufeff")))
	value = strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(value)
	return strings.Join(strings.Fields(value), " ")
}

func cellValue(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// parseCellClock accepts clock text or an Excel day fraction such as 0.46875.
func parseCellClock(raw string) (models.ClockTime, error) {
	value := strings.TrimSpace(raw)
	if f, err := strconv.ParseFloat(value, 64); err == nil && !strings.Contains(value, ":") {
		if f < 0 || f >= 1 {
			return 0, fmt.Errorf("time fraction %q out of range", raw)
		}
		return models.ClockTime(int(math.Round(f * 24 * 60))), nil
	}
	return models.ParseClock(value)
}

// parseCellDate accepts DD-MM-YYYY text, ISO dates, or an Excel serial date.
func parseCellDate(raw string) (time.Time, error) {
	value := strings.TrimSpace(raw)
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial >= 20000 && serial <= 80000 {
		parsed, err := excelize.ExcelDateToTime(serial, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("excel date %q: %w", raw, err)
		}
		return models.CalendarDay(parsed), nil
	}
	return models.ParseLeaveDate(value)
}
