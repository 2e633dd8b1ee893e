package export

import "fmt"

// Column describes one field of a tabular export.
type Column struct {
	Key   string
	Label string
	// Width is the relative PDF column weight; zero means 1.
	Width float64
}

// Dataset defines tabular export content.
type Dataset struct {
	Title    string
	Subtitle string
	Columns  []Column
	Rows     []map[string]string
	// Highlight marks rows rendered with emphasis in the PDF.
	Highlight func(row map[string]string) bool
}

// Headers returns the column labels in order.
func (d Dataset) Headers() []string {
	out := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		out[i] = col.Label
		if out[i] == "" {
			out[i] = col.Key
		}
	}
	return out
}

// Record returns the row values in column order.
func (d Dataset) Record(row map[string]string) []string {
	out := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		out[i] = row[col.Key]
	}
	return out
}

func (d Dataset) validate(format string) error {
	if len(d.Columns) == 0 {
		return fmt.Errorf("%s requires at least one column", format)
	}
	return nil
}
