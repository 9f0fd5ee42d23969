package uploadtrigger

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
)

// CSVSheet is a video sheet exported as CSV. It reads rows and writes cells
// back to the same file.
type CSVSheet struct {
	path string

	mu   sync.Mutex
	rows [][]string
}

// OpenCSVSheet loads the sheet at path.
func OpenCSVSheet(path string) (*CSVSheet, error) {
	rows, err := readCSV(path)
	if err != nil {
		return nil, err
	}
	return &CSVSheet{path: path, rows: rows}, nil
}

// Rows returns every row after the header, numbered as in the sheet.
func (s *CSVSheet) Rows() []Row {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Row, 0, len(s.rows))
	for i := 1; i < len(s.rows); i++ {
		out = append(out, Row{Number: i + 1, Values: append([]string(nil), s.rows[i]...)})
	}
	return out
}

// Row returns the row with the given 1-based number.
func (s *CSVSheet) Row(n int) (Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if n < 1 || n > len(s.rows) {
		return Row{}, fmt.Errorf("row %d out of range (sheet has %d rows)", n, len(s.rows))
	}
	return Row{Number: n, Values: append([]string(nil), s.rows[n-1]...)}, nil
}

// WriteCell sets a cell and rewrites the file.
func (s *CSVSheet) WriteCell(ctx context.Context, row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if row < 1 || row > len(s.rows) {
		return fmt.Errorf("row %d out of range", row)
	}
	r := s.rows[row-1]
	for len(r) <= col {
		r = append(r, "")
	}
	r[col] = value
	s.rows[row-1] = r

	return writeCSV(s.path, s.rows)
}

// LoadChannelConfig reads a Config sheet exported as CSV: key in the first
// column, value in the second, in the order CHANNEL_ID, SUBNICHO, LINGUA,
// NOME_CANAL. A missing file yields nil without error.
func LoadChannelConfig(path string) (*ChannelConfig, error) {
	rows, err := readCSV(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	value := func(i int) string {
		if i >= len(rows) || len(rows[i]) < 2 {
			return ""
		}
		return strings.TrimSpace(rows[i][1])
	}
	return &ChannelConfig{
		ChannelID:   value(0),
		Subgroup:    value(1),
		Language:    value(2),
		ChannelName: value(3),
	}, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return rows, nil
}

func writeCSV(path string, rows [][]string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("creating %s: %w", tmp, err)
	}

	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		os.Remove(tmp)
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("closing %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}
