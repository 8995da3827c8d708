// Package table loads and encodes row-oriented CSV tables. The engine owns
// three result columns (exit_code, message, processed_at) which are appended
// at load time when the input does not already carry them.
package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

const (
	ColExitCode    = "exit_code"
	ColMessage     = "message"
	ColProcessedAt = "processed_at"
)

// ResultColumns lists the engine-owned columns in output order.
var ResultColumns = []string{ColExitCode, ColMessage, ColProcessedAt}

// Row maps column name to cell value. Missing cells read as "".
type Row map[string]string

func (r Row) Get(col string) string {
	return r[col]
}

func (r Row) Set(col, value string) {
	r[col] = value
}

// ExitCode parses the row's exit_code cell. ok is false when the cell is
// empty or not an integer.
func (r Row) ExitCode() (int, bool) {
	cell := strings.TrimSpace(r.Get(ColExitCode))
	if cell == "" {
		return 0, false
	}
	code, err := strconv.Atoi(cell)
	if err != nil {
		return 0, false
	}
	return code, true
}

// Table is an ordered sequence of rows sharing one header set. Row identity
// is positional and stable for the lifetime of a processing run.
type Table struct {
	Headers []string
	Rows    []Row
}

// Load reads a CSV file and verifies it contains every required column.
// Result columns are appended when absent.
func Load(path string, required []string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	tbl, err := Read(f, required)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return tbl, nil
}

// Read parses CSV from r and verifies required columns.
func Read(r io.Reader, required []string) (*Table, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty input: no header row")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	have := make(map[string]bool, len(headers))
	for _, h := range headers {
		have[h] = true
	}

	var missing []string
	for _, col := range required {
		if !have[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	tbl := &Table{Headers: headers}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(tbl.Rows)+2, err)
		}
		row := make(Row, len(headers))
		for i, h := range headers {
			if i < len(record) {
				row[h] = record[i]
			}
		}
		tbl.Rows = append(tbl.Rows, row)
	}

	tbl.ensureResultColumns()
	return tbl, nil
}

func (t *Table) ensureResultColumns() {
	have := make(map[string]bool, len(t.Headers))
	for _, h := range t.Headers {
		have[h] = true
	}
	for _, col := range ResultColumns {
		if !have[col] {
			t.Headers = append(t.Headers, col)
		}
	}
}

// Encode renders the table back to CSV bytes, cells in header order.
func (t *Table) Encode() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.Headers); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	record := make([]string, len(t.Headers))
	for i, row := range t.Rows {
		for j, h := range t.Headers {
			record[j] = row.Get(h)
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
