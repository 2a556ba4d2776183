// Package dataset reads the historical HR attrition table used by the
// insights views and the chat preview.
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/mitchellh/mapstructure"

	"github.com/spigell/retentioniq/internal/attrition"
)

// DefaultFile is the name of the IBM HR attrition export.
const DefaultFile = "WA_Fn-UseC_-HR-Employee-Attrition.csv"

const attritionColumn = "Attrition"

// ErrNotLoaded is returned by callers that need a dataset and have none.
var ErrNotLoaded = errors.New("employee dataset is not loaded")

// Employee is one historical row.
type Employee struct {
	Attrition        string `mapstructure:"Attrition"`
	attrition.Record `mapstructure:",squash"`
}

// Left reports whether the employee left the company.
func (e *Employee) Left() bool { return strings.EqualFold(e.Attrition, "Yes") }

// Dataset is immutable after Load.
type Dataset struct {
	header    []string
	raw       [][]string
	employees []Employee
}

func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Read parses CSV with a header row.
func Read(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	if !contains(header, attritionColumn) {
		return nil, fmt.Errorf("dataset has no %s column", attritionColumn)
	}

	d := &Dataset{header: header}

	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset line %d: %w", line, err)
		}

		values := make(map[string]any, len(header))
		for i, col := range header {
			values[col] = row[i]
		}

		var e Employee
		if err := decodeRow(values, &e); err != nil {
			return nil, fmt.Errorf("decode dataset line %d: %w", line, err)
		}

		d.raw = append(d.raw, row)
		d.employees = append(d.employees, e)
	}

	return d, nil
}

func decodeRow(values map[string]any, e *Employee) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           e,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(values)
}

func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.employees)
}

func (d *Dataset) Columns() []string {
	return append([]string(nil), d.header...)
}

// Employees returns a copy of the rows.
func (d *Dataset) Employees() []Employee {
	return append([]Employee(nil), d.employees...)
}

// Preview renders the first n rows as an aligned text table.
func (d *Dataset) Preview(n int) string {
	if d == nil || n <= 0 {
		return ""
	}
	if n > len(d.raw) {
		n = len(d.raw)
	}

	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(d.header, "\t"))
	for _, row := range d.raw[:n] {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()

	return strings.TrimRight(b.String(), "\n")
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// sortedKeys is used to give group output a stable order.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
