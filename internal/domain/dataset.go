package domain

import (
	"fmt"
	"math"
	"strconv"
)

// Source labels shown next to a dataset preview
const (
	SourceDefault  = "Default dataset"
	SourceUploaded = "Uploaded file"
)

// PreviewRows is the number of rows returned in a dataset preview
const PreviewRows = 5

// ColumnKind classifies a dataset column
type ColumnKind int

const (
	KindCategorical ColumnKind = iota
	KindNumeric
)

func (k ColumnKind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "categorical"
}

// Column is a named, typed column of a Dataset.
// Numeric columns keep their values in Numbers (NaN marks a missing cell),
// categorical columns keep them in Values.
type Column struct {
	Name    string
	Kind    ColumnKind
	Integer bool
	Numbers []float64
	Values  []string
}

// NumericColumn builds a float column
func NumericColumn(name string, values []float64) Column {
	return Column{Name: name, Kind: KindNumeric, Numbers: values}
}

// IntegerColumn builds a numeric column that renders without decimals
func IntegerColumn(name string, values []int) Column {
	numbers := make([]float64, len(values))
	for i, v := range values {
		numbers[i] = float64(v)
	}
	return Column{Name: name, Kind: KindNumeric, Integer: true, Numbers: numbers}
}

// CategoricalColumn builds a string column
func CategoricalColumn(name string, values []string) Column {
	return Column{Name: name, Kind: KindCategorical, Values: values}
}

// Len returns the number of cells in the column
func (c Column) Len() int {
	if c.Kind == KindNumeric {
		return len(c.Numbers)
	}
	return len(c.Values)
}

// Cell renders the i-th cell as text. Missing numeric cells render empty.
func (c Column) Cell(i int) string {
	if c.Kind != KindNumeric {
		return c.Values[i]
	}
	v := c.Numbers[i]
	if math.IsNaN(v) {
		return ""
	}
	if c.Integer {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// HasMissing reports whether a numeric column contains NaN cells
func (c Column) HasMissing() bool {
	for _, v := range c.Numbers {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

func (c Column) subset(idx []int) Column {
	out := Column{Name: c.Name, Kind: c.Kind, Integer: c.Integer}
	if c.Kind == KindNumeric {
		out.Numbers = make([]float64, len(idx))
		for i, j := range idx {
			out.Numbers[i] = c.Numbers[j]
		}
		return out
	}
	out.Values = make([]string, len(idx))
	for i, j := range idx {
		out.Values[i] = c.Values[j]
	}
	return out
}

// Dataset is an in-memory table of equally sized columns.
// Operations return new datasets and never modify the receiver.
type Dataset struct {
	Source  string
	Columns []Column
	rows    int
}

// NewDataset validates that all columns have the same length
func NewDataset(source string, columns []Column) (*Dataset, error) {
	rows := 0
	seen := make(map[string]bool, len(columns))
	for i, col := range columns {
		if seen[col.Name] {
			return nil, fmt.Errorf("%w: duplicate column %q", ErrInvalidDataset, col.Name)
		}
		seen[col.Name] = true
		if i == 0 {
			rows = col.Len()
			continue
		}
		if col.Len() != rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrInvalidDataset, col.Name, col.Len(), rows)
		}
	}
	return &Dataset{Source: source, Columns: columns, rows: rows}, nil
}

// Rows returns the number of rows
func (d *Dataset) Rows() int { return d.rows }

// Header returns the column names in order
func (d *Dataset) Header() []string {
	names := make([]string, len(d.Columns))
	for i, col := range d.Columns {
		names[i] = col.Name
	}
	return names
}

// Column looks up a column by exact name
func (d *Dataset) Column(name string) (Column, bool) {
	for _, col := range d.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// NumericColumns returns numeric columns in discovery order
func (d *Dataset) NumericColumns() []Column {
	var out []Column
	for _, col := range d.Columns {
		if col.Kind == KindNumeric {
			out = append(out, col)
		}
	}
	return out
}

// Row renders the i-th row as text cells
func (d *Dataset) Row(i int) []string {
	row := make([]string, len(d.Columns))
	for j, col := range d.Columns {
		row[j] = col.Cell(i)
	}
	return row
}

// Head renders up to n leading rows
func (d *Dataset) Head(n int) [][]string {
	if n > d.rows {
		n = d.rows
	}
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, d.Row(i))
	}
	return rows
}

// Preview returns the header and the leading rows of the dataset
func (d *Dataset) Preview() Preview {
	return Preview{Columns: d.Header(), Rows: d.Head(PreviewRows)}
}

// Subset returns a dataset holding only the given row indexes, in order
func (d *Dataset) Subset(idx []int) *Dataset {
	cols := make([]Column, len(d.Columns))
	for i, col := range d.Columns {
		cols[i] = col.subset(idx)
	}
	return &Dataset{Source: d.Source, Columns: cols, rows: len(idx)}
}

// WithLabels returns a copy with an integer label column. An existing column
// of the same name is replaced in place, otherwise the column is appended.
func (d *Dataset) WithLabels(name string, labels []int) (*Dataset, error) {
	if len(labels) != d.rows {
		return nil, fmt.Errorf("%w: %d labels for %d rows", ErrInvalidDataset, len(labels), d.rows)
	}
	labelCol := IntegerColumn(name, labels)
	cols := make([]Column, 0, len(d.Columns)+1)
	replaced := false
	for _, col := range d.Columns {
		if col.Name == name {
			cols = append(cols, labelCol)
			replaced = true
			continue
		}
		cols = append(cols, col)
	}
	if !replaced {
		cols = append(cols, labelCol)
	}
	return &Dataset{Source: d.Source, Columns: cols, rows: d.rows}, nil
}

// Distinct returns the distinct rendered values of a column in first-seen order
func (d *Dataset) Distinct(name string) []string {
	col, ok := d.Column(name)
	if !ok {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for i := 0; i < col.Len(); i++ {
		v := col.Cell(i)
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Preview is the tabular head of a dataset as shown to the user
type Preview struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}
