// Package csvstore reads and writes datasets as comma-separated text.
package csvstore

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/groweasy/analytics/internal/domain"
)

// missingMarkers are cells read as missing values
var missingMarkers = []string{"", "NA", "NaN", "nan", "null", "<nil>"}

// Store parses CSV input with type detection and renders datasets back to CSV
type Store struct{}

// NewStore creates a CSV store
func NewStore() *Store {
	return &Store{}
}

// Parse reads a CSV with a header row. Integer and float columns become
// numeric; every other column is categorical.
func (s *Store) Parse(r io.Reader, source string) (*domain.Dataset, error) {
	df := dataframe.ReadCSV(r,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(missingMarkers),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidDataset, df.Err)
	}

	cols := make([]domain.Column, 0, df.Ncol())
	for _, name := range df.Names() {
		cols = append(cols, toColumn(name, df.Col(name)))
	}
	return domain.NewDataset(source, cols)
}

// ParseFile reads a CSV file from disk
func (s *Store) ParseFile(path, source string) (*domain.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	defer f.Close()
	return s.Parse(f, source)
}

func toColumn(name string, col series.Series) domain.Column {
	switch col.Type() {
	case series.Int:
		return domain.Column{Name: name, Kind: domain.KindNumeric, Integer: true, Numbers: col.Float()}
	case series.Float:
		return domain.NumericColumn(name, col.Float())
	default:
		values := col.Records()
		for i, missing := range col.IsNaN() {
			if missing {
				values[i] = ""
			}
		}
		return domain.CategoricalColumn(name, values)
	}
}

// Write renders the dataset with a header row. Cells keep the formatting of
// Column.Cell so integers stay integral and floats use the shortest form.
func (s *Store) Write(w io.Writer, ds *domain.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < ds.Rows(); i++ {
		if err := cw.Write(ds.Row(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
