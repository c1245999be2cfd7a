package usecase

import (
	"fmt"
	"math"

	"github.com/groweasy/analytics/internal/domain"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// zeroStdTolerance is the relative spread under which a column counts as constant
const zeroStdTolerance = 1e-12

// StandardScaler rescales features to zero mean and unit variance using the
// population mean and standard deviation of each column.
type StandardScaler struct {
	Mean []float64
	Std  []float64
}

// NewStandardScaler creates an unfitted scaler
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{}
}

// FitTransform fits the scaler on the columns and returns the scaled feature
// matrix, one row per dataset row. Constant columns scale to zero.
func (s *StandardScaler) FitTransform(cols []domain.Column) (*mat.Dense, error) {
	if len(cols) == 0 {
		return nil, domain.ErrNotEnoughNumericData
	}
	rows := cols[0].Len()
	if rows == 0 {
		return nil, fmt.Errorf("%w: dataset has no rows", domain.ErrTooFewRows)
	}

	s.Mean = make([]float64, len(cols))
	s.Std = make([]float64, len(cols))
	scaled := mat.NewDense(rows, len(cols), nil)

	for j, col := range cols {
		if col.Kind != domain.KindNumeric {
			return nil, fmt.Errorf("%w: column %q is not numeric", domain.ErrInvalidDataset, col.Name)
		}
		if col.HasMissing() {
			return nil, fmt.Errorf("%w: column %q", domain.ErrMissingValues, col.Name)
		}

		mean, std := stat.PopMeanStdDev(col.Numbers, nil)
		if std <= zeroStdTolerance*math.Max(1, math.Abs(mean)) {
			std = 0
		}
		s.Mean[j], s.Std[j] = mean, std
		if std == 0 {
			continue
		}
		for i, v := range col.Numbers {
			scaled.Set(i, j, (v-mean)/std)
		}
	}

	return scaled, nil
}
