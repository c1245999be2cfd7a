package usecase

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/groweasy/analytics/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Equality restricts a column to one value; an "All" value leaves it unrestricted
type Equality struct {
	Column string
	Value  string
}

// FilterRows keeps the rows matching every active equality, in original order.
// Filters on columns the dataset lacks match nothing.
func FilterRows(ds *domain.Dataset, filters ...Equality) *domain.Dataset {
	type active struct {
		col   domain.Column
		value string
	}
	var checks []active
	for _, f := range filters {
		if domain.IsAll(f.Value) {
			continue
		}
		col, ok := ds.Column(f.Column)
		if !ok {
			return ds.Subset(nil)
		}
		checks = append(checks, active{col: col, value: strings.TrimSpace(f.Value)})
	}
	if len(checks) == 0 {
		return ds
	}

	idx := make([]int, 0, ds.Rows())
	for i := 0; i < ds.Rows(); i++ {
		pass := true
		for _, c := range checks {
			if c.col.Cell(i) != c.value {
				pass = false
				break
			}
		}
		if pass {
			idx = append(idx, i)
		}
	}
	return ds.Subset(idx)
}

// RequireColumns fails when any named column is absent
func RequireColumns(ds *domain.Dataset, names ...string) error {
	var missing []string
	for _, name := range names {
		if _, ok := ds.Column(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", domain.ErrMissingColumns, strings.Join(missing, ", "))
	}
	return nil
}

// numericValues returns the non-missing values of a numeric column
func numericValues(ds *domain.Dataset, name string) ([]float64, error) {
	col, ok := ds.Column(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumns, name)
	}
	if col.Kind != domain.KindNumeric {
		return nil, fmt.Errorf("%w: column %q must be numeric", domain.ErrInvalidDataset, name)
	}
	out := make([]float64, 0, len(col.Numbers))
	for _, v := range col.Numbers {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

// ComputeKPIs aggregates the headline figures. Empty input yields zeros and
// the NoTopSegment sentinel.
func ComputeKPIs(ds *domain.Dataset) (domain.KPIs, error) {
	kpis := domain.KPIs{TopSegment: domain.NoTopSegment}

	sales, err := numericValues(ds, domain.ColumnTotalSales)
	if err != nil {
		return kpis, err
	}
	luxury, err := numericValues(ds, domain.ColumnLuxurySales)
	if err != nil {
		return kpis, err
	}

	kpis.TotalSales = floats.Sum(sales)
	if len(luxury) > 0 {
		kpis.AvgLuxurySales = stat.Mean(luxury, nil)
	}
	kpis.UniqueCustomers = len(nonEmpty(ds.Distinct(domain.ColumnCustomerID)))
	if top, ok := MostCommon(ds, domain.ColumnClusterName); ok {
		kpis.TopSegment = top
	}
	return kpis, nil
}

// MostCommon returns the most frequent non-empty value of a column.
// Ties go to the value seen first.
func MostCommon(ds *domain.Dataset, name string) (string, bool) {
	col, ok := ds.Column(name)
	if !ok {
		return "", false
	}
	counts := make(map[string]int)
	var order []string
	for i := 0; i < col.Len(); i++ {
		v := col.Cell(i)
		if v == "" {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}
	best, bestCount := "", 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best, bestCount > 0
}

// SumBy totals a numeric column per category, categories in first-seen order
func SumBy(ds *domain.Dataset, category, measure string) ([]domain.CategoryValue, error) {
	cat, ok := ds.Column(category)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMissingColumns, category)
	}
	meas, ok := ds.Column(measure)
	if !ok || meas.Kind != domain.KindNumeric {
		return nil, fmt.Errorf("%w: column %q must be numeric", domain.ErrInvalidDataset, measure)
	}

	index := make(map[string]int)
	out := []domain.CategoryValue{}
	for i := 0; i < ds.Rows(); i++ {
		label := cat.Cell(i)
		j, seen := index[label]
		if !seen {
			j = len(out)
			index[label] = j
			out = append(out, domain.CategoryValue{Label: label})
		}
		if v := meas.Numbers[i]; !math.IsNaN(v) {
			out[j].Value += v
		}
	}
	return out, nil
}

// CountBy counts rows per category, categories in first-seen order
func CountBy(ds *domain.Dataset, category string) []domain.CategoryValue {
	col, ok := ds.Column(category)
	if !ok {
		return nil
	}
	index := make(map[string]int)
	out := []domain.CategoryValue{}
	for i := 0; i < col.Len(); i++ {
		label := col.Cell(i)
		j, seen := index[label]
		if !seen {
			j = len(out)
			index[label] = j
			out = append(out, domain.CategoryValue{Label: label})
		}
		out[j].Value++
	}
	return out
}

func nonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// InsightsService filters pre-clustered customer data and aggregates KPIs
type InsightsService struct {
	datasets        *DatasetService
	recommendations *RecommendationService
}

// NewInsightsService creates a new insights service with dependencies
func NewInsightsService(datasets *DatasetService, recommendations *RecommendationService) *InsightsService {
	return &InsightsService{
		datasets:        datasets,
		recommendations: recommendations,
	}
}

// Run resolves the dataset and applies the filter
func (s *InsightsService) Run(ctx context.Context, filter domain.InsightsFilter) (*domain.InsightsReport, error) {
	ds, err := s.datasets.Resolve(ctx, filter.SessionID, AppInsights)
	if err != nil {
		return nil, err
	}
	return s.Analyze(ds, filter)
}

// Analyze builds the report for an already loaded dataset
func (s *InsightsService) Analyze(ds *domain.Dataset, filter domain.InsightsFilter) (*domain.InsightsReport, error) {
	if err := RequireColumns(ds, domain.RequiredInsightsColumns...); err != nil {
		return nil, err
	}

	filtered := FilterRows(ds,
		Equality{Column: domain.ColumnCity, Value: filter.City},
		Equality{Column: domain.ColumnClusterName, Value: filter.Cluster},
	)

	kpis, err := ComputeKPIs(filtered)
	if err != nil {
		return nil, err
	}
	salesByCity, err := SumBy(filtered, domain.ColumnCity, domain.ColumnTotalSales)
	if err != nil {
		return nil, err
	}

	normalized := domain.InsightsFilter{
		City:    selection(filter.City),
		Cluster: selection(filter.Cluster),
		Segment: selection(filter.Segment),
	}

	return &domain.InsightsReport{
		Source: ds.Source,
		Filter: normalized,
		Options: domain.FilterOptions{
			Cities:   nonEmpty(ds.Distinct(domain.ColumnCity)),
			Clusters: nonEmpty(ds.Distinct(domain.ColumnClusterName)),
		},
		Rows:            filtered.Rows(),
		Preview:         filtered.Preview(),
		KPIs:            kpis,
		SalesByCity:     salesByCity,
		ClusterSizes:    CountBy(filtered, domain.ColumnClusterName),
		Recommendations: s.recommendations.Lookup(filter.Segment),
		Filtered:        filtered,
	}, nil
}

func selection(v string) string {
	if domain.IsAll(v) {
		return domain.FilterAll
	}
	return strings.TrimSpace(v)
}

// SalesByCitySpec charts total sales per city for the filtered selection
func (s *InsightsService) SalesByCitySpec(report *domain.InsightsReport) (domain.BarSpec, error) {
	if len(report.SalesByCity) == 0 {
		return domain.BarSpec{}, domain.ErrNoChartData
	}
	return domain.BarSpec{Title: "Total Sales by City", Bars: report.SalesByCity}, nil
}

// ClusterSizesSpec charts the number of customers per cluster name
func (s *InsightsService) ClusterSizesSpec(report *domain.InsightsReport) (domain.BarSpec, error) {
	if len(report.ClusterSizes) == 0 {
		return domain.BarSpec{}, domain.ErrNoChartData
	}
	return domain.BarSpec{Title: "Customers per Cluster", Bars: report.ClusterSizes}, nil
}
