package usecase

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/groweasy/analytics/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	data      map[string][]byte
	ttls      map[string]time.Duration
	getError  error
	setError  error
	getCalled bool
	setCalled bool
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string][]byte),
		ttls: make(map[string]time.Duration),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *MockCacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

// MockDatasetParser is a mock implementation of domain.DatasetParser
type MockDatasetParser struct {
	dataset    *domain.Dataset
	parseError error
	fileError  error

	parsedBody   string
	parsedSource string
	filePath     string
}

func (m *MockDatasetParser) Parse(r io.Reader, source string) (*domain.Dataset, error) {
	body, _ := io.ReadAll(r)
	m.parsedBody = string(body)
	m.parsedSource = source
	if m.parseError != nil {
		return nil, m.parseError
	}
	ds := *m.dataset
	ds.Source = source
	return &ds, nil
}

func (m *MockDatasetParser) ParseFile(path, source string) (*domain.Dataset, error) {
	m.filePath = path
	if m.fileError != nil {
		return nil, m.fileError
	}
	ds := *m.dataset
	ds.Source = source
	return &ds, nil
}

// MockCatalog is a mock implementation of domain.RecommendationCatalog
type MockCatalog struct {
	entries []domain.Recommendation
}

func (m *MockCatalog) All() []domain.Recommendation {
	return m.entries
}

func (m *MockCatalog) Tips(segment string) ([]string, bool) {
	for _, e := range m.entries {
		if e.Segment == segment {
			return e.Tips, true
		}
	}
	return nil, false
}

// scriptedRand replays fixed values and repeats the last one when exhausted
type scriptedRand struct {
	ints   []int
	floats []float64
}

func (r *scriptedRand) Intn(n int) int {
	v := 0
	if len(r.ints) > 0 {
		v = r.ints[0]
		if len(r.ints) > 1 {
			r.ints = r.ints[1:]
		}
	}
	return v % n
}

func (r *scriptedRand) Float64() float64 {
	v := 0.0
	if len(r.floats) > 0 {
		v = r.floats[0]
		if len(r.floats) > 1 {
			r.floats = r.floats[1:]
		}
	}
	return v
}

func mustDataset(t *testing.T, cols ...domain.Column) *domain.Dataset {
	t.Helper()
	ds, err := domain.NewDataset(domain.SourceDefault, cols)
	if err != nil {
		t.Fatalf("NewDataset() error = %v", err)
	}
	return ds
}

// priceQuantity builds 100 rows with price in 10..1000 and quantity in 1..50
func priceQuantity(t *testing.T) *domain.Dataset {
	t.Helper()
	price := make([]float64, 100)
	quantity := make([]int, 100)
	for i := range price {
		price[i] = 10 + float64(i)*9.9
		quantity[i] = 1 + (i*7)%50
	}
	return mustDataset(t,
		domain.NumericColumn("price", price),
		domain.IntegerColumn("quantity", quantity),
	)
}

// customers mirrors a pre-clustered insights export
func customers(t *testing.T) *domain.Dataset {
	t.Helper()
	return mustDataset(t,
		domain.IntegerColumn(domain.ColumnCustomerID, []int{1, 2, 3, 4, 5, 5}),
		domain.CategoricalColumn(domain.ColumnCity, []string{"Colombo", "Kandy", "Colombo", "Galle", "Kandy", "Kandy"}),
		domain.CategoricalColumn(domain.ColumnClusterName, []string{
			"Elite Spenders", "Value Seekers", "Value Seekers", "Elite Spenders", "Elite Spenders", "Elite Spenders",
		}),
		domain.IntegerColumn(domain.ColumnTotalSales, []int{1000, 200, 150, 1200, 900, 100}),
		domain.IntegerColumn(domain.ColumnLuxurySales, []int{300, 20, 10, 400, 250, 50}),
	)
}
