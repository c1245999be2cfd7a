package domain

import (
	"context"
	"io"
	"time"
)

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// DatasetParser turns delimited text into a Dataset
type DatasetParser interface {
	Parse(r io.Reader, source string) (*Dataset, error)
	ParseFile(path, source string) (*Dataset, error)
}

// DatasetWriter renders a Dataset as delimited text
type DatasetWriter interface {
	Write(w io.Writer, ds *Dataset) error
}

// RecommendationCatalog is the read-only table of tips per segment
type RecommendationCatalog interface {
	All() []Recommendation
	Tips(segment string) ([]string, bool)
}

// RandomSource supplies the randomness used to seed cluster centroids
type RandomSource interface {
	Intn(n int) int
	Float64() float64
}

// ScatterSpec describes a two-feature scatter plot coloured by cluster
type ScatterSpec struct {
	Title  string
	XLabel string
	YLabel string
	X      []float64
	Y      []float64
	Labels []int
	K      int
}

// BarSpec describes a single-series bar chart
type BarSpec struct {
	Title string
	Bars  []CategoryValue
}

// ChartRenderer draws charts as PNG images
type ChartRenderer interface {
	Scatter(w io.Writer, spec ScatterSpec) error
	Bars(w io.Writer, spec BarSpec) error
}
