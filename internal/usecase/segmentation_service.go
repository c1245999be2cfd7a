package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sort"

	"github.com/groweasy/analytics/internal/domain"
)

// SegmentationConfig holds configuration for the segmentation engine
type SegmentationConfig struct {
	DefaultClusters int
	MinClusters     int
	MaxClusters     int
	Seed            int64
	MaxIterations   int
	Tolerance       float64
	NInit           int
}

// DefaultSegmentationConfig mirrors the dashboard's defaults
func DefaultSegmentationConfig() SegmentationConfig {
	return SegmentationConfig{
		DefaultClusters: domain.DefaultClusters,
		MinClusters:     domain.MinClusters,
		MaxClusters:     domain.MaxClusters,
		Seed:            42,
		MaxIterations:   300,
		Tolerance:       1e-4,
		NInit:           1,
	}
}

// NewMathRand is the default random source factory
func NewMathRand(seed int64) domain.RandomSource {
	return rand.New(rand.NewSource(seed))
}

// Segmentation is the outcome of one engine run
type Segmentation struct {
	Features          []string
	Labels            []int
	EffectiveClusters int
	Inertia           float64
	Iterations        int
}

// Segmenter standardizes the numeric columns of a dataset and clusters its rows
type Segmenter struct {
	cfg     SegmentationConfig
	newRand func(seed int64) domain.RandomSource
}

// NewSegmenter creates a segmenter. A nil newRand uses math/rand.
func NewSegmenter(cfg SegmentationConfig, newRand func(seed int64) domain.RandomSource) *Segmenter {
	if newRand == nil {
		newRand = NewMathRand
	}
	return &Segmenter{cfg: cfg, newRand: newRand}
}

// ValidateK checks k against the configured bounds
func (s *Segmenter) ValidateK(k int) error {
	if k < s.cfg.MinClusters || k > s.cfg.MaxClusters {
		return fmt.Errorf("%w: number of clusters must be between %d and %d, got %d",
			domain.ErrInvalidRequest, s.cfg.MinClusters, s.cfg.MaxClusters, k)
	}
	return nil
}

// Segment assigns one label in [0, k) to every row of ds.
// A fresh random source seeded with the configured seed is used per call.
func (s *Segmenter) Segment(ds *domain.Dataset, k int) (*Segmentation, error) {
	if err := s.ValidateK(k); err != nil {
		return nil, err
	}

	numeric := ds.NumericColumns()
	if len(numeric) < 2 {
		return nil, fmt.Errorf("%w: found %d", domain.ErrNotEnoughNumericData, len(numeric))
	}
	if ds.Rows() < k {
		return nil, fmt.Errorf("%w: %d rows for k=%d", domain.ErrTooFewRows, ds.Rows(), k)
	}

	features, err := NewStandardScaler().FitTransform(numeric)
	if err != nil {
		return nil, err
	}

	model := NewKMeans(KMeansConfig{
		K:         k,
		MaxIter:   s.cfg.MaxIterations,
		Tolerance: s.cfg.Tolerance,
		NInit:     s.cfg.NInit,
	}, s.newRand(s.cfg.Seed))

	res, err := model.Fit(features)
	if err != nil {
		return nil, err
	}

	names := make([]string, len(numeric))
	for i, col := range numeric {
		names[i] = col.Name
	}
	return &Segmentation{
		Features:          names,
		Labels:            res.Labels,
		EffectiveClusters: res.EffectiveClusters,
		Inertia:           res.Inertia,
		Iterations:        res.Iterations,
	}, nil
}

// SegmentationService runs the load → segment → present pipeline per interaction
type SegmentationService struct {
	datasets  *DatasetService
	segmenter *Segmenter
	cfg       SegmentationConfig
}

// NewSegmentationService creates a new segmentation service with dependencies
func NewSegmentationService(datasets *DatasetService, segmenter *Segmenter, cfg SegmentationConfig) *SegmentationService {
	return &SegmentationService{
		datasets:  datasets,
		segmenter: segmenter,
		cfg:       cfg,
	}
}

// Run resolves the dataset and segments it. Conditions that only prevent
// clustering are reported on the returned report's Warning field.
func (s *SegmentationService) Run(ctx context.Context, req domain.SegmentationRequest) (*domain.SegmentationReport, error) {
	if req.K == 0 {
		req.K = s.cfg.DefaultClusters
	}
	if err := s.segmenter.ValidateK(req.K); err != nil {
		return nil, err
	}

	ds, err := s.datasets.Resolve(ctx, req.SessionID, AppSegmentation)
	if err != nil {
		return nil, err
	}
	return s.Segment(ds, req.K)
}

// Segment builds the report for an already loaded dataset
func (s *SegmentationService) Segment(ds *domain.Dataset, k int) (*domain.SegmentationReport, error) {
	report := &domain.SegmentationReport{
		Source:  ds.Source,
		Rows:    ds.Rows(),
		Preview: ds.Preview(),
		K:       k,
	}
	for _, col := range ds.NumericColumns() {
		report.NumericColumns = append(report.NumericColumns, col.Name)
	}

	seg, err := s.segmenter.Segment(ds, k)
	if err != nil {
		if domain.IsWarning(err) {
			report.Warning = warningText(err)
			return report, nil
		}
		return nil, err
	}

	clustered, err := ds.WithLabels(domain.ClusterColumn, seg.Labels)
	if err != nil {
		return nil, err
	}
	report.Clustered = clustered
	report.Labels = seg.Labels
	report.EffectiveClusters = seg.EffectiveClusters
	report.Distribution = distribution(seg.Labels)
	if seg.EffectiveClusters < k {
		report.Warning = fmt.Sprintf("Only %d distinct segments could be formed from this data (requested %d).", seg.EffectiveClusters, k)
	}

	log.Printf("[SEGMENT] %s: %d rows, k=%d, %d iterations, inertia=%.4f",
		ds.Source, ds.Rows(), k, seg.Iterations, seg.Inertia)
	return report, nil
}

func warningText(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotEnoughNumericData):
		return "Dataset must contain at least two numeric columns for clustering."
	case errors.Is(err, domain.ErrMissingValues):
		return "Numeric columns contain missing values; clustering needs complete rows."
	case errors.Is(err, domain.ErrTooFewRows):
		return "Dataset has fewer rows than the requested number of segments."
	default:
		return err.Error()
	}
}

// distribution counts rows per label, sorted by label
func distribution(labels []int) []domain.ClusterCount {
	counts := make(map[int]int)
	for _, l := range labels {
		counts[l]++
	}
	out := make([]domain.ClusterCount, 0, len(counts))
	for cluster, n := range counts {
		out = append(out, domain.ClusterCount{Cluster: cluster, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cluster < out[j].Cluster })
	return out
}

// ScatterSpec plots the first two numeric columns of a segmented report
func (s *SegmentationService) ScatterSpec(report *domain.SegmentationReport) (domain.ScatterSpec, error) {
	if !report.Segmented() || len(report.NumericColumns) < 2 {
		return domain.ScatterSpec{}, domain.ErrNotEnoughNumericData
	}
	x, _ := report.Clustered.Column(report.NumericColumns[0])
	y, _ := report.Clustered.Column(report.NumericColumns[1])
	return domain.ScatterSpec{
		Title:  "Customer Segments",
		XLabel: x.Name,
		YLabel: y.Name,
		X:      x.Numbers,
		Y:      y.Numbers,
		Labels: report.Labels,
		K:      report.K,
	}, nil
}

// DistributionSpec charts the number of rows per cluster
func (s *SegmentationService) DistributionSpec(report *domain.SegmentationReport) (domain.BarSpec, error) {
	if !report.Segmented() {
		return domain.BarSpec{}, domain.ErrNotEnoughNumericData
	}
	bars := make([]domain.CategoryValue, len(report.Distribution))
	for i, c := range report.Distribution {
		bars[i] = domain.CategoryValue{Label: fmt.Sprintf("%d", c.Cluster), Value: float64(c.Count)}
	}
	return domain.BarSpec{Title: "Cluster Distribution", Bars: bars}, nil
}
