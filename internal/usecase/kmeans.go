package usecase

import (
	"fmt"
	"math"

	"github.com/groweasy/analytics/internal/domain"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// KMeansConfig holds the clustering parameters
type KMeansConfig struct {
	K         int
	MaxIter   int
	Tolerance float64
	NInit     int
}

// KMeansResult is the outcome of the best clustering run
type KMeansResult struct {
	Labels            []int
	Centroids         *mat.Dense
	Inertia           float64 // sum of squared distances to the nearest centroid
	Iterations        int
	EffectiveClusters int
}

// KMeans partitions rows into K clusters with k-means++ seeding and Lloyd iterations.
// All randomness comes from the injected source, so a fixed seed gives a fixed result.
type KMeans struct {
	cfg KMeansConfig
	rnd domain.RandomSource
}

// NewKMeans creates a k-means model
func NewKMeans(cfg KMeansConfig, rnd domain.RandomSource) *KMeans {
	if cfg.MaxIter <= 0 {
		cfg.MaxIter = 300
	}
	if cfg.NInit <= 0 {
		cfg.NInit = 1
	}
	if cfg.Tolerance < 0 {
		cfg.Tolerance = 0
	}
	return &KMeans{cfg: cfg, rnd: rnd}
}

// Fit clusters the rows of x and returns the lowest-inertia run
func (m *KMeans) Fit(x *mat.Dense) (*KMeansResult, error) {
	if x == nil {
		return nil, fmt.Errorf("%w: empty feature matrix", domain.ErrTooFewRows)
	}
	n, _ := x.Dims()
	if m.cfg.K < 1 {
		return nil, fmt.Errorf("%w: k must be positive, got %d", domain.ErrInvalidRequest, m.cfg.K)
	}
	if n < m.cfg.K {
		return nil, fmt.Errorf("%w: %d rows for k=%d", domain.ErrTooFewRows, n, m.cfg.K)
	}

	tol := m.cfg.Tolerance * meanVariance(x)

	var best *KMeansResult
	for run := 0; run < m.cfg.NInit; run++ {
		res := m.run(x, tol)
		if best == nil || res.Inertia < best.Inertia {
			best = res
		}
	}
	return best, nil
}

func (m *KMeans) run(x *mat.Dense, tol float64) *KMeansResult {
	n, _ := x.Dims()
	centroids := m.seed(x)

	labels := make([]int, n)
	for i := range labels {
		labels[i] = -1
	}

	iter := 0
	for iter < m.cfg.MaxIter {
		iter++
		changed, _ := assign(x, centroids, labels)
		shift := recompute(x, centroids, labels)
		if !changed || shift <= tol {
			break
		}
	}
	// Final labels always refer to the final centroids.
	_, inertia := assign(x, centroids, labels)

	return &KMeansResult{
		Labels:            labels,
		Centroids:         centroids,
		Inertia:           inertia,
		Iterations:        iter,
		EffectiveClusters: countDistinct(labels),
	}
}

// seed picks initial centroids with k-means++: the first uniformly, each next
// one with probability proportional to its squared distance from the chosen set.
func (m *KMeans) seed(x *mat.Dense) *mat.Dense {
	n, p := x.Dims()
	k := m.cfg.K
	centroids := mat.NewDense(k, p, nil)

	centroids.SetRow(0, x.RawRowView(m.rnd.Intn(n)))

	minDist := make([]float64, n)
	for i := range minDist {
		minDist[i] = sqDist(x.RawRowView(i), centroids.RawRowView(0))
	}

	for c := 1; c < k; c++ {
		chosen := m.rnd.Intn(n)
		if total := floats.Sum(minDist); total > 0 {
			target := m.rnd.Float64() * total
			cumulative := 0.0
			for i, d := range minDist {
				cumulative += d
				if d > 0 && cumulative >= target {
					chosen = i
					break
				}
			}
		}
		centroids.SetRow(c, x.RawRowView(chosen))

		for i := range minDist {
			if d := sqDist(x.RawRowView(i), centroids.RawRowView(c)); d < minDist[i] {
				minDist[i] = d
			}
		}
	}
	return centroids
}

// assign moves every row to its nearest centroid, lowest index on ties
func assign(x, centroids *mat.Dense, labels []int) (changed bool, inertia float64) {
	k, _ := centroids.Dims()
	for i := range labels {
		row := x.RawRowView(i)
		best, bestDist := 0, math.MaxFloat64
		for c := 0; c < k; c++ {
			if d := sqDist(row, centroids.RawRowView(c)); d < bestDist {
				best, bestDist = c, d
			}
		}
		if labels[i] != best {
			labels[i] = best
			changed = true
		}
		inertia += bestDist
	}
	return changed, inertia
}

// recompute moves each centroid to the mean of its rows and returns the total
// squared shift. Empty clusters keep their previous centroid.
func recompute(x, centroids *mat.Dense, labels []int) float64 {
	k, p := centroids.Dims()
	sums := mat.NewDense(k, p, nil)
	counts := make([]int, k)
	for i, l := range labels {
		floats.Add(sums.RawRowView(l), x.RawRowView(i))
		counts[l]++
	}

	shift := 0.0
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		mean := sums.RawRowView(c)
		floats.Scale(1/float64(counts[c]), mean)
		shift += sqDist(centroids.RawRowView(c), mean)
		centroids.SetRow(c, mean)
	}
	return shift
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

func meanVariance(x *mat.Dense) float64 {
	_, p := x.Dims()
	if p == 0 {
		return 0
	}
	total := 0.0
	for j := 0; j < p; j++ {
		total += stat.PopVariance(mat.Col(nil, j, x), nil)
	}
	return total / float64(p)
}

func countDistinct(labels []int) int {
	seen := make(map[int]bool)
	for _, l := range labels {
		seen[l] = true
	}
	return len(seen)
}
