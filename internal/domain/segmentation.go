package domain

// ClusterColumn is the name of the label column added by segmentation
const ClusterColumn = "Cluster"

// Cluster count bounds accepted by the segmentation dashboard
const (
	MinClusters     = 2
	MaxClusters     = 10
	DefaultClusters = 4
)

// SegmentationRequest selects the dataset and cluster count for one run
type SegmentationRequest struct {
	SessionID string `form:"session"`
	K         int    `form:"k"`
}

// ClusterCount is the number of rows assigned to one cluster label
type ClusterCount struct {
	Cluster int `json:"cluster"`
	Count   int `json:"count"`
}

// SegmentationReport is everything the segmentation dashboard renders for one run.
// Clustered is nil when Warning is set.
type SegmentationReport struct {
	Source            string         `json:"source"`
	Rows              int            `json:"rows"`
	Preview           Preview        `json:"preview"`
	NumericColumns    []string       `json:"numericColumns"`
	K                 int            `json:"k"`
	EffectiveClusters int            `json:"effectiveClusters,omitempty"`
	Distribution      []ClusterCount `json:"distribution,omitempty"`
	Warning           string         `json:"warning,omitempty"`
	Clustered         *Dataset       `json:"-"`
	Labels            []int          `json:"-"`
}

// Segmented reports whether the run produced cluster labels
func (r *SegmentationReport) Segmented() bool {
	return r.Clustered != nil
}
