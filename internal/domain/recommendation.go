package domain

// Recommendation is the ordered list of marketing tips for one segment
type Recommendation struct {
	Segment string   `json:"segment" yaml:"segment"`
	Tips    []string `json:"tips" yaml:"tips"`
}
