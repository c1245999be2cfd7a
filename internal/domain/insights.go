package domain

import "strings"

// Columns the insights dashboard expects in its input
const (
	ColumnCity        = "outlet_city"
	ColumnClusterName = "cluster_name"
	ColumnTotalSales  = "Total_sales"
	ColumnLuxurySales = "luxury_sales"
	ColumnCustomerID  = "Customer_ID"
)

// RequiredInsightsColumns lists the columns checked before filtering
var RequiredInsightsColumns = []string{
	ColumnCity, ColumnClusterName, ColumnTotalSales, ColumnLuxurySales, ColumnCustomerID,
}

// FilterAll is the selection that leaves a filter unset
const FilterAll = "All"

// NoTopSegment is reported as the most common cluster of an empty selection
const NoTopSegment = "N/A"

// IsAll reports whether a filter selection is unset
func IsAll(selection string) bool {
	s := strings.TrimSpace(selection)
	return s == "" || strings.EqualFold(s, FilterAll)
}

// InsightsFilter holds the dashboard's categorical selections
type InsightsFilter struct {
	SessionID string `form:"session" json:"-"`
	City      string `form:"city" json:"city"`
	Cluster   string `form:"cluster" json:"cluster"`
	Segment   string `form:"segment" json:"segment"`
}

// KPIs are the headline figures for the filtered selection
type KPIs struct {
	TotalSales      float64 `json:"totalSales"`
	AvgLuxurySales  float64 `json:"avgLuxurySales"`
	UniqueCustomers int     `json:"uniqueCustomers"`
	TopSegment      string  `json:"topSegment"`
}

// CategoryValue pairs a category label with an aggregated value
type CategoryValue struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// FilterOptions are the selectable values, derived from the dataset itself
type FilterOptions struct {
	Cities   []string `json:"cities"`
	Clusters []string `json:"clusters"`
}

// InsightsReport is everything the insights dashboard renders for one selection
type InsightsReport struct {
	Source          string           `json:"source"`
	Filter          InsightsFilter   `json:"filter"`
	Options         FilterOptions    `json:"options"`
	Rows            int              `json:"rows"`
	Preview         Preview          `json:"preview"`
	KPIs            KPIs             `json:"kpis"`
	SalesByCity     []CategoryValue  `json:"salesByCity"`
	ClusterSizes    []CategoryValue  `json:"clusterSizes"`
	Recommendations []Recommendation `json:"recommendations"`
	Filtered        *Dataset         `json:"-"`
}
