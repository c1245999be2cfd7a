package cli

import (
	"strconv"

	"github.com/groweasy/analytics/internal/domain"
	"github.com/groweasy/analytics/internal/infrastructure/recommendations"
	"github.com/groweasy/analytics/internal/usecase"
	"github.com/spf13/cobra"
)

func (a *app) insightsCommand() *cobra.Command {
	var filter domain.InsightsFilter

	cmd := &cobra.Command{
		Use:   "insights [file.csv]",
		Short: "Summarise pre-clustered customers by city and segment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := recommendations.Load(a.cfg.Data.RecommendationsPath)
			if err != nil {
				return err
			}
			ds, err := a.load(args, a.cfg.Data.InsightsPath)
			if err != nil {
				return describe(err)
			}

			service := usecase.NewInsightsService(nil, usecase.NewRecommendationService(catalog))
			report, err := service.Analyze(ds, filter)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printS(out, "title", "Customer Insights")
			printS(out, "info", "Source: %s | City: %s | Cluster: %s | %d rows",
				report.Source, report.Filter.City, report.Filter.Cluster, report.Rows)

			renderTable(out,
				[]string{"Total Sales", "Avg Luxury Sales", "Unique Customers", "Top Segment"},
				[][]string{{
					money(report.KPIs.TotalSales),
					money(report.KPIs.AvgLuxurySales),
					strconv.Itoa(report.KPIs.UniqueCustomers),
					report.KPIs.TopSegment,
				}})

			if len(report.SalesByCity) > 0 {
				printS(out, "title", "Sales by City")
				renderTable(out, []string{"City", "Total Sales"}, categoryRows(report.SalesByCity, money))
			}
			if len(report.ClusterSizes) > 0 {
				printS(out, "title", "Customers per Cluster")
				renderTable(out, []string{"Cluster", "Rows"}, categoryRows(report.ClusterSizes, count))
			}

			printS(out, "title", "Recommendations")
			for _, rec := range report.Recommendations {
				printS(out, "info", "%s", rec.Segment)
				if len(rec.Tips) == 0 {
					printS(out, "warning", "  no recommendations for this segment")
				}
				for _, tip := range rec.Tips {
					printS(out, "success", "  • %s", tip)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.City, "city", domain.FilterAll, "outlet city to filter on")
	cmd.Flags().StringVar(&filter.Cluster, "cluster", domain.FilterAll, "cluster name to filter on")
	cmd.Flags().StringVar(&filter.Segment, "segment", domain.FilterAll, "segment to show recommendations for")
	return cmd
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func count(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func categoryRows(values []domain.CategoryValue, format func(float64) string) [][]string {
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = []string{v.Label, format(v.Value)}
	}
	return rows
}
