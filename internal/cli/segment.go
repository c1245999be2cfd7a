package cli

import (
	"fmt"
	"os"
	"strconv"

	"github.com/groweasy/analytics/internal/domain"
	"github.com/groweasy/analytics/internal/usecase"
	"github.com/spf13/cobra"
)

func (a *app) segmentCommand() *cobra.Command {
	var (
		k      int
		seed   int64
		output string
	)

	cmd := &cobra.Command{
		Use:   "segment [file.csv]",
		Short: "Cluster customers with k-means on every numeric column",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			segCfg := usecase.SegmentationConfig{
				DefaultClusters: a.cfg.Segmentation.DefaultClusters,
				MinClusters:     a.cfg.Segmentation.MinClusters,
				MaxClusters:     a.cfg.Segmentation.MaxClusters,
				Seed:            a.cfg.Segmentation.Seed,
				MaxIterations:   a.cfg.Segmentation.MaxIterations,
				Tolerance:       a.cfg.Segmentation.Tolerance,
				NInit:           a.cfg.Segmentation.NInit,
			}
			if !cmd.Flags().Changed("clusters") {
				k = segCfg.DefaultClusters
			}
			if cmd.Flags().Changed("seed") {
				segCfg.Seed = seed
			}

			segmenter := usecase.NewSegmenter(segCfg, nil)
			if err := segmenter.ValidateK(k); err != nil {
				return err
			}

			ds, err := a.load(args, a.cfg.Data.SegmentationPath)
			if err != nil {
				return describe(err)
			}

			service := usecase.NewSegmentationService(nil, segmenter, segCfg)
			report, err := service.Segment(ds, k)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printS(out, "title", "Customer Segmentation")
			printS(out, "info", "Source: %s (%d rows)", report.Source, report.Rows)
			renderTable(out, report.Preview.Columns, report.Preview.Rows)

			if report.Warning != "" {
				printS(out, "warning", "⚠ %s", report.Warning)
			}
			if !report.Segmented() {
				return nil
			}

			printS(out, "info", "Features: %v", report.NumericColumns)
			rows := make([][]string, len(report.Distribution))
			for i, c := range report.Distribution {
				rows[i] = []string{strconv.Itoa(c.Cluster), strconv.Itoa(c.Count)}
			}
			renderTable(out, []string{domain.ClusterColumn, "Customers"}, rows)

			if output == "" {
				return nil
			}
			f, err := os.Create(output)
			if err != nil {
				return fmt.Errorf("create %s: %w", output, err)
			}
			defer f.Close()
			if err := a.store.Write(f, report.Clustered); err != nil {
				return err
			}
			printS(out, "success", "✓ Wrote %d rows to %s", report.Clustered.Rows(), output)
			return nil
		},
	}

	cmd.Flags().IntVarP(&k, "clusters", "k", domain.DefaultClusters, "number of clusters (2-10)")
	cmd.Flags().Int64Var(&seed, "seed", 42, "random seed for centroid initialisation")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the segmented dataset to this CSV file")
	return cmd
}
