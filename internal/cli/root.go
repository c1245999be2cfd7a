// Package cli implements the groweasy command-line front end.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/groweasy/analytics/config"
	"github.com/groweasy/analytics/internal/domain"
	"github.com/groweasy/analytics/internal/infrastructure/csvstore"
	"github.com/spf13/cobra"
)

// app carries state shared by all subcommands of one invocation
type app struct {
	cfgFile string
	cfg     *config.Config
	store   *csvstore.Store
}

// NewRootCommand builds the groweasy command tree
func NewRootCommand() *cobra.Command {
	a := &app{store: csvstore.NewStore()}

	root := &cobra.Command{
		Use:           "groweasy",
		Short:         "Customer segmentation and insights for retail sales data",
		Long:          `groweasy clusters customers with k-means and summarises pre-clustered sales data by city and segment.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(a.cfgFile)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is ./config.yaml)")

	root.AddCommand(a.segmentCommand())
	root.AddCommand(a.insightsCommand())
	return root
}

// Execute is the entry point called by main.main()
func Execute() {
	root := NewRootCommand()
	if err := root.Execute(); err != nil {
		printS(os.Stderr, "error", "✗ Error: %v", err)
		os.Exit(1)
	}
}

// load reads the named file, or the configured default when no file is given
func (a *app) load(args []string, defaultPath string) (*domain.Dataset, error) {
	if len(args) > 0 {
		return a.store.ParseFile(args[0], domain.SourceUploaded)
	}
	ds, err := a.store.ParseFile(defaultPath, domain.SourceDefault)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefaultDatasetMissing, defaultPath)
	}
	return ds, nil
}

func describe(err error) error {
	if errors.Is(err, domain.ErrDefaultDatasetMissing) {
		return errors.New("Default dataset not found. Please pass a CSV file.")
	}
	return err
}
