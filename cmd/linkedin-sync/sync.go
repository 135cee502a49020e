package main

import (
	"fmt"

	"github.com/dpax/linkedin-feed/internal/config"
	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/dpax/linkedin-feed/internal/history"
	"github.com/dpax/linkedin-feed/internal/metrics"
	"github.com/dpax/linkedin-feed/internal/pipeline"
	"github.com/spf13/cobra"
)

func newSyncCmd(root *rootOptions) *cobra.Command {
	var mode, output string

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Fetch the latest posts and rewrite the feed document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()

			if err != nil {
				return err
			}

			if mode != "" {
				cfg.Mode = mode
			}

			if output != "" {
				cfg.Output = output
			}

			if err := config.Validate(cfg); err != nil {
				return err
			}

			opts := []pipeline.Option{}

			if cfg.History != "" {
				store, err := history.Open(cfg.History)

				if err != nil {
					return err
				}

				defer store.Close()

				opts = append(opts, pipeline.WithHistory(store))
			}

			if cfg.MetricsTextfile != "" {
				opts = append(opts, pipeline.WithMetrics(metrics.NewRecorder()))
			}

			run, err := pipeline.NewRunner(cfg, opts...).Run(cmd.Context())

			if err != nil {
				return fmt.Errorf("sync failed: %w", err)
			}

			p := &printer{out: cmd.OutOrStdout()}

			switch run.Outcome {
			case entity.OutcomeKeptPrevious:
				p.Warning("No posts fetched, kept the previous feed document (%d posts)", run.Posts)
			default:
				p.Success("Synced %d posts from %s into %s", run.Posts, run.Source, cfg.Output)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "source mode: scrape or webhook")
	cmd.Flags().StringVarP(&output, "output", "o", "", "feed document path")

	return cmd
}
