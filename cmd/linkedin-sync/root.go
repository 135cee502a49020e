package main

import (
	"log/slog"

	"github.com/dpax/linkedin-feed/internal/app"
	"github.com/dpax/linkedin-feed/internal/config"
	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	configPath string
	verbose    bool
	noColor    bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "linkedin-sync",
		Short: "Sync the DPaX LinkedIn posts into a static feed document",
		Long: `linkedin-sync fetches the latest DPaX LinkedIn posts, either by scraping the
public company pages or from a webhook, and writes them to a JSON feed
document consumed by the website.

Example usage:
  linkedin-sync sync                 # Run one sync with linkedin-sync.yaml
  linkedin-sync sync --mode webhook  # Force the webhook source
  linkedin-sync show                 # Print the current feed document
  linkedin-sync history              # List recent sync runs
  linkedin-sync serve                # Serve the feed over HTTP`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if opts.verbose {
				app.SetLevel(slog.LevelDebug)
			}

			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "config file")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newSyncCmd(opts),
		newServeCmd(opts),
		newShowCmd(opts),
		newHistoryCmd(opts),
	)

	return cmd
}

func (o *rootOptions) load() (*entity.Config, error) {
	return config.Read(o.configPath)
}
