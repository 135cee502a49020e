package main

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/dpax/linkedin-feed/internal/history"
	"github.com/spf13/cobra"
)

func newHistoryCmd(root *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent sync runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()

			if err != nil {
				return err
			}

			if cfg.History == "" {
				return errors.New("run history is not configured (set history in the config file)")
			}

			store, err := history.Open(cfg.History)

			if err != nil {
				return err
			}

			defer store.Close()

			runs, err := store.List(limit)

			if err != nil {
				return err
			}

			if len(runs) == 0 {
				(&printer{out: cmd.OutOrStdout()}).Info("No sync runs recorded yet")
				return nil
			}

			return renderTable(cmd.OutOrStdout(),
				[]string{"Run", "Started", "Mode", "Outcome", "Posts", "Duration", "Source", "Error"},
				runRows(runs))
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of runs to show, 0 for all")

	return cmd
}

func runRows(runs []entity.Run) [][]string {
	rows := make([][]string, 0, len(runs))

	for _, run := range runs {
		rows = append(rows, []string{
			run.ID.String()[:8],
			run.StartedAt.Format(time.DateTime),
			run.Mode,
			run.Outcome,
			strconv.Itoa(run.Posts),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String(),
			run.Source,
			firstLine(run.Error),
		})
	}

	return rows
}

func firstLine(s string) string {
	if line, _, cut := strings.Cut(s, "\n"); cut {
		return line + " …"
	}

	return s
}
