package main

import (
	"github.com/dpax/linkedin-feed/internal/entity"
	"github.com/dpax/linkedin-feed/internal/feed"
	"github.com/spf13/cobra"
)

func newShowCmd(root *rootOptions) *cobra.Command {
	var published bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current feed document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()

			if err != nil {
				return err
			}

			doc, err := feed.Read(cfg.Output)

			if err != nil {
				return err
			}

			posts := doc.Posts

			if published {
				posts = feed.Published(doc, cfg.Limit)
			}

			p := &printer{out: cmd.OutOrStdout()}
			p.Info("Source: %s", doc.Source)
			p.Info("Last synced at: %s", doc.LastSyncedAt)
			p.Info("")

			return renderTable(cmd.OutOrStdout(), []string{"ID", "Date", "Repost", "Title", "URL"}, postRows(posts))
		},
	}

	cmd.Flags().BoolVar(&published, "published", false, "only show posts rendered by the website")

	return cmd
}

func postRows(posts []entity.Post) [][]string {
	rows := make([][]string, 0, len(posts))

	for _, post := range posts {
		rows = append(rows, []string{post.ID, post.RelativeDate, yesNo(post.IsRepost), post.Title, post.URL})
	}

	return rows
}
