package cli

import (
	"net/url"

	"github.com/spf13/cobra"
)

func newStandingsCmd() *cobra.Command {
	var window string

	cmd := &cobra.Command{
		Use:   "standings",
		Short: "Show the club standings by rating",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			q.Set("sort", "rating")
			if window != "" {
				q.Set("window", window)
			}

			var result []PlayerWithStats
			if err := client.Get("/api/v1/players?"+q.Encode(), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&window, "window", "", "Stats window: week, month, year, all")

	return cmd
}
