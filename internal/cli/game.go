package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game ledger commands",
	}

	cmd.AddCommand(newGameListCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameSubmitCmd())
	cmd.AddCommand(newGameUpdateCmd())
	cmd.AddCommand(newGameVerifyCmd())
	cmd.AddCommand(newGameDeleteCmd())

	return cmd
}

func newGameListCmd() *cobra.Command {
	var player, dateRange, day, from, to, order string
	var verified, unverified bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded games",
		RunE: func(cmd *cobra.Command, args []string) error {
			if verified && unverified {
				return fmt.Errorf("--verified and --unverified are mutually exclusive")
			}

			q := url.Values{}
			if verified {
				q.Set("verified", "true")
			}
			if unverified {
				q.Set("verified", "false")
			}
			if player != "" {
				q.Set("player", player)
			}
			if dateRange != "" {
				q.Set("range", dateRange)
			}
			if day != "" {
				q.Set("date", day)
			}
			if from != "" {
				q.Set("from", from)
			}
			if to != "" {
				q.Set("to", to)
			}
			if order != "" {
				q.Set("order", order)
			}

			path := "/api/v1/games"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var result []Game
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().BoolVar(&verified, "verified", false, "Only verified games")
	cmd.Flags().BoolVar(&unverified, "unverified", false, "Only unverified games")
	cmd.Flags().StringVar(&player, "player", "", "Only games involving this player id")
	cmd.Flags().StringVar(&dateRange, "range", "", "Named range: last-week, last-month, last-year")
	cmd.Flags().StringVar(&day, "date", "", "Games on a single day (YYYY-MM-DD)")
	cmd.Flags().StringVar(&from, "from", "", "Games on or after this date")
	cmd.Flags().StringVar(&to, "to", "", "Games on or before this date")
	cmd.Flags().StringVar(&order, "order", "", "Sort order by date: asc, desc")

	return cmd
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a single game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result Game
			if err := client.Get("/api/v1/games/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameSubmitCmd() *cobra.Command {
	var white, black int64
	var result, date string
	var verified bool

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a game result",
		Long: `Submit a game result to the ledger.

The result uses chess notation: 1-0 (white wins), 0-1 (black wins),
or 1/2-1/2 (draw). Rating changes are recorded immediately but only
applied once an admin verifies the game. Admins can pass --verified
to apply them on submission.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if white == 0 || black == 0 || result == "" {
				return fmt.Errorf("--white, --black, and --result are required")
			}

			req := map[string]any{
				"whitePlayerId": white,
				"blackPlayerId": black,
				"result":        result,
			}
			if date != "" {
				req["date"] = date
			}
			if verified {
				req["verified"] = true
			}

			var game Game
			if err := client.Post("/api/v1/games", req, &game); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(game)
			return nil
		},
	}

	cmd.Flags().Int64Var(&white, "white", 0, "White player id (required)")
	cmd.Flags().Int64Var(&black, "black", 0, "Black player id (required)")
	cmd.Flags().StringVar(&result, "result", "", "Result: 1-0, 0-1, 1/2-1/2 (required)")
	cmd.Flags().StringVar(&date, "date", "", "Date played (RFC3339 or YYYY-MM-DD, default now)")
	cmd.Flags().BoolVar(&verified, "verified", false, "Verify on submission (admin)")
	_ = cmd.MarkFlagRequired("white")
	_ = cmd.MarkFlagRequired("black")
	_ = cmd.MarkFlagRequired("result")

	return cmd
}

func newGameUpdateCmd() *cobra.Command {
	var result, date string
	var verified bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a game's result, date, or verified flag (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			if cmd.Flags().Changed("result") {
				req["result"] = result
			}
			if cmd.Flags().Changed("date") {
				req["date"] = date
			}
			if cmd.Flags().Changed("verified") {
				req["verified"] = verified
			}
			if len(req) == 0 {
				return fmt.Errorf("nothing to update")
			}

			var game Game
			if err := client.Patch("/api/v1/games/"+args[0], req, &game); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(game)
			return nil
		},
	}

	cmd.Flags().StringVar(&result, "result", "", "New result")
	cmd.Flags().StringVar(&date, "date", "", "New date")
	cmd.Flags().BoolVar(&verified, "verified", false, "Verified flag")

	return cmd
}

func newGameVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <id>",
		Short: "Verify a game and apply its rating changes (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var game Game
			if err := client.Put("/api/v1/games/"+args[0]+"/verify", nil, &game); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(game)
			return nil
		},
	}
}

func newGameDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a game, reverting its rating changes (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/games/" + args[0]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Game deleted")
			return nil
		},
	}
}
