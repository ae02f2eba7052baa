package cli

import (
	"fmt"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player roster commands",
	}

	cmd.AddCommand(newPlayerListCmd())
	cmd.AddCommand(newPlayerGetCmd())
	cmd.AddCommand(newPlayerMeCmd())
	cmd.AddCommand(newPlayerCreateCmd())
	cmd.AddCommand(newPlayerUpdateCmd())
	cmd.AddCommand(newPlayerSetRatingCmd())
	cmd.AddCommand(newPlayerDeleteCmd())

	return cmd
}

func newPlayerListCmd() *cobra.Command {
	var sortBy, order, window string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all players",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if sortBy != "" {
				q.Set("sort", sortBy)
			}
			if order != "" {
				q.Set("order", order)
			}
			if window != "" {
				q.Set("window", window)
			}

			path := "/api/v1/players"
			if len(q) > 0 {
				path += "?" + q.Encode()
			}

			var result []PlayerWithStats
			if err := client.Get(path, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&sortBy, "sort", "", "Sort key: rating, performance, name, id")
	cmd.Flags().StringVar(&order, "order", "", "Sort order: asc, desc")
	cmd.Flags().StringVar(&window, "window", "", "Stats window: week, month, year, all")

	return cmd
}

func newPlayerGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show a player with statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PlayerWithStats
			if err := client.Get("/api/v1/players/"+args[0], &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayerMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show current player info",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PlayerWithStats
			if err := client.Get("/api/v1/players/me", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayerCreateCmd() *cobra.Command {
	var name, pin string
	var admin bool
	var rating int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new player (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" || pin == "" {
				return fmt.Errorf("--name and --pin are required")
			}

			req := map[string]any{
				"name": name,
				"pin":  pin,
			}
			if admin {
				req["is_admin"] = true
			}
			if cmd.Flags().Changed("rating") {
				req["initial_rating"] = rating
			}

			var result Player
			if err := client.Post("/api/v1/players", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Player name (required)")
	cmd.Flags().StringVar(&pin, "pin", "", "PIN (required)")
	cmd.Flags().BoolVar(&admin, "admin", false, "Grant the admin role")
	cmd.Flags().IntVar(&rating, "rating", 0, "Initial Elo rating (default 1200)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("pin")

	return cmd
}

func newPlayerUpdateCmd() *cobra.Command {
	var name, pin string
	var admin bool

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a player's name, PIN, or admin flag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := map[string]any{}
			if cmd.Flags().Changed("name") {
				req["name"] = name
			}
			if cmd.Flags().Changed("pin") {
				req["pin"] = pin
			}
			if cmd.Flags().Changed("admin") {
				req["is_admin"] = admin
			}
			if len(req) == 0 {
				return fmt.Errorf("nothing to update")
			}

			var result Player
			if err := client.Patch("/api/v1/players/"+args[0], req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVar(&pin, "pin", "", "New PIN")
	cmd.Flags().BoolVar(&admin, "admin", false, "Admin flag")

	return cmd
}

func newPlayerSetRatingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-rating <id> <rating>",
		Short: "Override a player's current rating (admin)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rating, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid rating %q", args[1])
			}

			req := map[string]any{"rating": rating}
			var result Player
			if err := client.Put("/api/v1/players/"+args[0]+"/rating", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayerDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a player and their games (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete("/api/v1/players/" + args[0]); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Player deleted")
			return nil
		},
	}
}
