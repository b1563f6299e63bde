package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "game",
		Short: "Show the running hangman game",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result GameState

			if err := client.Get(cmd.Context(), "/api/v1/game", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output, cmd.OutOrStdout())
			out.Print(result)
			return nil
		},
	}
}

func newHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [id]",
		Short: "List recently finished hangman games",
		Long: `List recently finished hangman games, newest first.

With an id, show that single game.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := NewOutput(cfg.Output, cmd.OutOrStdout())

			if len(args) == 1 {
				var result GameSummary
				if err := client.Get(cmd.Context(), "/api/v1/games/"+args[0], &result); err != nil {
					return err
				}
				out.Print(result)
				return nil
			}

			if limit <= 0 {
				return fmt.Errorf("--limit must be positive, got %d", limit)
			}

			var result GameList
			if err := client.Get(cmd.Context(), "/api/v1/games?limit="+strconv.Itoa(limit), &result); err != nil {
				return err
			}
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of games to list")

	return cmd
}
