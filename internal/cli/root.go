package cli

import (
	"context"
	"os"

	"github.com/spf13/cobra"
)

var (
	cfg    *Config
	client *Client
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "hangchat",
		Short: "Terminal client for the hangchat server",
		Long: `hangchat is a terminal client for the hangchat chat server.

Use connect to join the chat and play hangman. The remaining commands query
the server's admin API.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			client = NewClient(cfg.AdminURL)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerAddr, "server", cfg.ServerAddr, "Chat server address (env: HANGCHAT_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.AdminURL, "admin", cfg.AdminURL, "Admin API URL (env: HANGCHAT_ADMIN)")
	rootCmd.PersistentFlags().StringVar(&cfg.Name, "name", cfg.Name, "Name to claim on connect (env: HANGCHAT_NAME)")
	rootCmd.PersistentFlags().IntVar(&cfg.FrameWidth, "frame-width", cfg.FrameWidth, "Frame width in bytes (env: HANGCHAT_FRAME_WIDTH)")
	rootCmd.PersistentFlags().StringVarP(&cfg.Output, "output", "o", cfg.Output, "Output format: text, json")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Verbose, "verbose", "v", cfg.Verbose, "Verbose output")

	// Add subcommands
	rootCmd.AddCommand(newConnectCmd())
	rootCmd.AddCommand(newHealthCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newGameCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		NewOutput(cfg.Output, os.Stderr).PrintError(err)
		os.Exit(1)
	}
}
