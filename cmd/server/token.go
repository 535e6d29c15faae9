package main

import (
	"fmt"

	"github.com/dkeye/Telecall/internal/adapters/stream"
	"github.com/dkeye/Telecall/internal/config"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token --user <id>",
	Short: "Print a client token for a user.",
	Long: `Signs a client token for the given user with the configured
stream.api_secret, the same token POST /generateToken returns, without
touching the user directory.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		user, _ := cmd.Flags().GetString("user")
		if user == "" {
			return fmt.Errorf("--user is required")
		}
		cfg, err := config.LoadWith(v)
		if err != nil {
			return err
		}
		c := &stream.Client{APISecret: cfg.Stream.APISecret, TokenTTL: cfg.Stream.TokenTTL}
		token, err := c.UserToken(user)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().String("user", "", "user id to sign the token for")
	rootCmd.AddCommand(tokenCmd)
}
