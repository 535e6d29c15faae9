package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// v holds flag bindings; config.LoadWith layers the file and environment
// on top of it.
var v = viper.New()

var rootCmd = &cobra.Command{
	Use:   "telecall",
	Short: "Presence and one-to-one call signaling server.",
	Long: `telecall tracks which users are online and brokers call setup
between two of them over a websocket. Media flows peer to peer.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if debug, _ := cmd.Flags().GetBool("debug"); debug {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return serveCmd.RunE(cmd, args)
	},
}

func init() {
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().Int("port", 0, "listen port (overrides config)")
	_ = v.BindPFlag("port", rootCmd.PersistentFlags().Lookup("port"))
}
