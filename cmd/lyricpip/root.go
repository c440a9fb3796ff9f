package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"lyricpip/internal/config"
)

var socketPath string

var rootCmd = &cobra.Command{
	Use:   "lyricpip",
	Short: "synchronized lyrics daemon with per-track offset memory",
	Long: `lyricpip follows the active media player, resolves time-tagged lyrics
from several sources and streams the current verse to overlay clients
over a unix socket.

when run without a subcommand, it starts the daemon.`,
	Version: "1.0.0",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDaemon(cmd, args)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "", "daemon socket path (defaults to the configured one)")
}

// resolveSocketPath prefers the --socket flag over the config file.
func resolveSocketPath() string {
	if socketPath != "" {
		return socketPath
	}
	return config.Load().App.SocketPath
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
