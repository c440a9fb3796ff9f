package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"lyricpip/internal/app"
	"lyricpip/internal/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "start the lyrics daemon",
	Long:  `starts the daemon that follows the player and serves verse updates to overlay clients.`,
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		cancel()
	}()

	cfg := config.Load()
	if socketPath != "" {
		cfg.App.SocketPath = socketPath
	}

	return app.New(cfg).Run(ctx)
}
