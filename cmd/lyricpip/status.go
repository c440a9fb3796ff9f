package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"lyricpip/internal/ipc"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "print the daemon's current track and verse state",
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := ipc.SendCommand(resolveSocketPath(), ipc.Command{Name: "status"})
		if err != nil {
			return err
		}

		fmt.Printf("track:   %s\n", u.Track)
		fmt.Printf("quality: %s\n", u.Quality)
		fmt.Printf("offset:  %dms\n", u.TotalOffsetMs)
		if u.Index >= 0 && u.Index < len(u.Blocks) {
			fmt.Printf("verse:   [%d] %s\n", u.Index, u.Blocks[u.Index].Text)
		} else {
			fmt.Printf("verse:   [%d]\n", u.Index)
		}
		if u.Message != "" {
			fmt.Printf("message: %s\n", u.Message)
		}
		return nil
	},
}

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "re-fetch lyrics for the playing track, bypassing the cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		u, err := ipc.SendCommand(resolveSocketPath(), ipc.Command{Name: "refresh"})
		if err != nil {
			return err
		}
		fmt.Printf("refresh requested for %s\n", u.Track)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(refreshCmd)
}
