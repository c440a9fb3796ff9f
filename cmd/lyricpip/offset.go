package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"lyricpip/internal/ipc"
)

var offsetIndex int

var offsetCmd = &cobra.Command{
	Use:   "offset [delta_ms|reset]",
	Short: "adjust the lyric offset of the playing track",
	Long: `shifts lyric timing of the playing track by the given number of
milliseconds. positive values show verses later, negative earlier.
"reset" clears all stored corrections for the track.

with --index the shift applies from that verse onward instead of the
whole track.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sock := resolveSocketPath()

		if args[0] == "reset" {
			u, err := ipc.SendCommand(sock, ipc.Command{Name: "reset"})
			if err != nil {
				return err
			}
			fmt.Printf("offsets cleared (total now %dms)\n", u.TotalOffsetMs)
			return nil
		}

		delta, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid offset %q: %w", args[0], err)
		}

		cmdMsg := ipc.Command{Name: "offset", DeltaMs: delta}
		if cmd.Flags().Changed("index") {
			cmdMsg = ipc.Command{Name: "offset_at", DeltaMs: delta, Index: offsetIndex}
		}
		u, err := ipc.SendCommand(sock, cmdMsg)
		if err != nil {
			return err
		}
		fmt.Printf("offset applied, total now %dms\n", u.TotalOffsetMs)
		return nil
	},
}

func init() {
	offsetCmd.Flags().IntVar(&offsetIndex, "index", -1, "apply from this verse onward (default: active verse)")
	rootCmd.AddCommand(offsetCmd)
}
