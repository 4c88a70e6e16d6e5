package cmd

import (
	"encoding/json"
	"fmt"

	"Tracksmith/core/engine"

	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe <file>...",
	Short: "Print the audio details of one or more files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		probe := engine.NewFFprobe(cfg.FFmpegPath)
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		for _, path := range args {
			d, err := probe.Details(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if err := enc.Encode(struct {
				Path string `json:"path"`
				engine.Details
			}{path, d}); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
}
