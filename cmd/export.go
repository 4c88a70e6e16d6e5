package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"Tracksmith/core/session"
	"Tracksmith/storage"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export <project>",
	Short: "Mix a saved project down to a wav file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		dir, _ := cmd.Flags().GetString("dir")
		name, _ := cmd.Flags().GetString("name")
		upload, _ := cmd.Flags().GetBool("upload")

		a, err := newApp(ctx, cfg, appOptions{project: args[0], needStore: upload})
		if err != nil {
			return err
		}
		defer a.Close()
		runCtx, cancel := context.WithCancel(ctx)
		done := a.run(runCtx)
		defer func() {
			cancel()
			<-done
		}()

		var path string
		err = a.sess.Do(ctx, func(ctx context.Context, st *session.State) error {
			var err error
			path, err = st.Export(ctx, dir, name)
			return err
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "exported", path)

		if upload {
			info, err := a.store.Upload(ctx, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "uploaded %s (%s)\n", info.Key, storage.FormatSize(info.Size))
		}
		return nil
	},
}

func init() {
	exportCmd.Flags().String("dir", ".", "destination directory")
	exportCmd.Flags().String("name", "", "file name without extension (default finalAudio)")
	exportCmd.Flags().Bool("upload", false, "publish the export to object storage")
	rootCmd.AddCommand(exportCmd)
}
