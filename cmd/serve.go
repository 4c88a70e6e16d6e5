package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"Tracksmith/logger"
	"Tracksmith/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run an editing session behind the HTTP and websocket API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.HTTPAddr
		}
		project, _ := cmd.Flags().GetString("project")

		a, err := newApp(ctx, cfg, appOptions{project: project, needDB: cfg.DBDriver != "none", needStore: cfg.MinioEnabled()})
		if err != nil {
			return err
		}
		defer a.Close()
		done := a.run(ctx)

		var publisher server.Publisher
		if a.store != nil {
			publisher = a.store
		}
		err = server.Serve(ctx, addr, server.NewAPIHandler(a.sess, publisher, a.projects))
		stop()
		<-done
		if err != nil {
			logger.Error("server failed", logger.ErrorField(err))
		}
		return err
	},
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (defaults to HTTP_ADDR)")
	serveCmd.Flags().String("project", "", "load a saved project instead of empty tracks")
	rootCmd.AddCommand(serveCmd)
}
