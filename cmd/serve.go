package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soundlens/soundlens/internal/app"
)

var serveListen string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the classification HTTP API",
	Long: `Start the HTTP API server.

Endpoints:
  GET  /health                system liveness
  GET  /system-info           host CPU, memory and GPU inventory
  POST /recommend-buffer      analysis buffer length recommendation
  POST /classify              classify uploaded audio against labels
  POST /media/fetch           download remote audio into the cache
  GET  /media/{id}            stream a cached download
  POST /media/{id}/classify   classify a cached download
  GET  /                      bundled frontend

Examples:
  # Serve on the default port
  soundlens serve

  # Serve on a specific address with verbose logging
  soundlens serve --listen :9000 -v`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveListen, "listen", "",
		"listen address (overrides server.listen)")
}

func runServe(cmd *cobra.Command, args []string) error {
	appCtx := &app.Context{
		ConfigFile: configFile,
		Listen:     serveListen,
		Verbose:    verbose,
		Quiet:      quiet,
	}

	application, err := app.NewApp(appCtx)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return application.RunServer(ctx)
}
