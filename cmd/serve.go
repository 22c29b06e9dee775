package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aquarisk/workbench/internal/server"
	"github.com/aquarisk/workbench/pkg/staticmap"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the workbench over HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		renderer := staticmap.NewRenderer(
			staticmap.WithBaseURL(cfg.Providers.StaticMap.BaseURL),
			staticmap.WithZoom(cfg.Providers.StaticMap.Zoom),
		)

		srv := server.New(st, newOrchestrator(), renderer, cfg.Server.AllowedOrigins)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		return srv.Serve(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
